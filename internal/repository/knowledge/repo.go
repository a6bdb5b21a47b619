// Package knowledge persists knowledge records as hashes under an FT vector index.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/supportdesk/internal/db"
	"github.com/kailas-cloud/supportdesk/internal/domain"
	domknow "github.com/kailas-cloud/supportdesk/internal/domain/knowledge"
	"github.com/kailas-cloud/supportdesk/internal/domain/match"
	"github.com/kailas-cloud/supportdesk/internal/domain/search/filter"
)

// Hash field names.
const (
	fieldType     = "type"
	fieldPriority = "priority"
	fieldQuestion = "question"
	fieldAnswer   = "answer"
	fieldText     = "text"
	fieldVector   = "__vector"
	vectorAlias   = "vector"

	// fieldEmbeddedBy holds "<model>:<dims>" so a loader can tell vectors from another model apart.
	fieldEmbeddedBy = "embedded_by"
)

var returnFields = []string{fieldType, fieldPriority, fieldQuestion, fieldAnswer, fieldText}

// store is the consumer interface for the knowledge base (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Config names the index, its vector geometry and the model that fills it.
type Config struct {
	IndexName  string
	KeyPrefix  string
	Model      string
	Dimensions int
	HNSWM      int
	HNSWEF     int
}

// Repo stores and searches knowledge records.
type Repo struct {
	store  store
	cfg    Config
	prefix string
}

// New creates a knowledge repository. Empty names default under domain.KeyPrefix.
func New(s store, cfg Config) *Repo {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = domain.KeyPrefix + "knowledge:"
	}
	if cfg.IndexName == "" {
		cfg.IndexName = cfg.KeyPrefix + "idx"
	}
	return &Repo{store: s, cfg: cfg, prefix: cfg.KeyPrefix}
}

// IndexName returns the FT index the repository queries.
func (r *Repo) IndexName() string { return r.cfg.IndexName }

// EnsureIndex creates the FT index unless it already exists. Returns true if created.
func (r *Repo) EnsureIndex(ctx context.Context) (bool, error) {
	exists, err := r.store.IndexExists(ctx, r.cfg.IndexName)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", r.cfg.IndexName, err)
	}
	if exists {
		return false, nil
	}

	def, err := db.NewIndex(r.cfg.IndexName).
		Prefix(r.prefix).
		Tag(fieldType).
		Numeric(fieldPriority).
		VectorHNSW(fieldVector, vectorAlias, r.cfg.Dimensions, db.DistanceCosine, r.cfg.HNSWM, r.cfg.HNSWEF).
		Build()
	if err != nil {
		return false, fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", r.cfg.IndexName, err)
	}
	return true, nil
}

// Upsert writes a record with its embedding. The vector must match the configured dimension.
func (r *Repo) Upsert(ctx context.Context, rec domknow.Record, vector []float32) error {
	if err := domain.CheckDimensions(vector, r.cfg.Dimensions); err != nil {
		return fmt.Errorf("upsert %s: %w", rec.ID(), err)
	}

	key := r.key(rec.ID())
	fields := buildHashFields(rec, vector)
	fields[fieldEmbeddedBy] = r.embeddedBy()
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Current reports whether rec is already stored with the same content and was embedded by
// the configured model and dimension. A missing record is not current.
func (r *Repo) Current(ctx context.Context, rec domknow.Record) (bool, error) {
	key := r.key(rec.ID())
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if m[fieldEmbeddedBy] != r.embeddedBy() {
		return false, nil
	}
	return parseHashFields(rec.ID(), m).SameContent(rec), nil
}

// Search returns up to topK nearest records, restricted to partition when it is non-empty.
// Results are ordered by raw similarity descending; equal scores keep the index order.
func (r *Repo) Search(
	ctx context.Context, vector []float32, topK int, partition domknow.Type,
) ([]match.Match, error) {
	var filters filter.Expression
	if partition != "" {
		cond, err := filter.NewMatch(fieldType, string(partition))
		if err != nil {
			return nil, err
		}
		if filters, err = filter.NewExpression(cond); err != nil {
			return nil, err
		}
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.cfg.IndexName,
		Filters:      filters,
		Vector:       vector,
		K:            topK,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("knn search %s: %w", r.cfg.IndexName, err)
	}
	if res == nil || len(res.Entries) == 0 {
		return nil, nil
	}

	out := make([]match.Match, 0, len(res.Entries))
	for _, e := range res.Entries {
		id := strings.TrimPrefix(e.Key, r.prefix)
		out = append(out, match.New(parseHashFields(id, e.Fields), e.Score))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RawScore() > out[j].RawScore()
	})
	return out, nil
}

func (r *Repo) embeddedBy() string {
	return r.cfg.Model + ":" + strconv.Itoa(r.cfg.Dimensions)
}

func (r *Repo) key(id string) string {
	return r.prefix + id
}
