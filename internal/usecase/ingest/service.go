// Package ingest embeds knowledge records and loads them into the vector store.
package ingest

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/supportdesk/internal/domain"
	dombatch "github.com/kailas-cloud/supportdesk/internal/domain/batch"
	"github.com/kailas-cloud/supportdesk/internal/domain/knowledge"
)

// DefaultWorkers bounds concurrent embed+upsert calls.
const DefaultWorkers = 4

// Service loads records with per-item error reporting.
type Service struct {
	embed   domain.Embedder
	repo    Repository
	logger  *zap.Logger
	workers int
	force   bool
}

// New creates an ingestion service.
func New(embed domain.Embedder, repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embed: embed, repo: repo, logger: logger, workers: DefaultWorkers}
}

// WithWorkers configures the worker count.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// WithForce re-embeds records even when the stored copy is identical.
func (s *Service) WithForce(force bool) *Service {
	s.force = force
	return s
}

// Load ensures the index exists, then embeds and upserts every record.
// One record failing does not stop the others; results are in input order.
// The returned error is set only when the index cannot be prepared or ctx is done.
func (s *Service) Load(ctx context.Context, records []knowledge.Record) ([]dombatch.Result, error) {
	created, err := s.repo.EnsureIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}
	if created {
		s.logger.Info("knowledge index created")
	}

	results := make([]dombatch.Result, len(records))
	var mu sync.Mutex
	set := func(i int, r dombatch.Result) {
		mu.Lock()
		results[i] = r
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, rec := range records {
		if gctx.Err() != nil {
			set(i, dombatch.NewError(rec.ID(), gctx.Err()))
			continue
		}
		g.Go(func() error {
			r := s.loadOne(gctx, rec)
			set(i, r)
			if r.Status() == dombatch.StatusError {
				s.logger.Warn("record failed", zap.String("id", rec.ID()), zap.Error(r.Err()))
			} else {
				s.logger.Debug("record processed", zap.String("id", rec.ID()), zap.String("status", string(r.Status())))
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("load interrupted: %w", err)
	}
	return results, nil
}

func (s *Service) loadOne(ctx context.Context, rec knowledge.Record) dombatch.Result {
	if !s.force {
		current, err := s.repo.Current(ctx, rec)
		if err != nil {
			return dombatch.NewError(rec.ID(), fmt.Errorf("read stored copy: %w", err))
		}
		if current {
			return dombatch.NewSkipped(rec.ID())
		}
	}

	emb, err := s.embed.Embed(ctx, rec.Text())
	if err != nil {
		return dombatch.NewError(rec.ID(), fmt.Errorf("vectorize: %w", err))
	}
	if err := s.repo.Upsert(ctx, rec, emb.Embedding); err != nil {
		return dombatch.NewError(rec.ID(), fmt.Errorf("upsert: %w", err))
	}
	return dombatch.NewOK(rec.ID())
}
