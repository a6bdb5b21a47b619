// Package retrieval ranks knowledge matches and applies the partition fallback.
package retrieval

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/supportdesk/internal/domain"
	"github.com/kailas-cloud/supportdesk/internal/domain/knowledge"
	"github.com/kailas-cloud/supportdesk/internal/domain/match"
	"github.com/kailas-cloud/supportdesk/internal/metrics"
)

// Policy is the retrieval configuration.
type Policy struct {
	TopK     int
	MinScore float64 // <= 0 accepts every match
	Primary  knowledge.Type
	Fallback knowledge.Type // searched once when Primary yields nothing; empty disables
}

// Result is the outcome of a search with fallback.
type Result struct {
	Matches   []match.Match
	Partition knowledge.Type // partition that produced Matches
	FellBack  bool
	Searches  int
}

// Service runs ranked searches.
type Service struct {
	repo   Repository
	policy Policy
}

// New creates a retrieval service. TopK < 1 is raised to 1.
func New(repo Repository, policy Policy) *Service {
	if policy.TopK < 1 {
		policy.TopK = 1
	}
	return &Service{repo: repo, policy: policy}
}

// Policy returns the effective policy.
func (s *Service) Policy() Policy { return s.policy }

// Search queries one partition and ranks the hits: min-score filter, priority
// weighting, stable sort by weighted score, top-K cut.
func (s *Service) Search(
	ctx context.Context, vector []float32, topK int, partition knowledge.Type,
) ([]match.Match, error) {
	if topK < 1 {
		return nil, fmt.Errorf("topK must be >= 1, got %d: %w", topK, domain.ErrRetrieval)
	}

	label := partitionLabel(partition)
	raw, err := s.repo.Search(ctx, vector, topK, partition)
	if err != nil {
		metrics.RetrievalSearchesTotal.WithLabelValues(label, "error").Inc()
		return nil, fmt.Errorf("search %s: %w: %w", label, domain.ErrRetrieval, err)
	}

	ranked := match.Rank(raw, s.policy.MinScore, topK)
	outcome := "hit"
	if len(ranked) == 0 {
		outcome = "empty"
	}
	metrics.RetrievalSearchesTotal.WithLabelValues(label, outcome).Inc()
	return ranked, nil
}

// SearchWithFallback searches the primary partition and, only when that yields
// nothing, the fallback partition exactly once. Both empty is not an error.
func (s *Service) SearchWithFallback(ctx context.Context, vector []float32) (Result, error) {
	p := s.policy

	matches, err := s.Search(ctx, vector, p.TopK, p.Primary)
	if err != nil {
		return Result{Searches: 1}, err
	}
	res := Result{Matches: matches, Partition: p.Primary, Searches: 1}
	if len(matches) > 0 || p.Primary == "" || p.Fallback == "" || p.Fallback == p.Primary {
		return res, nil
	}

	metrics.RetrievalFallbacksTotal.Inc()
	matches, err = s.Search(ctx, vector, p.TopK, p.Fallback)
	if err != nil {
		return Result{Searches: 2, FellBack: true}, err
	}
	return Result{Matches: matches, Partition: p.Fallback, FellBack: true, Searches: 2}, nil
}

func partitionLabel(p knowledge.Type) string {
	if p == "" {
		return "all"
	}
	return string(p)
}
