package retrieval

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/kailas-cloud/supportdesk/internal/domain"
	"github.com/kailas-cloud/supportdesk/internal/domain/knowledge"
	"github.com/kailas-cloud/supportdesk/internal/domain/match"
	"github.com/kailas-cloud/supportdesk/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type searchCall struct {
	topK      int
	partition knowledge.Type
}

type mockRepo struct {
	byPartition map[knowledge.Type][]match.Match
	err         error
	calls       []searchCall
}

func (m *mockRepo) Search(
	_ context.Context, _ []float32, topK int, partition knowledge.Type,
) ([]match.Match, error) {
	m.calls = append(m.calls, searchCall{topK: topK, partition: partition})
	if m.err != nil {
		return nil, m.err
	}
	return m.byPartition[partition], nil
}

func faq(t *testing.T, id string, raw float64) match.Match {
	t.Helper()
	r, err := knowledge.NewFAQ(id, "q "+id, "a "+id, 0)
	if err != nil {
		t.Fatal(err)
	}
	return match.New(r, raw)
}

func article(t *testing.T, id string, raw, priority float64) match.Match {
	t.Helper()
	r, err := knowledge.NewArticle(id, "text "+id, priority)
	if err != nil {
		t.Fatal(err)
	}
	return match.New(r, raw)
}

func defaultPolicy() Policy {
	return Policy{TopK: 3, MinScore: 0.5, Primary: knowledge.FAQ, Fallback: knowledge.Article}
}

// --- Tests ---

func TestSearch_WeightsAndSorts(t *testing.T) {
	repo := &mockRepo{byPartition: map[knowledge.Type][]match.Match{
		"": {
			article(t, "a1", 0.95, 1),
			faq(t, "f1", 0.6),
			article(t, "a2", 0.9, 2),
		},
	}}
	svc := New(repo, Policy{TopK: 3})

	got, err := svc.Search(context.Background(), []float32{1}, 3, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"f1", "a2", "a1"} // 6.0, 1.8, 0.95
	if len(got) != len(want) {
		t.Fatalf("got %d matches", len(got))
	}
	for i, id := range want {
		if got[i].ID() != id {
			t.Errorf("pos %d = %s, want %s", i, got[i].ID(), id)
		}
	}
}

func TestSearch_MinScoreDropsWeakMatches(t *testing.T) {
	repo := &mockRepo{byPartition: map[knowledge.Type][]match.Match{
		knowledge.FAQ: {faq(t, "f1", 0.49), faq(t, "f2", 0.5)},
	}}
	got, err := New(repo, defaultPolicy()).Search(context.Background(), []float32{1}, 3, knowledge.FAQ)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID() != "f2" {
		t.Errorf("got %v", got)
	}
}

func TestSearch_InvalidTopK(t *testing.T) {
	repo := &mockRepo{}
	_, err := New(repo, defaultPolicy()).Search(context.Background(), []float32{1}, 0, "")
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
	if len(repo.calls) != 0 {
		t.Error("repository should not be called")
	}
}

func TestSearch_RepoErrorWrapped(t *testing.T) {
	repo := &mockRepo{err: errors.New("conn reset")}
	_, err := New(repo, defaultPolicy()).Search(context.Background(), []float32{1}, 3, knowledge.FAQ)
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
}

func TestSearchWithFallback_PrimaryHit(t *testing.T) {
	repo := &mockRepo{byPartition: map[knowledge.Type][]match.Match{
		knowledge.FAQ: {faq(t, "f1", 0.9)},
	}}
	res, err := New(repo, defaultPolicy()).SearchWithFallback(context.Background(), []float32{1})
	if err != nil {
		t.Fatal(err)
	}
	if res.FellBack || res.Searches != 1 || len(repo.calls) != 1 {
		t.Errorf("unexpected fallback: %+v calls=%v", res, repo.calls)
	}
	if res.Partition != knowledge.FAQ || res.Matches[0].WeightedScore() != 9.0 {
		t.Errorf("result = %+v", res)
	}
}

func TestSearchWithFallback_ExactlyOneFallback(t *testing.T) {
	repo := &mockRepo{byPartition: map[knowledge.Type][]match.Match{
		knowledge.FAQ:     {faq(t, "weak", 0.1)},
		knowledge.Article: {article(t, "a1", 0.7, 1)},
	}}
	res, err := New(repo, defaultPolicy()).SearchWithFallback(context.Background(), []float32{1})
	if err != nil {
		t.Fatal(err)
	}
	if !res.FellBack || res.Searches != 2 || res.Partition != knowledge.Article {
		t.Errorf("result = %+v", res)
	}
	if len(repo.calls) != 2 || repo.calls[0].partition != knowledge.FAQ || repo.calls[1].partition != knowledge.Article {
		t.Errorf("calls = %v", repo.calls)
	}
}

func TestSearchWithFallback_BothEmpty(t *testing.T) {
	repo := &mockRepo{}
	res, err := New(repo, defaultPolicy()).SearchWithFallback(context.Background(), []float32{1})
	if err != nil {
		t.Fatalf("empty result must not be an error: %v", err)
	}
	if len(res.Matches) != 0 || len(repo.calls) != 2 {
		t.Errorf("matches=%d calls=%d", len(res.Matches), len(repo.calls))
	}
}

func TestSearchWithFallback_NoPrimaryPartition(t *testing.T) {
	repo := &mockRepo{}
	policy := defaultPolicy()
	policy.Primary = ""

	if _, err := New(repo, policy).SearchWithFallback(context.Background(), []float32{1}); err != nil {
		t.Fatal(err)
	}
	if len(repo.calls) != 1 {
		t.Errorf("unpartitioned search must not fall back, calls=%v", repo.calls)
	}
}

func TestSearchWithFallback_PrimaryError(t *testing.T) {
	repo := &mockRepo{err: errors.New("down")}
	_, err := New(repo, defaultPolicy()).SearchWithFallback(context.Background(), []float32{1})
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
	if len(repo.calls) != 1 {
		t.Errorf("error must not trigger fallback, calls=%v", repo.calls)
	}
}

func TestNew_ClampsTopK(t *testing.T) {
	if New(&mockRepo{}, Policy{}).Policy().TopK != 1 {
		t.Error("TopK should be raised to 1")
	}
}
