package match

import (
	"math"
	"testing"

	"github.com/kailas-cloud/supportdesk/internal/domain/knowledge"
)

func rec(id string, typ knowledge.Type, priority float64) knowledge.Record {
	return knowledge.Reconstruct(id, typ, "q", "a", "text", priority)
}

func ids(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID()
	}
	return out
}

func TestNew_WeightedScore(t *testing.T) {
	m := New(rec("faq-0", knowledge.FAQ, 10), 0.9)
	if math.Abs(m.WeightedScore()-9.0) > 1e-9 {
		t.Errorf("WeightedScore() = %f, want 9.0", m.WeightedScore())
	}
	if m.RawScore() != 0.9 {
		t.Errorf("RawScore() = %f", m.RawScore())
	}
	if m.ID() != "faq-0" {
		t.Errorf("ID() = %q", m.ID())
	}
}

func TestNew_DefaultPriority(t *testing.T) {
	m := New(rec("a", knowledge.Article, 0), 0.7)
	if m.WeightedScore() != 0.7 {
		t.Errorf("WeightedScore() = %f, want 0.7", m.WeightedScore())
	}
}

func TestRank_SortsByWeightedScore(t *testing.T) {
	in := []Match{
		New(rec("article-1", knowledge.Article, 1), 0.95),
		New(rec("faq-1", knowledge.FAQ, 10), 0.5),
		New(rec("article-2", knowledge.Article, 2), 0.6),
	}
	got := ids(Rank(in, 0, 10))
	want := []string{"faq-1", "article-2", "article-1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Rank order = %v, want %v", got, want)
		}
	}
}

func TestRank_MinScoreFilter(t *testing.T) {
	in := []Match{
		New(rec("a", knowledge.Article, 1), 0.9),
		New(rec("b", knowledge.Article, 1), 0.3),
	}
	got := Rank(in, 0.5, 10)
	if len(got) != 1 || got[0].ID() != "a" {
		t.Errorf("Rank = %v, want [a]", ids(got))
	}

	all := Rank(in, 0, 10)
	if len(all) != 2 {
		t.Errorf("disabled filter kept %d, want 2", len(all))
	}
}

func TestRank_TruncatesToTopK(t *testing.T) {
	in := []Match{
		New(rec("a", knowledge.Article, 1), 0.9),
		New(rec("b", knowledge.Article, 1), 0.8),
		New(rec("c", knowledge.Article, 1), 0.7),
	}
	got := Rank(in, 0, 2)
	if len(got) != 2 || got[0].ID() != "a" || got[1].ID() != "b" {
		t.Errorf("Rank = %v, want [a b]", ids(got))
	}
}

func TestRank_StableTieBreak(t *testing.T) {
	in := []Match{
		New(rec("first", knowledge.Article, 2), 0.4),
		New(rec("second", knowledge.Article, 1), 0.8),
		New(rec("third", knowledge.Article, 4), 0.2),
	}
	want := []string{"first", "second", "third"}

	for run := 0; run < 5; run++ {
		got := ids(Rank(in, 0, 10))
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("run %d: Rank = %v, want %v", run, got, want)
			}
		}
	}
}

func TestRank_Idempotent(t *testing.T) {
	in := []Match{
		New(rec("a", knowledge.Article, 1), 0.6),
		New(rec("b", knowledge.FAQ, 10), 0.2),
		New(rec("c", knowledge.Article, 3), 0.7),
	}
	once := Rank(in, 0, 10)
	twice := Rank(once, 0, 10)
	for i := range once {
		if once[i].ID() != twice[i].ID() {
			t.Fatalf("re-ranking changed order: %v vs %v", ids(once), ids(twice))
		}
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	in := []Match{
		New(rec("low", knowledge.Article, 1), 0.1),
		New(rec("high", knowledge.Article, 1), 0.9),
	}
	_ = Rank(in, 0, 10)
	if in[0].ID() != "low" {
		t.Error("input slice was reordered")
	}
}

func TestRank_Empty(t *testing.T) {
	if got := Rank(nil, 0.5, 3); len(got) != 0 {
		t.Errorf("Rank(nil) = %v", ids(got))
	}
}
