// Package match holds ranked retrieval hits.
package match

import (
	"sort"

	"github.com/kailas-cloud/supportdesk/internal/domain/knowledge"
)

// Match is a knowledge record hit with its raw and priority-weighted scores.
type Match struct {
	record   knowledge.Record
	rawScore float64
	weighted float64
}

// New creates a match. weightedScore = rawScore × record priority.
func New(record knowledge.Record, rawScore float64) Match {
	return Match{
		record:   record,
		rawScore: rawScore,
		weighted: rawScore * record.Priority(),
	}
}

// ID returns the record identifier.
func (m Match) ID() string { return m.record.ID() }

// Record returns the matched knowledge record.
func (m Match) Record() knowledge.Record { return m.record }

// RawScore returns the similarity reported by the index, in [0,1].
func (m Match) RawScore() float64 { return m.rawScore }

// WeightedScore returns rawScore × priority.
func (m Match) WeightedScore() float64 { return m.weighted }

// Rank drops matches below minScore (minScore <= 0 keeps everything), stable-sorts the
// rest by weighted score descending and truncates to topK. The input order is the index
// relevance order and breaks ties. The input slice is not modified.
func Rank(in []Match, minScore float64, topK int) []Match {
	out := make([]Match, 0, len(in))
	for _, m := range in {
		if minScore > 0 && m.rawScore < minScore {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].weighted > out[j].weighted
	})

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}
