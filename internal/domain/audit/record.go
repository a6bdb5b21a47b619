// Package audit defines the per-request audit row.
package audit

import (
	"strconv"
	"time"
)

// Columns is the ordered audit schema, one column per Row() cell.
var Columns = []string{
	"timestamp",
	"sessionId",
	"question",
	"answer",
	"context",
	"pageURL",
	"clientIP",
	"userAgent",
	"promptTokens",
	"completionTokens",
	"totalTokens",
	"confidenceScore",
}

// Unknown is the placeholder for missing client metadata.
const Unknown = "Unknown"

// Confidence is the top match score, or unknown when nothing was retrieved.
type Confidence struct {
	score float64
	known bool
}

// KnownConfidence wraps a retrieved score.
func KnownConfidence(score float64) Confidence {
	return Confidence{score: score, known: true}
}

// UnknownConfidence marks a turn answered without retrieved context.
func UnknownConfidence() Confidence { return Confidence{} }

// Score returns the score and whether it is known.
func (c Confidence) Score() (float64, bool) { return c.score, c.known }

// String renders the score for the log; unknown renders as an empty cell.
func (c Confidence) String() string {
	if !c.known {
		return ""
	}
	return strconv.FormatFloat(c.score, 'f', -1, 64)
}

// Record is one denormalized audit row. One per chat request.
type Record struct {
	Timestamp        time.Time
	SessionID        string
	Question         string
	Answer           string
	Context          string
	PageURL          string
	ClientIP         string
	UserAgent        string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Confidence       Confidence
}

// Row renders the record in Columns order.
func (r *Record) Row() []string {
	return []string{
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		r.SessionID,
		r.Question,
		r.Answer,
		r.Context,
		r.PageURL,
		orUnknown(r.ClientIP),
		orUnknown(r.UserAgent),
		strconv.Itoa(r.PromptTokens),
		strconv.Itoa(r.CompletionTokens),
		strconv.Itoa(r.TotalTokens),
		r.Confidence.String(),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
