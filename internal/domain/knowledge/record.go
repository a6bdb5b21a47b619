// Package knowledge models the support knowledge base records stored in the vector index.
package knowledge

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/supportdesk/internal/domain"
)

// Type is the record partition: curated FAQ pairs or free-text articles.
type Type string

const (
	// FAQ is a curated question/answer pair.
	FAQ Type = "faq"
	// Article is a free-text knowledge snippet.
	Article Type = "article"
)

// Priorities used by ingestion. Higher priority biases ranking toward curated content.
const (
	DefaultPriority = 1.0
	CuratedPriority = 10.0
)

// ParseType validates a partition name.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case FAQ, Article:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown record type %q", s)
	}
}

// Record is a single knowledge base entry.
type Record struct {
	id       string
	typ      Type
	question string
	answer   string
	text     string
	priority float64
}

// NewFAQ creates a question/answer record. priority <= 0 falls back to CuratedPriority.
func NewFAQ(id, question, answer string, priority float64) (Record, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if id == "" {
		return Record{}, fmt.Errorf("%w: record id is required", domain.ErrInvalidRecord)
	}
	if question == "" || answer == "" {
		return Record{}, fmt.Errorf("%w: faq %s: question and answer are required", domain.ErrInvalidRecord, id)
	}
	if priority <= 0 {
		priority = CuratedPriority
	}
	if priority < DefaultPriority {
		return Record{}, fmt.Errorf("%w: faq %s: priority must be >= 1, got %g", domain.ErrInvalidRecord, id, priority)
	}
	r := Record{id: id, typ: FAQ, question: question, answer: answer, priority: priority}
	r.text = r.qa()
	return r, nil
}

// NewArticle creates a free-text record. priority <= 0 falls back to DefaultPriority.
func NewArticle(id, text string, priority float64) (Record, error) {
	text = strings.TrimSpace(text)
	if id == "" {
		return Record{}, fmt.Errorf("%w: record id is required", domain.ErrInvalidRecord)
	}
	if text == "" {
		return Record{}, fmt.Errorf("%w: article %s: text is required", domain.ErrInvalidRecord, id)
	}
	if priority <= 0 {
		priority = DefaultPriority
	}
	if priority < DefaultPriority {
		return Record{}, fmt.Errorf("%w: article %s: priority must be >= 1, got %g", domain.ErrInvalidRecord, id, priority)
	}
	return Record{id: id, typ: Article, text: text, priority: priority}, nil
}

// Reconstruct restores a record read back from the store without validation.
// A missing or non-positive priority is treated as DefaultPriority.
func Reconstruct(id string, typ Type, question, answer, text string, priority float64) Record {
	if priority <= 0 {
		priority = DefaultPriority
	}
	return Record{id: id, typ: typ, question: question, answer: answer, text: text, priority: priority}
}

// ID returns the stable record identifier.
func (r Record) ID() string { return r.id }

// Type returns the record partition.
func (r Record) Type() Type { return r.typ }

// Question returns the FAQ question (empty for articles).
func (r Record) Question() string { return r.question }

// Answer returns the FAQ answer (empty for articles).
func (r Record) Answer() string { return r.answer }

// Text returns the stored free text.
func (r Record) Text() string { return r.text }

// Priority returns the ranking weight, always >= 1.
func (r Record) Priority() float64 { return r.priority }

// SameContent reports whether o would embed and rank identically to r.
func (r Record) SameContent(o Record) bool {
	return r.typ == o.typ &&
		r.text == o.text &&
		r.question == o.question &&
		r.answer == o.answer &&
		r.priority == o.priority
}

// Render returns the context block for this record.
// FAQ renders as "Q: ...\nA: ...", articles as their text, unknown types as "".
func (r Record) Render() string {
	switch r.typ {
	case FAQ:
		if r.question != "" && r.answer != "" {
			return r.qa()
		}
		return r.text
	case Article:
		return r.text
	default:
		return ""
	}
}

func (r Record) qa() string {
	return "Q: " + r.question + "\nA: " + r.answer
}
