package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kailas-cloud/supportdesk/internal/domain/knowledge"
)

// faqEntry is one row of the FAQ export: [{"fields": {"question", "answer"}}].
type faqEntry struct {
	Fields struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"fields"`
}

// articleEntry is one free-text article.
type articleEntry struct {
	ID       flexID  `json:"id"`
	Title    string  `json:"title"`
	Text     string  `json:"text"`
	Priority float64 `json:"priority"`
}

// flexID accepts an id written as a JSON string or number.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("article id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// Rejected is a source entry that could not become a record.
type Rejected struct {
	Index int
	Err   error
}

// ParseFAQs decodes the FAQ export. Entry i becomes record "faq-<i>" with the curated
// priority. Entries missing a question or answer are rejected, not fatal.
func ParseFAQs(r io.Reader) ([]knowledge.Record, []Rejected, error) {
	var entries []faqEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, nil, fmt.Errorf("decode faq file: %w", err)
	}

	records := make([]knowledge.Record, 0, len(entries))
	var rejected []Rejected
	for i, e := range entries {
		rec, err := knowledge.NewFAQ("faq-"+strconv.Itoa(i), e.Fields.Question, e.Fields.Answer, 0)
		if err != nil {
			rejected = append(rejected, Rejected{Index: i, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, rejected, nil
}

// ParseArticles decodes an article list. Entry ids become "article-<id>" (the index
// when id is absent); a title is kept as the first line of the text.
func ParseArticles(r io.Reader) ([]knowledge.Record, []Rejected, error) {
	var entries []articleEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, nil, fmt.Errorf("decode articles file: %w", err)
	}

	records := make([]knowledge.Record, 0, len(entries))
	var rejected []Rejected
	for i, e := range entries {
		id := strings.TrimSpace(string(e.ID))
		if id == "" {
			id = strconv.Itoa(i)
		}
		text := strings.TrimSpace(e.Text)
		if title := strings.TrimSpace(e.Title); title != "" && text != "" {
			text = title + "\n" + text
		}
		rec, err := knowledge.NewArticle("article-"+id, text, e.Priority)
		if err != nil {
			rejected = append(rejected, Rejected{Index: i, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, rejected, nil
}
