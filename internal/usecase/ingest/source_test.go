package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/supportdesk/internal/domain"
	"github.com/kailas-cloud/supportdesk/internal/domain/knowledge"
)

func TestParseFAQs(t *testing.T) {
	in := `[
		{"fields": {"question": "What are your hours?", "answer": "9 to 5"}},
		{"fields": {"question": "No answer"}},
		{"other": true},
		{"fields": {"question": "Refunds?", "answer": "Within 30 days"}}
	]`

	records, rejected, err := ParseFAQs(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].ID() != "faq-0" || records[1].ID() != "faq-3" {
		t.Errorf("ids = %s, %s; want source indexes", records[0].ID(), records[1].ID())
	}
	if records[0].Type() != knowledge.FAQ || records[0].Priority() != knowledge.CuratedPriority {
		t.Errorf("record = %+v", records[0])
	}
	if len(rejected) != 2 || rejected[0].Index != 1 || rejected[1].Index != 2 {
		t.Errorf("rejected = %+v", rejected)
	}
	if !errors.Is(rejected[0].Err, domain.ErrInvalidRecord) {
		t.Errorf("rejection err = %v", rejected[0].Err)
	}
}

func TestParseFAQs_BadJSON(t *testing.T) {
	if _, _, err := ParseFAQs(strings.NewReader(`{"not": "an array"}`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestParseArticles(t *testing.T) {
	in := `[
		{"id": 7, "title": "Shipping", "text": "Orders ship in 3 days.", "priority": 2},
		{"id": "returns-policy", "text": "Returns within 30 days."},
		{"text": "No id here."},
		{"id": 9, "text": "   "}
	]`

	records, rejected, err := ParseArticles(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[0].ID() != "article-7" || records[0].Text() != "Shipping\nOrders ship in 3 days." || records[0].Priority() != 2 {
		t.Errorf("record 0 = id %s text %q prio %g", records[0].ID(), records[0].Text(), records[0].Priority())
	}
	if records[1].ID() != "article-returns-policy" || records[1].Priority() != knowledge.DefaultPriority {
		t.Errorf("record 1 = %s prio %g", records[1].ID(), records[1].Priority())
	}
	if records[2].ID() != "article-2" {
		t.Errorf("record 2 id = %s, want index fallback", records[2].ID())
	}
	if len(rejected) != 1 || rejected[0].Index != 3 {
		t.Errorf("rejected = %+v", rejected)
	}
}
