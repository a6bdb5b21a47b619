package batch

import (
	"errors"
	"testing"
)

func TestNewOK(t *testing.T) {
	r := NewOK("faq-1")
	if r.ID() != "faq-1" || r.Status() != StatusOK || r.Err() != nil {
		t.Errorf("NewOK = %+v", r)
	}
}

func TestNewSkipped(t *testing.T) {
	r := NewSkipped("faq-2")
	if r.Status() != StatusSkipped || r.Err() != nil {
		t.Errorf("NewSkipped = %+v", r)
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("something failed")
	r := NewError("article-3", err)
	if r.ID() != "article-3" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusError)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize([]Result{
		NewOK("a"), NewOK("b"), NewSkipped("c"), NewError("d", errors.New("x")),
	})
	want := Summary{OK: 2, Skipped: 1, Failed: 1}
	if got != want {
		t.Errorf("Summarize = %+v, want %+v", got, want)
	}
}
