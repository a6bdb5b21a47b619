package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a malformed chat request (missing or blank query).
	ErrValidation = errors.New("validation failed")
	// ErrEmbedding signals an embedding provider failure or a bad vector.
	ErrEmbedding = errors.New("embedding failed")
	// ErrVectorDimMismatch signals a vector whose length differs from the index dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrRetrieval signals a vector index query failure.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrCompletion signals a chat-completion provider failure.
	ErrCompletion = errors.New("completion failed")
	// ErrUpstreamTimeout signals that an external call exceeded its deadline. Retryable.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrAuditSink signals an audit log or notification failure. Never surfaced to callers.
	ErrAuditSink = errors.New("audit sink failed")
	// ErrInvalidRecord signals a knowledge record without renderable text.
	ErrInvalidRecord = errors.New("invalid knowledge record")
)

// DimMismatchError carries both sides of a dimension check.
type DimMismatchError struct {
	Got      int
	Expected int
}

func (e *DimMismatchError) Error() string {
	return fmt.Sprintf("%s: got %d, expected %d", ErrVectorDimMismatch.Error(), e.Got, e.Expected)
}

func (e *DimMismatchError) Unwrap() error { return ErrVectorDimMismatch }

// CheckDimensions returns a DimMismatchError when len(vec) != expected.
// expected <= 0 disables the check.
func CheckDimensions(vec []float32, expected int) error {
	if expected > 0 && len(vec) != expected {
		return &DimMismatchError{Got: len(vec), Expected: expected}
	}
	return nil
}
