// Package auditlog appends audit rows to a capped Valkey/Redis stream.
package auditlog

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/supportdesk/internal/db"
	"github.com/kailas-cloud/supportdesk/internal/domain"
	"github.com/kailas-cloud/supportdesk/internal/domain/audit"
)

// DefaultMaxLen caps the stream when no length is configured.
const DefaultMaxLen int64 = 100_000

type store interface {
	XAdd(ctx context.Context, key string, maxLen int64, entry db.StreamEntry) (string, error)
}

// Stream writes one stream entry per audit record, fields named after audit.Columns.
type Stream struct {
	store  store
	key    string
	maxLen int64
}

// NewStream creates a stream sink. An empty key defaults under domain.KeyPrefix.
func NewStream(s store, key string, maxLen int64) *Stream {
	if key == "" {
		key = domain.KeyPrefix + "audit"
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &Stream{store: s, key: key, maxLen: maxLen}
}

// Append adds the record to the stream.
func (s *Stream) Append(ctx context.Context, rec *audit.Record) error {
	_, err := s.store.XAdd(ctx, s.key, s.maxLen, db.StreamEntry{
		Fields: audit.Columns,
		Values: rec.Row(),
	})
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.key, err)
	}
	return nil
}
