package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportdesk/internal/db"
	"github.com/kailas-cloud/supportdesk/internal/domain"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

// memStore is an in-memory KV store that records the last TTL written.
type memStore struct {
	data    map[string][]byte
	lastTTL time.Duration
	getErr  error
	setErr  error
	sets    int
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.sets++
	m.lastTTL = ttl
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder, cfg Config) (*CachedEmbedder, *memStore) {
	t.Helper()
	ms := newMemStore()
	return New(inner, ms, cfg, nil, zap.NewNop()), ms
}
