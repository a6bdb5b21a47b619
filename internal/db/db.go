package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	StreamStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash read/write.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// KVStore provides plain string keys with expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// SetWithTTL writes value; ttl <= 0 stores it without expiry.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides vector similarity search over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// StreamEntry is a single stream record: ordered field/value pairs.
type StreamEntry struct {
	Fields []string
	Values []string
}

// StreamStore appends to capped streams.
type StreamStore interface {
	// XAdd appends an entry and returns its server-assigned ID.
	// maxLen > 0 trims the stream approximately to that length.
	XAdd(ctx context.Context, key string, maxLen int64, entry StreamEntry) (string, error)
}
