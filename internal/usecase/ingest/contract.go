package ingest

import (
	"context"

	"github.com/kailas-cloud/supportdesk/internal/domain/knowledge"
)

// Repository persists knowledge records with their embeddings.
type Repository interface {
	EnsureIndex(ctx context.Context) (bool, error)
	// Current reports whether rec is stored unchanged and embedded by the configured model.
	Current(ctx context.Context, rec knowledge.Record) (bool, error)
	Upsert(ctx context.Context, rec knowledge.Record, vector []float32) error
}
