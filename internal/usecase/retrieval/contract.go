package retrieval

import (
	"context"

	"github.com/kailas-cloud/supportdesk/internal/domain/knowledge"
	"github.com/kailas-cloud/supportdesk/internal/domain/match"
)

// Repository runs nearest-neighbour queries against the knowledge index.
// An empty partition searches every record.
type Repository interface {
	Search(ctx context.Context, vector []float32, topK int, partition knowledge.Type) ([]match.Match, error)
}
