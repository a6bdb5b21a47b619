package answer

import (
	"context"

	domaudit "github.com/kailas-cloud/supportdesk/internal/domain/audit"
	conv "github.com/kailas-cloud/supportdesk/internal/domain/conversation"
	domesc "github.com/kailas-cloud/supportdesk/internal/domain/escalation"
	"github.com/kailas-cloud/supportdesk/internal/domain/match"
	"github.com/kailas-cloud/supportdesk/internal/usecase/retrieval"
)

// Retriever finds ranked context with the partition fallback applied.
type Retriever interface {
	SearchWithFallback(ctx context.Context, vector []float32) (retrieval.Result, error)
}

// Assembler renders matches into a bounded context string.
type Assembler interface {
	Assemble(matches []match.Match, maxApproxTokens int) string
}

// Conversation owns session ids and message ordering.
type Conversation interface {
	SessionID(supplied string) string
	Instructions() string
	BuildMessages(instructions, context string, history []conv.Message, query string) []conv.Message
}

// Auditor records one row per turn, best-effort.
type Auditor interface {
	Record(ctx context.Context, rec *domaudit.Record) bool
}

// Notifier sends escalation notifications, best-effort.
type Notifier interface {
	Configured() bool
	Notify(ctx context.Context, e *domesc.Escalation) bool
}
