package domain

import (
	"context"

	"github.com/kailas-cloud/supportdesk/internal/domain/conversation"
)

// Completer is the chat-completion contract.
type Completer interface {
	Complete(ctx context.Context, messages []conversation.Message) (CompletionResult, error)
}

// TokenUsage is the token accounting reported by the completion provider.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionResult is the model answer plus usage.
type CompletionResult struct {
	Text  string
	Usage TokenUsage
}
