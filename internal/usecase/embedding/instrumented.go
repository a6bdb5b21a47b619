// Package embedding decorates the embedding provider with input guards and logging.
package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportdesk/internal/domain"
)

// InstrumentedEmbedder rejects blank input and logs every call.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner  domain.Embedder
	model  string
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder.
func NewInstrumentedEmbedder(inner domain.Embedder, model string, logger *zap.Logger) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{inner: inner, model: model, logger: logger}
}

// Embed delegates to the inner embedder. Blank text fails with domain.ErrEmbedding
// without calling the provider.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.EmbeddingResult{}, fmt.Errorf("embed blank text: %w", domain.ErrEmbedding)
	}

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}
