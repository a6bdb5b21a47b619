// Package openai adapts OpenAI-compatible embedding and chat completion APIs.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportdesk/internal/domain"
	"github.com/kailas-cloud/supportdesk/internal/metrics"
)

// Compile-time checks.
var (
	_ domain.Embedder      = (*Embedder)(nil)
	_ domain.HealthChecker = (*Embedder)(nil)
)

// Config holds the provider settings shared by the embedder and the completer.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger

	// Embedding only. Dimensions > 0 is requested from the API and enforced on responses.
	Dimensions int

	// Completion only.
	Temperature float32
	MaxTokens   int
}

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Embedder turns text into vectors via the embeddings endpoint.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	logger     *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	return &Embedder{
		client:     newClient(cfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		logger:     loggerOrNop(cfg.Logger),
	}
}

// Embed implements domain.Embedder. A vector of the wrong length fails with
// domain.ErrEmbedding wrapping a *domain.DimMismatchError.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	model := string(e.model)
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(model, errorType(ctx, err)).Inc()
		return domain.EmbeddingResult{}, parseAPIError(ctx, "embedding", err, domain.ErrEmbedding)
	}

	if len(resp.Data) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(model, "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbedding)
	}

	vec := resp.Data[0].Embedding
	if err := domain.CheckDimensions(vec, e.dimensions); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(model, "dimension_mismatch").Inc()
		e.logger.Warn("embedding dimension mismatch",
			zap.String("model", model),
			zap.Int("got", len(vec)),
			zap.Int("expected", e.dimensions),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(model).Add(float64(resp.Usage.TotalTokens))
	}

	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func errorType(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "timeout"
	}
	return "api_error"
}
