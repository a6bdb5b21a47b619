package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportdesk/internal/domain"
	"github.com/kailas-cloud/supportdesk/internal/domain/conversation"
	"github.com/kailas-cloud/supportdesk/internal/metrics"
)

var _ domain.Completer = (*Completer)(nil)

// Completer answers a message sequence via the chat completions endpoint.
type Completer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewCompleter creates an OpenAI-compatible chat completion provider.
func NewCompleter(cfg *Config) *Completer {
	return &Completer{
		client:      newClient(cfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      loggerOrNop(cfg.Logger),
	}
}

// Complete implements domain.Completer. Failures wrap domain.ErrCompletion.
func (c *Completer) Complete(
	ctx context.Context, messages []conversation.Message,
) (domain.CompletionResult, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toChatMessages(messages),
		Temperature: c.temperature,
	}
	if c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return domain.CompletionResult{}, parseAPIError(ctx, "completion", err, domain.ErrCompletion)
	}
	if len(resp.Choices) == 0 {
		metrics.CompletionRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return domain.CompletionResult{}, fmt.Errorf("completion returned no choices: %w", domain.ErrCompletion)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(c.model, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())
	metrics.CompletionTokensTotal.WithLabelValues(c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.CompletionTokensTotal.WithLabelValues(c.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	c.logger.Debug("completion finished",
		zap.String("model", c.model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Duration("duration", duration),
	)

	return domain.CompletionResult{
		Text: resp.Choices[0].Message.Content,
		Usage: domain.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// HealthCheck verifies the configured chat model is reachable.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.GetModel(ctx, c.model); err != nil {
		return fmt.Errorf("get model %s: %w", c.model, err)
	}
	return nil
}

func toChatMessages(in []conversation.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(in))
	for i, m := range in {
		out[i] = openai.ChatCompletionMessage{Role: chatRole(m.Role), Content: m.Content}
	}
	return out
}

func chatRole(r conversation.Role) string {
	switch r {
	case conversation.RoleSystem:
		return openai.ChatMessageRoleSystem
	case conversation.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
