// Package answer drives one chat turn through embedding, retrieval, context
// assembly, completion, audit and escalation.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportdesk/internal/domain"
	domaudit "github.com/kailas-cloud/supportdesk/internal/domain/audit"
	conv "github.com/kailas-cloud/supportdesk/internal/domain/conversation"
	domesc "github.com/kailas-cloud/supportdesk/internal/domain/escalation"
	"github.com/kailas-cloud/supportdesk/internal/logger"
	"github.com/kailas-cloud/supportdesk/internal/metrics"
	"github.com/kailas-cloud/supportdesk/internal/usecase/escalation"
	"github.com/kailas-cloud/supportdesk/internal/usecase/retrieval"
)

// Timeouts bound each external call. Zero disables the bound for that stage.
type Timeouts struct {
	Embedding  time.Duration
	Retrieval  time.Duration
	Completion time.Duration
	Audit      time.Duration
	Notify     time.Duration
}

// Config tunes the orchestrator.
type Config struct {
	MaxContextTokens int
	Timeouts         Timeouts
}

// Deps are the collaborators of the orchestrator.
type Deps struct {
	Embedder     domain.Embedder
	Retriever    Retriever
	Assembler    Assembler
	Conversation Conversation
	Completer    domain.Completer
	Detector     escalation.Detector
	Auditor      Auditor  // optional
	Notifier     Notifier // optional
	Now          func() time.Time
}

// Request is one inbound chat turn.
type Request struct {
	Query     string
	SessionID string
	PageURL   string
	ClientIP  string
	UserAgent string
	History   []conv.Message
}

// Result is the outcome of a turn. State is Responded on success; on failure it
// is Failed and FailedAt names the stage that failed.
type Result struct {
	Answer     string
	SessionID  string
	Usage      domain.TokenUsage
	Confidence domaudit.Confidence
	Context    string
	Escalated  bool
	Notified   bool
	Audited    bool
	FellBack   bool
	State      State
	FailedAt   State
}

// Service is the answer orchestrator.
type Service struct {
	deps Deps
	cfg  Config
}

// New creates the orchestrator.
func New(deps Deps, cfg Config) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{deps: deps, cfg: cfg}
}

// Answer runs the pipeline. Stages run strictly in order and the first failure
// short-circuits the rest. Audit and escalation never fail the turn.
func (s *Service) Answer(ctx context.Context, req *Request) (Result, error) {
	log := logger.FromContext(ctx)
	res := Result{State: Received}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return s.fail(log, res, Received, fmt.Errorf("query is required: %w", domain.ErrValidation))
	}
	res.SessionID = s.deps.Conversation.SessionID(req.SessionID)
	ctx = logger.With(ctx, zap.String("session_id", res.SessionID))
	log = logger.FromContext(ctx)

	res.State = Embedding
	emb, err := stage(ctx, s.cfg.Timeouts.Embedding, domain.ErrEmbedding,
		func(c context.Context) (domain.EmbeddingResult, error) { return s.deps.Embedder.Embed(c, query) })
	if err != nil {
		return s.fail(log, res, Embedding, err)
	}

	res.State = Retrieving
	found, err := stage(ctx, s.cfg.Timeouts.Retrieval, domain.ErrRetrieval,
		func(c context.Context) (retrieval.Result, error) { return s.deps.Retriever.SearchWithFallback(c, emb.Embedding) })
	if err != nil {
		return s.fail(log, res, Retrieving, err)
	}
	res.FellBack = found.FellBack

	res.State = AssemblingContext
	res.Context = s.deps.Assembler.Assemble(found.Matches, s.cfg.MaxContextTokens)
	res.Confidence = domaudit.UnknownConfidence()
	if len(found.Matches) > 0 {
		res.Confidence = domaudit.KnownConfidence(found.Matches[0].RawScore())
	}

	res.State = Completing
	conversation := s.deps.Conversation
	messages := conversation.BuildMessages(conversation.Instructions(), res.Context, req.History, query)
	completion, err := stage(ctx, s.cfg.Timeouts.Completion, domain.ErrCompletion,
		func(c context.Context) (domain.CompletionResult, error) { return s.deps.Completer.Complete(c, messages) })
	if err != nil {
		return s.fail(log, res, Completing, err)
	}
	res.Answer = completion.Text
	res.Usage = completion.Usage

	// The answer is known; side effects must not depend on the client staying connected.
	detached := context.WithoutCancel(ctx)
	now := s.deps.Now()

	res.State = Logging
	if s.deps.Auditor != nil {
		actx, cancel := withTimeout(detached, s.cfg.Timeouts.Audit)
		res.Audited = s.deps.Auditor.Record(actx, &domaudit.Record{
			Timestamp:        now,
			SessionID:        res.SessionID,
			Question:         query,
			Answer:           res.Answer,
			Context:          res.Context,
			PageURL:          req.PageURL,
			ClientIP:         req.ClientIP,
			UserAgent:        req.UserAgent,
			PromptTokens:     res.Usage.PromptTokens,
			CompletionTokens: res.Usage.CompletionTokens,
			TotalTokens:      res.Usage.TotalTokens,
			Confidence:       res.Confidence,
		})
		cancel()
	}

	if s.deps.Detector != nil && s.deps.Detector.Detect(res.Answer) {
		res.State = Escalating
		res.Escalated = true
		metrics.EscalationsTotal.Inc()
		if s.deps.Notifier != nil && s.deps.Notifier.Configured() {
			nctx, cancel := withTimeout(detached, s.cfg.Timeouts.Notify)
			res.Notified = s.deps.Notifier.Notify(nctx, &domesc.Escalation{
				SessionID: res.SessionID,
				PageURL:   req.PageURL,
				ClientIP:  req.ClientIP,
				Question:  query,
				Answer:    res.Answer,
				History:   req.History,
				At:        now,
			})
			cancel()
		}
	}

	res.State = Responded
	metrics.ChatOutcomesTotal.WithLabelValues(string(Responded), "").Inc()
	log.Info("chat turn answered",
		zap.String("state", string(res.State)),
		zap.Bool("fell_back", res.FellBack),
		zap.String("confidence", res.Confidence.String()),
		zap.Bool("escalated", res.Escalated),
		zap.Bool("notified", res.Notified),
		zap.Bool("audited", res.Audited),
		zap.Int("total_tokens", res.Usage.TotalTokens),
	)
	return res, nil
}

func (s *Service) fail(log *zap.Logger, res Result, at State, err error) (Result, error) {
	res.State = Failed
	res.FailedAt = at
	metrics.ChatOutcomesTotal.WithLabelValues(string(Failed), string(at)).Inc()

	if errors.Is(err, domain.ErrValidation) {
		log.Debug("chat turn rejected", zap.Error(err))
	} else {
		log.Error("chat turn failed", zap.String("stage", string(at)), zap.Error(err))
	}
	return res, err
}

// stage runs fn under an optional timeout. Errors are guaranteed to wrap sentinel,
// and a blown stage deadline additionally wraps domain.ErrUpstreamTimeout.
func stage[T any](
	ctx context.Context, timeout time.Duration, sentinel error, fn func(context.Context) (T, error),
) (T, error) {
	sctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	out, err := fn(sctx)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, sentinel) {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}
	if !errors.Is(err, domain.ErrUpstreamTimeout) && errors.Is(sctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
	}
	return out, err
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
