package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportdesk/internal/domain"
	domaudit "github.com/kailas-cloud/supportdesk/internal/domain/audit"
	conv "github.com/kailas-cloud/supportdesk/internal/domain/conversation"
	"github.com/kailas-cloud/supportdesk/internal/logger"
	answeruc "github.com/kailas-cloud/supportdesk/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/supportdesk/internal/usecase/health"
)

// DefaultMaxBodyBytes caps a /chat request body.
const DefaultMaxBodyBytes = 1 << 20

// retryAfterSeconds is sent with 503 responses.
const retryAfterSeconds = 5

// Answerer runs one chat turn.
type Answerer interface {
	Answer(ctx context.Context, req *answeruc.Request) (answeruc.Result, error)
}

// HealthChecker aggregates dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the chat API.
type Server struct {
	answers       Answerer
	health        HealthChecker
	logger        *zap.Logger
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(answers Answerer, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		answers:      answers,
		health:       health,
		logger:       logger,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	// Timeouts wrap the stage sentinel too, so they must be matched first.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, "Missing query"),
		retryableHandler(domain.ErrUpstreamTimeout, "Upstream service timed out, please retry"),
	}
	return s
}

type historyEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Query     string         `json:"query"`
	PageURL   string         `json:"pageURL"`
	SessionID string         `json:"sessionId"`
	History   []historyEntry `json:"history"`
}

type chatResponse struct {
	Answer           string `json:"answer"`
	SessionID        string `json:"sessionId"`
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
	TotalTokens      int    `json:"totalTokens"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	history, err := historyFromRequest(req.History)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid history entry")
		return
	}

	res, err := s.answers.Answer(r.Context(), &answeruc.Request{
		Query:     req.Query,
		SessionID: req.SessionID,
		PageURL:   req.PageURL,
		ClientIP:  clientIP(r),
		UserAgent: userAgent(r),
		History:   history,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:           res.Answer,
		SessionID:        res.SessionID,
		PromptTokens:     res.Usage.PromptTokens,
		CompletionTokens: res.Usage.CompletionTokens,
		TotalTokens:      res.Usage.TotalTokens,
	})
}

// Preflight handles OPTIONS /chat with an empty 200.
func (s *Server) Preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// methodNotAllowed answers every unsupported method with a JSON 405.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/chat" {
		w.Header().Set("Allow", "POST, OPTIONS")
	}
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

func historyFromRequest(in []historyEntry) ([]conv.Message, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]conv.Message, len(in))
	for i, h := range in {
		role, err := conv.ParseRole(h.Role)
		if err != nil {
			return nil, err
		}
		out[i] = conv.Message{Role: role, Content: h.Content}
	}
	return out, nil
}

// clientIP returns the first X-Forwarded-For hop, else the peer host.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if r.RemoteAddr == "" {
		return domaudit.Unknown
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	if host == "" {
		return domaudit.Unknown
	}
	return host
}

func userAgent(r *http.Request) string {
	if ua := r.UserAgent(); ua != "" {
		return ua
	}
	return domaudit.Unknown
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, message string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, message)
		return true
	}
}

// retryableHandler maps sentinel to 503 with a Retry-After hint.
func retryableHandler(sentinel error, message string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		writeError(w, http.StatusServiceUnavailable, message)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("chat request failed", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal error")
}
