package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportdesk/internal/domain"
	"github.com/kailas-cloud/supportdesk/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterCompletionMetrics()
	os.Exit(m.Run())
}

type embeddingData struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// embeddingResponse mirrors the OpenAI-compatible embeddings response.
type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingData `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func embeddingServer(t *testing.T, vec []float32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		resp := embeddingResponse{Object: "list", Model: "test-model"}
		resp.Data = []embeddingData{{Object: "embedding", Embedding: vec}}
		resp.Usage.PromptTokens = 7
		resp.Usage.TotalTokens = 7

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestEmbedder(baseURL string, dims int) *Embedder {
	return NewEmbedder(&Config{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Model:      "test-model",
		Dimensions: dims,
		Logger:     zap.NewNop(),
	})
}

func TestEmbedder_Embed(t *testing.T) {
	want := []float32{0.1, 0.2, 0.3, 0.4}
	srv := embeddingServer(t, want)

	result, err := newTestEmbedder(srv.URL, 4).Embed(context.Background(), "What are your hours?")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(result.Embedding) != len(want) {
		t.Fatalf("expected %d dimensions, got %d", len(want), len(result.Embedding))
	}
	for i, v := range result.Embedding {
		if v != want[i] {
			t.Errorf("vec[%d] = %f, expected %f", i, v, want[i])
		}
	}
	if result.PromptTokens != 7 || result.TotalTokens != 7 {
		t.Errorf("usage = %d/%d, expected 7/7", result.PromptTokens, result.TotalTokens)
	}
}

func TestEmbedder_DimensionMismatch(t *testing.T) {
	srv := embeddingServer(t, []float32{0.1, 0.2})

	_, err := newTestEmbedder(srv.URL, 3).Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	var dimErr *domain.DimMismatchError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimMismatchError, got %v", err)
	}
	if dimErr.Got != 2 || dimErr.Expected != 3 {
		t.Errorf("dim error = %+v", dimErr)
	}
	if !strings.Contains(err.Error(), "got 2, expected 3") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestEmbedder_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(embeddingResponse{Object: "list"})
	}))
	defer srv.Close()

	if _, err := newTestEmbedder(srv.URL, 0).Embed(context.Background(), "hello"); !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

func TestEmbedder_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded", "type": "rate_limit_error"},
		})
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv.URL, 0).Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Error("429 must not be reported as a timeout")
	}
}

func TestEmbedder_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestEmbedder(srv.URL, 0).Embed(ctx, "hello")
	if !errors.Is(err, domain.ErrEmbedding) || !errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Fatalf("expected ErrEmbedding and ErrUpstreamTimeout, got %v", err)
	}
}

func TestExtractDetail(t *testing.T) {
	if got := extractDetail([]byte(`{"detail":"model not found"}`)); got != "model not found" {
		t.Errorf("got %q", got)
	}
	if got := extractDetail([]byte(`not json`)); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestEmbedder_HealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer srv.Close()

	if err := newTestEmbedder(srv.URL, 0).HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
