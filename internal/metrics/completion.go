package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Chat completion Prometheus metrics.
var (
	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"model", "status"},
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_request_duration_seconds",
			Help:      "Chat completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"model"},
	)

	CompletionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_tokens_total",
			Help:      "Total chat completion tokens consumed",
		},
		[]string{"model", "type"}, // "prompt" / "completion"
	)
)

var complOnce sync.Once

// RegisterCompletionMetrics registers Prometheus completion metrics. Safe to call more than once.
func RegisterCompletionMetrics() {
	complOnce.Do(func() {
		prometheus.MustRegister(
			CompletionRequestsTotal,
			CompletionRequestDuration,
			CompletionTokensTotal,
		)
	})
}
