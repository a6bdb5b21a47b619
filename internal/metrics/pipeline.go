package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Answer pipeline Prometheus metrics.
var (
	RetrievalSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_searches_total",
			Help:      "Knowledge searches by partition and outcome",
		},
		[]string{"partition", "outcome"}, // outcome: "hit" / "empty" / "error"
	)

	RetrievalFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_fallbacks_total",
			Help:      "Searches that fell back to the secondary partition",
		},
	)

	ChatOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_outcomes_total",
			Help:      "Chat requests by terminal state and failed stage",
		},
		[]string{"state", "stage"},
	)

	EscalationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Answers that pointed the user at human support",
		},
	)

	SinkFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Swallowed audit log and notification failures",
		},
		[]string{"sink"}, // "audit" / "notify"
	)
)

var pipelineOnce sync.Once

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Safe to call more than once.
func RegisterPipelineMetrics() {
	pipelineOnce.Do(func() {
		prometheus.MustRegister(
			RetrievalSearchesTotal,
			RetrievalFallbacksTotal,
			ChatOutcomesTotal,
			EscalationsTotal,
			SinkFailuresTotal,
		)
	})
}
