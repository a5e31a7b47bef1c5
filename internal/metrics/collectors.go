// internal/metrics/collectors.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for ModelCalls.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	// ModelCalls counts model calls by model and outcome.
	ModelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palm_model_calls_total",
		Help: "Total number of model calls by model and outcome.",
	}, []string{"model", "outcome"})

	// ModelCallDuration observes model call latency.
	ModelCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "palm_model_call_duration_seconds",
		Help:    "Latency of model calls in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"model"})
)

var (
	// HTTPRequestErrors counts retrieval API responses with status >= 400.
	HTTPRequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_request_errors_total",
		Help: "Total number of error responses",
	}, []string{"method", "endpoint", "status_code"})

	// HTTPRequestDuration observes retrieval API latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latency of retrieval API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status_code"})
)
