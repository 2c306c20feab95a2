// Package metrics provides Prometheus metrics for the API server and the
// extraction pipeline:
//   - http_request_total: counter with method, path, and status labels
//   - http_request_duration_seconds: histogram with method and path labels
//   - provider_attempt_total: counter per provider/operation/outcome
//   - extraction_processed_total: counter per pipeline status
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	ProviderAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_attempt_total",
			Help: "OCR and narrative provider attempts by outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)

	ExtractionsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_processed_total",
			Help: "Extraction pipeline runs by final status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(ProviderAttempts)
	prometheus.MustRegister(ExtractionsProcessed)
}
