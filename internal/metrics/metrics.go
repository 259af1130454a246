// Package metrics exposes prometheus collectors for model calls and HTTP traffic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knoweat_model_calls_total",
			Help: "Total number of calls to the vision/chat model, by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "knoweat_model_call_duration_seconds",
			Help:    "Latency of model calls",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 40, 60, 120},
		},
		[]string{"operation"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knoweat_analysis_cache_lookups_total",
			Help: "Analysis cache lookups, by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	DishVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knoweat_dish_verdicts_total",
			Help: "Dish verdicts returned to clients, by severity",
		},
		[]string{"severity"},
	)

	HTTPRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "knoweat_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveModelCall records one model call. status is "ok" or an error kind.
func ObserveModelCall(operation, status string, elapsed time.Duration) {
	ModelCalls.WithLabelValues(operation, status).Inc()
	ModelCallDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
