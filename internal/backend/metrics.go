package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts completion calls by outcome status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicd",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Completion requests by status (ok, error, timeout, empty).",
		},
		[]string{"status"},
	)

	// RequestDuration observes completion latency in seconds.
	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "civicd",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Completion request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func recordRequest(status string, elapsed time.Duration) {
	RequestsTotal.WithLabelValues(status).Inc()
	RequestDuration.Observe(elapsed.Seconds())
}
