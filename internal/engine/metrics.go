package engine

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts answered queries by producing strategy and
	// degraded flag.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicd",
			Subsystem: "engine",
			Name:      "queries_total",
			Help:      "Total queries answered, by strategy kind and degraded flag",
		},
		[]string{"kind", "degraded"},
	)

	// AttemptsTotal counts strategy attempts by outcome.
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicd",
			Subsystem: "engine",
			Name:      "strategy_attempts_total",
			Help:      "Total strategy attempts, by strategy kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// HandleDuration tracks end-to-end Handle latency.
	HandleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "civicd",
			Subsystem: "engine",
			Name:      "handle_duration_seconds",
			Help:      "Duration of query handling in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func recordQuery(kind Kind, degraded bool) {
	QueriesTotal.WithLabelValues(kind.String(), strconv.FormatBool(degraded)).Inc()
}

func recordAttempt(kind Kind, outcome Outcome) {
	AttemptsTotal.WithLabelValues(kind.String(), string(outcome)).Inc()
}

func observeHandleDuration(d time.Duration) {
	HandleDuration.Observe(d.Seconds())
}
