package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civicd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests, by method, route, and status code",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "civicd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds, by method and route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "civicd",
			Subsystem: "http",
			Name:      "active_requests",
			Help:      "Number of HTTP requests currently in flight",
		},
	)
)

// metricsMiddleware records request count, latency, and in-flight gauge.
// Labels use the registered route pattern, not the raw URI, so
// parameterized paths stay one time series.
func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		activeRequests.Inc()
		err := next(c)
		activeRequests.Dec()

		// Handler errors are rendered by Echo's error handler after this
		// middleware returns, so the response status is not committed yet.
		status := c.Response().Status
		if err != nil {
			status = http.StatusInternalServerError
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				status = httpErr.Code
			}
		}

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}

		method := c.Request().Method
		requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

// metricsHandler serves the default Prometheus registry, which carries
// the engine, strategy, and backend collectors alongside these.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}
