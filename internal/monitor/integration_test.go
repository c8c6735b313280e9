package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicmind/civicd/internal/engine"
)

// newFakeDaemon serves the real Prometheus registry (the engine's
// collectors included) plus a static health report, so the scrape
// client is exercised against the daemon's actual exposition format.
func newFakeDaemon(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","strategies":{"cache":true,"knowledge":true,"retrieval":true,"fallback":true}}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestScrapeAgainstRealExposition(t *testing.T) {
	server := newFakeDaemon(t)
	client := NewClient(server.URL)
	ctx := context.Background()

	before, err := client.Scrape(ctx)
	require.NoError(t, err)

	engine.QueriesTotal.WithLabelValues("cache", "false").Add(6)
	engine.QueriesTotal.WithLabelValues("fallback", "true").Add(2)
	for i := 0; i < 9; i++ {
		engine.HandleDuration.Observe(0.004)
	}
	engine.HandleDuration.Observe(0.03)

	after, err := client.Scrape(ctx)
	require.NoError(t, err)

	// Cumulative counters move by exactly what was recorded between
	// the two scrapes, whatever earlier tests left behind.
	assert.InDelta(t, 8.0, after.QueriesTotal-before.QueriesTotal, 1e-9)
	assert.InDelta(t, 6.0, after.QueriesByKind["cache"]-before.QueriesByKind["cache"], 1e-9)
	assert.InDelta(t, 2.0, after.DegradedTotal-before.DegradedTotal, 1e-9)
	assert.InDelta(t, 10.0, after.HandleCount-before.HandleCount, 1e-9)
	require.NotEmpty(t, after.Buckets)

	stats := Derive(before, after)
	assert.Greater(t, stats.QueryRate, 0.0)
	assert.InDelta(t, 0.75, stats.Share["cache"], 1e-9)
	assert.InDelta(t, 0.25, stats.Share["fallback"], 1e-9)
	assert.InDelta(t, 0.25, stats.DegradedRate, 1e-9)
	// Nine of ten observations land in le=0.025; the p95 target of 9.5
	// interpolates halfway through the (0.025, 0.05] bucket.
	assert.InDelta(t, 0.0375, stats.LatencyP95, 1e-9)
}

func TestDashboardAgainstFakeDaemon(t *testing.T) {
	server := newFakeDaemon(t)
	model := NewModel(server.URL, time.Second)

	msg := fetchSample(model.client)()
	sample, ok := msg.(sampleMsg)
	require.True(t, ok, "expected a sample, got %T: %v", msg, msg)
	assert.Equal(t, "ok", sample.health.Status)

	updatedModel, _ := model.Update(msg)
	m := updatedModel.(Model)
	require.Nil(t, m.err)

	view := m.View()
	assert.Contains(t, view, "civicd Monitor")
	assert.Contains(t, view, "SERVING")
	assert.Contains(t, view, "Strategies")
	assert.Contains(t, view, "[q]")
}

func TestDashboardAgainstUnreachableDaemon(t *testing.T) {
	model := NewModel("http://127.0.0.1:1", time.Second)

	msg := fetchSample(model.client)()
	_, isErr := msg.(errMsg)
	require.True(t, isErr, "expected an error, got %T", msg)

	updatedModel, _ := model.Update(msg)
	m := updatedModel.(Model)
	require.NotNil(t, m.err)
	assert.Contains(t, m.View(), "Cannot reach civicd")
}
