package monitor

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExposition = `# HELP civicd_engine_queries_total Total queries answered, by strategy kind and degraded flag
# TYPE civicd_engine_queries_total counter
civicd_engine_queries_total{degraded="false",kind="cache"} 40
civicd_engine_queries_total{degraded="false",kind="knowledge"} 30
civicd_engine_queries_total{degraded="true",kind="fallback"} 10
# TYPE civicd_engine_handle_duration_seconds histogram
civicd_engine_handle_duration_seconds_bucket{le="0.005"} 50
civicd_engine_handle_duration_seconds_bucket{le="0.01"} 70
civicd_engine_handle_duration_seconds_bucket{le="+Inf"} 80
civicd_engine_handle_duration_seconds_sum 1.5
civicd_engine_handle_duration_seconds_count 80
# TYPE civicd_http_active_requests gauge
civicd_http_active_requests 2
`

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8480")
	assert.Equal(t, "http://localhost:8480", client.baseURL)
	assert.NotNil(t, client.client)
}

func TestClient_Scrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics", r.URL.Path)
		w.Write([]byte(sampleExposition))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	sample, err := client.Scrape(context.Background())
	require.NoError(t, err)

	assert.False(t, sample.At.IsZero())
	assert.Equal(t, 80.0, sample.QueriesTotal)
	assert.Equal(t, 10.0, sample.DegradedTotal)
	assert.Equal(t, map[string]float64{"cache": 40, "knowledge": 30, "fallback": 10}, sample.QueriesByKind)

	assert.Equal(t, 80.0, sample.HandleCount)
	assert.InDelta(t, 1.5, sample.HandleSum, 1e-9)
	require.Len(t, sample.Buckets, 3)
	assert.Equal(t, Bucket{UpperBound: 0.005, Count: 50}, sample.Buckets[0])
	assert.True(t, math.IsInf(sample.Buckets[2].UpperBound, 1))
	assert.Equal(t, 80.0, sample.Buckets[2].Count)

	assert.Equal(t, 2.0, sample.ActiveRequests)
}

func TestClient_Scrape_MissingFamilies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# TYPE go_goroutines gauge\ngo_goroutines 12\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	sample, err := client.Scrape(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0.0, sample.QueriesTotal)
	assert.Empty(t, sample.QueriesByKind)
	assert.Empty(t, sample.Buckets)
	assert.Equal(t, 0.0, sample.ActiveRequests)
}

func TestClient_Scrape_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Scrape(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 500")
}

func TestClient_Scrape_BadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("== definitely not an exposition =="))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Scrape(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing metrics exposition")
}

func TestClient_Scrape_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.Scrape(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context deadline exceeded")
}

func TestClient_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"degraded","strategies":{"cache":true,"knowledge":true,"retrieval":false,"fallback":true}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	health, err := client.HealthCheck(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "degraded", health.Status)
	assert.True(t, health.Strategies["cache"])
	assert.False(t, health.Strategies["retrieval"])
}

func TestClient_HealthCheck_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{broken"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding health response")
}

func TestDerive(t *testing.T) {
	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	base := Sample{
		At:            t0,
		QueriesTotal:  80,
		DegradedTotal: 10,
		QueriesByKind: map[string]float64{"cache": 40, "knowledge": 30, "fallback": 10},
		HandleCount:   80,
		HandleSum:     1.5,
		Buckets: []Bucket{
			{UpperBound: 0.005, Count: 50},
			{UpperBound: 0.01, Count: 70},
			{UpperBound: math.Inf(1), Count: 80},
		},
		ActiveRequests: 2,
	}

	t.Run("first sample uses lifetime values and no rate", func(t *testing.T) {
		stats := Derive(Sample{}, base)

		assert.Equal(t, 0.0, stats.QueryRate)
		assert.Equal(t, 80.0, stats.TotalQueries)
		assert.Equal(t, 2.0, stats.ActiveRequests)
		assert.InDelta(t, 0.5, stats.Share["cache"], 1e-9)
		assert.InDelta(t, 0.375, stats.Share["knowledge"], 1e-9)
		assert.InDelta(t, 0.125, stats.Share["fallback"], 1e-9)
		assert.InDelta(t, 0.125, stats.FallbackShare, 1e-9)
		assert.InDelta(t, 0.125, stats.DegradedRate, 1e-9)
		// p95 of 80 samples lands past the last finite bound.
		assert.InDelta(t, 0.01, stats.LatencyP95, 1e-9)
	})

	t.Run("window between samples yields rates and window shares", func(t *testing.T) {
		cur := Sample{
			At:            t0.Add(10 * time.Second),
			QueriesTotal:  140,
			DegradedTotal: 22,
			QueriesByKind: map[string]float64{"cache": 70, "knowledge": 48, "fallback": 22},
			HandleCount:   140,
			HandleSum:     2.9,
			Buckets: []Bucket{
				{UpperBound: 0.005, Count: 80},
				{UpperBound: 0.01, Count: 128},
				{UpperBound: math.Inf(1), Count: 140},
			},
			ActiveRequests: 1,
		}

		stats := Derive(base, cur)

		assert.InDelta(t, 6.0, stats.QueryRate, 1e-9)
		assert.Equal(t, 140.0, stats.TotalQueries)
		assert.InDelta(t, 0.5, stats.Share["cache"], 1e-9)
		assert.InDelta(t, 0.3, stats.Share["knowledge"], 1e-9)
		assert.InDelta(t, 0.2, stats.Share["fallback"], 1e-9)
		assert.InDelta(t, 0.2, stats.DegradedRate, 1e-9)
		// Window deltas: 30 in le=0.005, 58 in le=0.01, 60 total.
		// Target 57 interpolates inside the second bucket.
		assert.InDelta(t, 0.005+0.005*27/28, stats.LatencyP95, 1e-9)
	})

	t.Run("counter reset falls back to lifetime values", func(t *testing.T) {
		cur := Sample{
			At:            t0.Add(10 * time.Second),
			QueriesTotal:  5,
			QueriesByKind: map[string]float64{"cache": 5},
			HandleCount:   5,
			Buckets: []Bucket{
				{UpperBound: 0.005, Count: 5},
				{UpperBound: math.Inf(1), Count: 5},
			},
		}

		stats := Derive(base, cur)

		assert.Equal(t, 0.0, stats.QueryRate)
		assert.Equal(t, 5.0, stats.TotalQueries)
		assert.InDelta(t, 1.0, stats.Share["cache"], 1e-9)
	})

	t.Run("idle window keeps lifetime shares", func(t *testing.T) {
		cur := base
		cur.At = t0.Add(10 * time.Second)

		stats := Derive(base, cur)

		assert.Equal(t, 0.0, stats.QueryRate)
		assert.InDelta(t, 0.5, stats.Share["cache"], 1e-9)
		assert.InDelta(t, 0.125, stats.DegradedRate, 1e-9)
	})

	t.Run("no queries yet", func(t *testing.T) {
		stats := Derive(Sample{}, Sample{At: t0})

		assert.Equal(t, 0.0, stats.QueryRate)
		assert.Equal(t, 0.0, stats.TotalQueries)
		assert.Empty(t, stats.Share)
		assert.Equal(t, 0.0, stats.LatencyP95)
	})
}

func TestBucketQuantile(t *testing.T) {
	t.Run("no observations", func(t *testing.T) {
		assert.Equal(t, 0.0, bucketQuantile(0.95, nil, 0))
		assert.Equal(t, 0.0, bucketQuantile(0.95, []Bucket{{UpperBound: 0.1, Count: 0}}, 0))
	})

	t.Run("interpolates within a bucket", func(t *testing.T) {
		buckets := []Bucket{
			{UpperBound: 0.1, Count: 80},
			{UpperBound: 0.2, Count: 100},
			{UpperBound: math.Inf(1), Count: 100},
		}
		// Median of 100 samples: 50/80 of the way through [0, 0.1].
		assert.InDelta(t, 0.0625, bucketQuantile(0.5, buckets, 100), 1e-9)
	})

	t.Run("exact bucket boundary", func(t *testing.T) {
		buckets := []Bucket{
			{UpperBound: 0.1, Count: 80},
			{UpperBound: 0.2, Count: 100},
			{UpperBound: math.Inf(1), Count: 100},
		}
		assert.InDelta(t, 0.1, bucketQuantile(0.8, buckets, 100), 1e-9)
	})

	t.Run("clamps to highest finite bound", func(t *testing.T) {
		buckets := []Bucket{
			{UpperBound: 0.1, Count: 50},
			{UpperBound: math.Inf(1), Count: 100},
		}
		assert.InDelta(t, 0.1, bucketQuantile(0.95, buckets, 100), 1e-9)
	})

	t.Run("only the infinite bucket", func(t *testing.T) {
		buckets := []Bucket{{UpperBound: math.Inf(1), Count: 10}}
		assert.Equal(t, 0.0, bucketQuantile(0.95, buckets, 10))
	})
}
