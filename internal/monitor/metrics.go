package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
)

// Metric families scraped from the daemon. The engine counters carry
// kind and degraded labels; the duration metric is a histogram.
const (
	familyQueries  = "civicd_engine_queries_total"
	familyDuration = "civicd_engine_handle_duration_seconds"
	familyActive   = "civicd_http_active_requests"
)

// Client scrapes a running daemon's metrics and health endpoints.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a client for the daemon at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

// Bucket is one cumulative histogram bucket.
type Bucket struct {
	UpperBound float64
	Count      float64
}

// Sample is one scrape of the daemon's metrics endpoint. Counter values
// are cumulative since process start; Derive turns two samples into
// rates.
type Sample struct {
	At             time.Time
	QueriesTotal   float64
	DegradedTotal  float64
	QueriesByKind  map[string]float64
	HandleCount    float64
	HandleSum      float64
	Buckets        []Bucket
	ActiveRequests float64
}

// Health is the daemon's health report.
type Health struct {
	Status     string          `json:"status"`
	Strategies map[string]bool `json:"strategies"`
}

// Scrape fetches and parses the metrics endpoint. Families the daemon
// has not emitted yet (no queries answered) read as zero.
func (c *Client) Scrape(ctx context.Context) (Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/metrics", nil)
	if err != nil {
		return Sample{}, fmt.Errorf("building metrics request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Sample{}, fmt.Errorf("fetching metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Sample{}, fmt.Errorf("metrics endpoint returned status code %d", resp.StatusCode)
	}

	parser := expfmt.NewTextParser(model.UTF8Validation)
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return Sample{}, fmt.Errorf("parsing metrics exposition: %w", err)
	}

	s := Sample{
		At:            time.Now(),
		QueriesByKind: make(map[string]float64),
	}

	if fam, ok := families[familyQueries]; ok {
		for _, m := range fam.GetMetric() {
			v := m.GetCounter().GetValue()

			var kind string
			degraded := false
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "kind":
					kind = lp.GetValue()
				case "degraded":
					degraded = lp.GetValue() == "true"
				}
			}

			s.QueriesByKind[kind] += v
			s.QueriesTotal += v
			if degraded {
				s.DegradedTotal += v
			}
		}
	}

	if fam, ok := families[familyDuration]; ok && len(fam.GetMetric()) > 0 {
		h := fam.GetMetric()[0].GetHistogram()
		s.HandleCount = float64(h.GetSampleCount())
		s.HandleSum = h.GetSampleSum()
		for _, b := range h.GetBucket() {
			s.Buckets = append(s.Buckets, Bucket{
				UpperBound: b.GetUpperBound(),
				Count:      float64(b.GetCumulativeCount()),
			})
		}
		sort.Slice(s.Buckets, func(i, j int) bool {
			return s.Buckets[i].UpperBound < s.Buckets[j].UpperBound
		})
	}

	if fam, ok := families[familyActive]; ok && len(fam.GetMetric()) > 0 {
		s.ActiveRequests = fam.GetMetric()[0].GetGauge().GetValue()
	}

	return s, nil
}

// HealthCheck fetches the daemon's health report.
func (c *Client) HealthCheck(ctx context.Context) (Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return Health{}, fmt.Errorf("building health request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("fetching health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Health{}, fmt.Errorf("health endpoint returned status code %d", resp.StatusCode)
	}

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("decoding health response: %w", err)
	}

	return h, nil
}

// Stats is what the dashboard displays for one refresh.
type Stats struct {
	// QueryRate is answered queries per second over the sample window,
	// zero on the first sample.
	QueryRate float64
	// LatencyP95 is the 95th percentile handle latency in seconds,
	// computed over the window when it saw traffic, lifetime otherwise.
	LatencyP95 float64
	// Share maps strategy kind to its fraction of answered queries.
	Share map[string]float64
	// DegradedRate is the fraction of answers marked degraded.
	DegradedRate   float64
	FallbackShare  float64
	TotalQueries   float64
	ActiveRequests float64
}

// Derive computes display stats from two consecutive samples. A zero
// prev (first scrape) or a counter reset (daemon restart) yields
// lifetime distributions and a zero rate.
func Derive(prev, cur Sample) Stats {
	s := Stats{
		TotalQueries:   cur.QueriesTotal,
		ActiveRequests: cur.ActiveRequests,
	}

	windowed := !prev.At.IsZero() && cur.At.After(prev.At) && cur.QueriesTotal >= prev.QueriesTotal
	if windowed {
		window := cur.At.Sub(prev.At).Seconds()
		s.QueryRate = (cur.QueriesTotal - prev.QueriesTotal) / window
	}

	queries := cur.QueriesTotal
	degraded := cur.DegradedTotal
	byKind := cur.QueriesByKind
	buckets := cur.Buckets
	handleCount := cur.HandleCount

	// Distributions come from the window when it saw traffic, so the
	// dashboard tracks current behavior; an idle window falls back to
	// lifetime values instead of going blank.
	if windowed && cur.QueriesTotal > prev.QueriesTotal {
		queries = cur.QueriesTotal - prev.QueriesTotal
		degraded = cur.DegradedTotal - prev.DegradedTotal
		byKind = subtractByKind(cur.QueriesByKind, prev.QueriesByKind)
		buckets = subtractBuckets(cur.Buckets, prev.Buckets)
		handleCount = cur.HandleCount - prev.HandleCount
	}

	if queries > 0 {
		s.DegradedRate = degraded / queries
		s.Share = make(map[string]float64, len(byKind))
		for kind, n := range byKind {
			s.Share[kind] = n / queries
		}
		s.FallbackShare = s.Share["fallback"]
	}

	s.LatencyP95 = bucketQuantile(0.95, buckets, handleCount)
	return s
}

func subtractByKind(cur, prev map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(cur))
	for kind, v := range cur {
		out[kind] = v - prev[kind]
	}
	return out
}

// subtractBuckets assumes both samples expose the same bucket layout,
// which holds within one process lifetime. A layout change means a
// restart, and restarts never reach here (the counter reset check in
// Derive falls back to lifetime values first).
func subtractBuckets(cur, prev []Bucket) []Bucket {
	if len(cur) != len(prev) {
		return cur
	}
	out := make([]Bucket, len(cur))
	for i, b := range cur {
		out[i] = Bucket{UpperBound: b.UpperBound, Count: b.Count - prev[i].Count}
	}
	return out
}

// bucketQuantile interpolates quantile q from cumulative histogram
// buckets, the same way PromQL's histogram_quantile does. Values past
// the highest finite bound clamp to that bound.
func bucketQuantile(q float64, buckets []Bucket, count float64) float64 {
	if count <= 0 || len(buckets) == 0 {
		return 0
	}

	target := q * count
	prevBound := 0.0
	prevCount := 0.0
	for _, b := range buckets {
		if b.Count >= target {
			if math.IsInf(b.UpperBound, 1) {
				return prevBound
			}
			if b.Count == prevCount {
				return b.UpperBound
			}
			return prevBound + (b.UpperBound-prevBound)*(target-prevCount)/(b.Count-prevCount)
		}
		if !math.IsInf(b.UpperBound, 1) {
			prevBound = b.UpperBound
		}
		prevCount = b.Count
	}
	return prevBound
}
