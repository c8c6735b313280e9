package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchExplanation(t *testing.T) {
	t.Run("successfully fetches diagnostics", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/queries/explain", r.URL.Path)
			assert.Equal(t, "pothole on 5th street?", r.URL.Query().Get("q"))

			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(ExplanationResponse{
				Query:    "pothole on 5th street?",
				Keywords: []string{"pothole", "street"},
				Scores: []StrategyScore{
					{Kind: "cache", Score: 0, Available: true, Threshold: 0.8},
					{Kind: "knowledge", Score: 0.71, Available: true, Threshold: 0.6},
				},
				Candidates: []Candidate{
					{Kind: "knowledge", Score: 0.71},
					{Kind: "fallback", Score: 0.1},
				},
			})
		}))
		defer server.Close()

		oldServerURL := serverURL
		serverURL = server.URL
		defer func() { serverURL = oldServerURL }()

		expl, err := fetchExplanation("pothole on 5th street?")

		require.NoError(t, err)
		assert.Equal(t, []string{"pothole", "street"}, expl.Keywords)
		require.Len(t, expl.Candidates, 2)
		assert.Equal(t, "knowledge", expl.Candidates[0].Kind)
	})

	t.Run("handles connection error", func(t *testing.T) {
		oldServerURL := serverURL
		serverURL = "http://127.0.0.1:1"
		defer func() { serverURL = oldServerURL }()

		_, err := fetchExplanation("anything")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect")
	})

	t.Run("handles non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("internal error"))
		}))
		defer server.Close()

		oldServerURL := serverURL
		serverURL = server.URL
		defer func() { serverURL = oldServerURL }()

		_, err := fetchExplanation("anything")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})
}

func TestRenderExplanation(t *testing.T) {
	t.Run("renders score table and attempt order", func(t *testing.T) {
		out := renderExplanation(&ExplanationResponse{
			Query:    "when is property tax due?",
			Keywords: []string{"property", "tax", "due"},
			Scores: []StrategyScore{
				{Kind: "cache", Score: 0.91, Available: true, Threshold: 0.8},
				{Kind: "knowledge", Score: 0.44, Available: true, Threshold: 0.6},
				{Kind: "retrieval", Score: 0.2, Available: false, Threshold: 0.55},
			},
			Candidates: []Candidate{
				{Kind: "cache", Score: 0.91},
				{Kind: "knowledge", Score: 0.44},
			},
		})

		assert.Contains(t, out, "Query: when is property tax due?")
		assert.Contains(t, out, "Keywords: property, tax, due")
		assert.Contains(t, out, "cache")
		assert.Contains(t, out, "0.910")
		assert.Contains(t, out, "false")
		assert.Contains(t, out, "Attempt order: cache > knowledge")
	})

	t.Run("explains empty candidate list", func(t *testing.T) {
		out := renderExplanation(&ExplanationResponse{
			Query: "zzzz",
			Scores: []StrategyScore{
				{Kind: "cache", Score: 0, Available: true, Threshold: 0.8},
			},
		})

		assert.Contains(t, out, "the fallback answers this query")
		assert.NotContains(t, out, "Attempt order")
	})

	t.Run("omits keywords line when none extracted", func(t *testing.T) {
		out := renderExplanation(&ExplanationResponse{Query: "?"})

		assert.NotContains(t, out, "Keywords:")
	})
}
