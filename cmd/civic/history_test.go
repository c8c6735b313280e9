package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchHistory(t *testing.T) {
	t.Run("successfully fetches a transcript", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/sessions/alpha/history", r.URL.Path)
			assert.Equal(t, "5", r.URL.Query().Get("limit"))

			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(HistoryResponse{
				SessionID: "alpha",
				Exchanges: []Exchange{
					{ID: 1, Question: "water bill?", Reply: "Pay online at the water board portal.", Kind: "knowledge"},
					{ID: 2, Question: "deadline?", Reply: "The 15th of each month.", Kind: "cache"},
				},
			})
		}))
		defer server.Close()

		oldServerURL := serverURL
		serverURL = server.URL
		defer func() { serverURL = oldServerURL }()

		hist, err := fetchHistory("alpha", 5)

		require.NoError(t, err)
		assert.Equal(t, "alpha", hist.SessionID)
		require.Len(t, hist.Exchanges, 2)
		assert.Equal(t, "water bill?", hist.Exchanges[0].Question)
	})

	t.Run("omits limit parameter when zero", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.False(t, r.URL.Query().Has("limit"))
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(HistoryResponse{SessionID: "alpha"})
		}))
		defer server.Close()

		oldServerURL := serverURL
		serverURL = server.URL
		defer func() { serverURL = oldServerURL }()

		_, err := fetchHistory("alpha", 0)

		require.NoError(t, err)
	})

	t.Run("escapes the session id in the path", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/sessions/a%2Fb/history", r.URL.EscapedPath())
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(HistoryResponse{SessionID: "a/b"})
		}))
		defer server.Close()

		oldServerURL := serverURL
		serverURL = server.URL
		defer func() { serverURL = oldServerURL }()

		_, err := fetchHistory("a/b", 0)

		require.NoError(t, err)
	})

	t.Run("handles connection error", func(t *testing.T) {
		oldServerURL := serverURL
		serverURL = "http://127.0.0.1:1"
		defer func() { serverURL = oldServerURL }()

		_, err := fetchHistory("alpha", 0)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect")
	})

	t.Run("handles non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("limit must be a non-negative integer"))
		}))
		defer server.Close()

		oldServerURL := serverURL
		serverURL = server.URL
		defer func() { serverURL = oldServerURL }()

		_, err := fetchHistory("alpha", 0)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "status 400")
	})
}

func TestRenderHistory(t *testing.T) {
	t.Run("renders exchanges oldest first", func(t *testing.T) {
		created := time.Date(2025, 6, 12, 9, 30, 0, 0, time.UTC)
		out := renderHistory(&HistoryResponse{
			SessionID: "alpha",
			Exchanges: []Exchange{
				{Question: "how do I report a pothole?", Reply: "Call 1913 or use the app.", Kind: "knowledge", CreatedAt: created},
				{Question: "thanks", Reply: "Happy to help.", Kind: "fallback", CreatedAt: created.Add(time.Minute), Degraded: true},
			},
		})

		assert.Contains(t, out, "Session alpha (2 exchanges)")
		assert.Contains(t, out, "[2025-06-12 09:30] Q: how do I report a pothole?")
		assert.Contains(t, out, "(knowledge) A: Call 1913 or use the app.")
		assert.Contains(t, out, "(degraded answer)")
	})

	t.Run("reports empty sessions", func(t *testing.T) {
		out := renderHistory(&HistoryResponse{SessionID: "ghost"})

		assert.Equal(t, "No history for session ghost.\n", out)
	})
}
