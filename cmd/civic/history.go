// Package main: session transcript command.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// historyLimit caps how many exchanges the daemon returns
var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum exchanges to show (0 uses the server default)")
	rootCmd.AddCommand(historyCmd)
}

// historyCmd prints a session transcript
var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show a session's question and answer history",
	Long: `Show the recorded exchanges for a session, oldest first.

Examples:
  # Full transcript for a session
  civic history alpha

  # Only the most recent five exchanges
  civic history alpha --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

// HistoryResponse matches internal/server/handlers.go HistoryResponse
type HistoryResponse struct {
	SessionID string     `json:"session_id"`
	Exchanges []Exchange `json:"exchanges"`
}

// Exchange matches internal/history/store.go Record
type Exchange struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Question   string    `json:"question"`
	Reply      string    `json:"reply"`
	Kind       string    `json:"kind"`
	Confidence float64   `json:"confidence"`
	Degraded   bool      `json:"degraded"`
	CreatedAt  time.Time `json:"created_at"`
}

// runHistory handles the history command
func runHistory(cmd *cobra.Command, args []string) error {
	hist, err := fetchHistory(args[0], historyLimit)
	if err != nil {
		return err
	}

	fmt.Print(renderHistory(hist))
	return nil
}

// fetchHistory reads a session transcript from the daemon
func fetchHistory(sessionID string, limit int) (*HistoryResponse, error) {
	reqURL := fmt.Sprintf("%s/v1/sessions/%s/history", serverURL, url.PathEscape(sessionID))
	if limit > 0 {
		reqURL = fmt.Sprintf("%s?limit=%d", reqURL, limit)
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	resp, err := client.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var hist HistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&hist); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &hist, nil
}

// renderHistory formats a transcript, oldest exchange first
func renderHistory(hist *HistoryResponse) string {
	if len(hist.Exchanges) == 0 {
		return fmt.Sprintf("No history for session %s.\n", hist.SessionID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session %s (%d exchanges)\n", hist.SessionID, len(hist.Exchanges))

	for _, ex := range hist.Exchanges {
		fmt.Fprintf(&b, "\n[%s] Q: %s\n", ex.CreatedAt.Format("2006-01-02 15:04"), ex.Question)
		fmt.Fprintf(&b, "%17s A: %s\n", fmt.Sprintf("(%s)", ex.Kind), ex.Reply)
		if ex.Degraded {
			b.WriteString("                  (degraded answer)\n")
		}
	}

	return b.String()
}
