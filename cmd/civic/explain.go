// Package main: routing diagnostics command.
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

func init() {
	rootCmd.AddCommand(explainCmd)
}

// explainCmd shows routing diagnostics without answering
var explainCmd = &cobra.Command{
	Use:   "explain [question]",
	Short: "Show how a question would be routed",
	Long: `Show routing diagnostics for a question without answering it: the
extracted keywords, every strategy's score against its acceptance
threshold, and the order strategies would be attempted in.

Examples:
  # Inspect routing for a question
  civic explain "when is property tax due?"

  # Against a different server
  civic explain --server http://localhost:9000 "pothole on 5th street"`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

// ExplanationResponse matches internal/engine/types.go Explanation
type ExplanationResponse struct {
	Query      string          `json:"query"`
	Keywords   []string        `json:"keywords"`
	Scores     []StrategyScore `json:"scores"`
	Candidates []Candidate     `json:"candidates"`
}

// StrategyScore matches internal/engine/types.go StrategyScore
type StrategyScore struct {
	Kind      string  `json:"kind"`
	Score     float64 `json:"score"`
	Available bool    `json:"available"`
	Threshold float64 `json:"threshold"`
}

// Candidate matches internal/engine/types.go Candidate
type Candidate struct {
	Kind  string  `json:"kind"`
	Score float64 `json:"score"`
}

// runExplain handles the explain command
func runExplain(cmd *cobra.Command, args []string) error {
	expl, err := fetchExplanation(args[0])
	if err != nil {
		return err
	}

	fmt.Print(renderExplanation(expl))
	return nil
}

// fetchExplanation reads routing diagnostics from the daemon
func fetchExplanation(question string) (*ExplanationResponse, error) {
	reqURL := fmt.Sprintf("%s/v1/queries/explain?q=%s", serverURL, url.QueryEscape(question))

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

	var expl ExplanationResponse
	if err := json.NewDecoder(resp.Body).Decode(&expl); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &expl, nil
}

// renderExplanation formats routing diagnostics as an aligned table
func renderExplanation(expl *ExplanationResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Query: %s\n", expl.Query)
	if len(expl.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(expl.Keywords, ", "))
	}

	b.WriteString("\nStrategy    Score   Threshold  Available\n")
	for _, s := range expl.Scores {
		fmt.Fprintf(&b, "%-10s  %.3f   %9.2f  %v\n", s.Kind, s.Score, s.Threshold, s.Available)
	}

	if len(expl.Candidates) == 0 {
		b.WriteString("\nNo strategy scored above zero; the fallback answers this query.\n")
		return b.String()
	}

	order := make([]string, len(expl.Candidates))
	for i, c := range expl.Candidates {
		order[i] = c.Kind
	}
	fmt.Fprintf(&b, "\nAttempt order: %s\n", strings.Join(order, " > "))

	return b.String()
}
