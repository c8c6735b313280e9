// Package main implements the civic CLI for manual operations against a
// running civicd daemon.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the civicd HTTP API
	serverURL string
	// askSession groups follow-up questions into one conversation
	askSession string
	// version information (set via ldflags during build)
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "civic",
	Short: "CLI for the civicd civic information daemon",
	Long: `civic is a command-line interface for a running civicd daemon.
It asks questions about municipal services, shows how queries are routed,
reads session transcripts, and checks daemon health.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8480", "civicd server URL")
	askCmd.Flags().StringVar(&askSession, "session", "", "session ID for conversation history")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(healthCmd)
}

// askCmd submits one question to the daemon
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a civic services question",
	Long: `Ask the civicd daemon a question about municipal services.

The answer text goes to stdout; provenance (answering strategy,
confidence, sources) goes to stderr.

Examples:
  # Ask a question
  civic ask "how do I apply for a birth certificate?"

  # Keep follow-ups in one session
  civic ask --session alpha "what documents do I need?"

  # Use a different server
  civic ask --server http://localhost:9000 "property tax due dates"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

// healthCmd checks daemon health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check civicd daemon health",
	Long: `Check the health of the civicd daemon and the availability of each
answering strategy.

Examples:
  # Check health
  civic health

  # Check health on a different server
  civic health --server http://localhost:9000`,
	RunE: runHealth,
}

// QueryRequest matches internal/server/handlers.go QueryRequest
type QueryRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

// AnswerResponse matches internal/server/handlers.go AnswerResponse
type AnswerResponse struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Kind       string    `json:"kind"`
	Confidence float64   `json:"confidence"`
	Sources    []Source  `json:"sources,omitempty"`
	Degraded   bool      `json:"degraded"`
	Attempts   []Attempt `json:"attempts,omitempty"`
	ElapsedMS  int64     `json:"elapsed_ms"`
}

// Source matches internal/engine/types.go Source
type Source struct {
	ID    string  `json:"id"`
	Title string  `json:"title,omitempty"`
	Score float64 `json:"score,omitempty"`
}

// Attempt matches internal/engine/types.go Attempt
type Attempt struct {
	Kind       string  `json:"kind"`
	Outcome    string  `json:"outcome"`
	Confidence float64 `json:"confidence,omitempty"`
}

// HealthResponse matches internal/server/handlers.go HealthResponse
type HealthResponse struct {
	Status     string          `json:"status"`
	Strategies map[string]bool `json:"strategies"`
}

// strategyKinds is the order strategies are listed in, matching the
// router's attempt priority.
var strategyKinds = []string{"cache", "knowledge", "retrieval", "fallback"}

// runAsk handles the ask command
func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(args[0])
	if question == "" {
		return fmt.Errorf("question is empty")
	}

	answer, err := askQuery(question, askSession)
	if err != nil {
		return err
	}

	// Answer text on stdout, provenance on stderr, so piped output
	// stays clean.
	fmt.Println(answer.Text)
	fmt.Fprint(os.Stderr, formatAnswerMeta(answer))

	return nil
}

// askQuery posts one question to the daemon
func askQuery(question, sessionID string) (*AnswerResponse, error) {
	reqJSON, err := json.Marshal(QueryRequest{
		Text:      question,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/queries", serverURL)

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var answer AnswerResponse
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &answer, nil
}

// formatAnswerMeta renders the provenance block printed after an answer
func formatAnswerMeta(answer *AnswerResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n[%s] confidence %.2f, %dms", answer.Kind, answer.Confidence, answer.ElapsedMS)
	if answer.Degraded {
		b.WriteString(", degraded")
	}
	b.WriteString("\n")

	for _, src := range answer.Sources {
		if src.Title != "" {
			fmt.Fprintf(&b, "  source: %s (%s)\n", src.Title, src.ID)
		} else {
			fmt.Fprintf(&b, "  source: %s\n", src.ID)
		}
	}

	return b.String()
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	health, err := fetchHealth()
	if err != nil {
		return err
	}

	fmt.Printf("Server Status: %s\n", health.Status)
	fmt.Printf("Server URL: %s\n", serverURL)
	for _, kind := range strategyKinds {
		available, known := health.Strategies[kind]
		if !known {
			continue
		}
		state := "unavailable"
		if available {
			state = "ok"
		}
		fmt.Printf("  %-10s %s\n", kind, state)
	}

	return nil
}

// fetchHealth reads the daemon health endpoint
func fetchHealth() (*HealthResponse, error) {
	url := fmt.Sprintf("%s/healthz", serverURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &health, nil
}
