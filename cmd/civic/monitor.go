// Package main: live dashboard command.
package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/civicmind/civicd/internal/monitor"
)

// monitorInterval is the dashboard sampling interval
var monitorInterval time.Duration

func init() {
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 5*time.Second, "sampling interval")
	rootCmd.AddCommand(monitorCmd)
}

// monitorCmd renders the live terminal dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live terminal dashboard for a civicd daemon",
	Long: `Render a full-screen dashboard of query rate, per-strategy answer
shares, latency, and degradation, sampled from the daemon's metrics
and health endpoints.

Press q to quit, r to refresh immediately.

Examples:
  # Watch the local daemon
  civic monitor

  # Sample less often
  civic monitor --interval 10s`,
	RunE: runMonitor,
}

// runMonitor handles the monitor command
func runMonitor(cmd *cobra.Command, args []string) error {
	model := monitor.NewModel(serverURL, monitorInterval)

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}

	return nil
}
