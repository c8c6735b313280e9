// Package monitor renders a terminal dashboard over a running daemon's
// metrics and health endpoints.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
)

// strategyOrder matches the router's attempt priority.
var strategyOrder = []string{"cache", "knowledge", "retrieval", "fallback"}

// Model is the Bubble Tea dashboard model.
type Model struct {
	serverURL string
	interval  time.Duration
	client    *Client

	lastUpdate time.Time
	stats      Stats
	health     Health
	prev       Sample
	err        error
	quitting   bool

	rateHistory     []float64
	latencyHistory  []float64
	degradedHistory []float64

	loadProgress  progress.Model
	shareProgress progress.Model
	ratePeak      float64
}

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// NewModel builds a dashboard polling the daemon at serverURL every
// interval.
func NewModel(serverURL string, interval time.Duration) Model {
	loadProg := progress.New(
		progress.WithGradient("#00ffff", "#ff00ff"),
		progress.WithWidth(40),
	)
	shareProg := progress.New(
		progress.WithGradient("#00ff00", "#ffff00"),
		progress.WithWidth(20),
	)

	return Model{
		serverURL:       serverURL,
		interval:        interval,
		client:          NewClient(serverURL),
		rateHistory:     make([]float64, 0, historySize),
		latencyHistory:  make([]float64, 0, historySize),
		degradedHistory: make([]float64, 0, historySize),
		loadProgress:    loadProg,
		shareProgress:   shareProg,
		// Floor keeps the load bar's denominator nonzero.
		ratePeak: 1.0,
	}
}

func getLatencyBadge(latencyMS float64) string {
	if latencyMS < 100 {
		return healthyStyle.Render("[✓]")
	} else if latencyMS < 500 {
		return warningStyle.Render("[⚠]")
	}
	return errorStyle.Render("[✗]")
}

func getStatusBadge(status string) string {
	switch status {
	case "ok":
		return healthyStyle.Render("✓ SERVING")
	case "degraded":
		return warningStyle.Render("⚠ DEGRADED")
	default:
		return dimStyle.Render("· WAITING")
	}
}

func getAvailabilityBadge(available, known bool) string {
	if !known {
		return dimStyle.Render("[·]")
	}
	if available {
		return healthyStyle.Render("[✓]")
	}
	return errorStyle.Render("[✗]")
}

func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}

	return sparklineStyle.Render(spark.View())
}

type tickMsg time.Time

type sampleMsg struct {
	sample Sample
	health Health
}

type errMsg error

// Init starts the refresh loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		fetchSample(m.client),
	)
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchSample scrapes metrics and health in one refresh. Both live on
// the same listener, so either failing means the daemon is unreachable.
func fetchSample(client *Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		sample, err := client.Scrape(ctx)
		if err != nil {
			return errMsg(err)
		}

		health, err := client.HealthCheck(ctx)
		if err != nil {
			return errMsg(err)
		}

		return sampleMsg{sample: sample, health: health}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetchSample(m.client)
		}

	case tickMsg:
		return m, tea.Batch(
			tick(m.interval),
			fetchSample(m.client),
		)

	case sampleMsg:
		m.stats = Derive(m.prev, msg.sample)
		m.health = msg.health
		m.prev = msg.sample

		m.rateHistory = appendToHistory(m.rateHistory, m.stats.QueryRate*60)
		m.latencyHistory = appendToHistory(m.latencyHistory, m.stats.LatencyP95*1000)
		m.degradedHistory = appendToHistory(m.degradedHistory, m.stats.DegradedRate*100)

		if m.stats.QueryRate > m.ratePeak {
			m.ratePeak = m.stats.QueryRate
		}

		m.lastUpdate = time.Now()
		m.err = nil
		return m, nil

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.err != nil {
		return m.renderError()
	}

	return m.renderDashboard()
}

func (m Model) renderError() string {
	header := headerStyle.Render(" civicd Monitor ")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ Cannot reach civicd") + "\n"
	content += "\n"
	content += dimStyle.Render("Server: ") + valueStyle.Render(m.serverURL) + "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += dimStyle.Render("Please ensure:") + "\n"
	content += dimStyle.Render("  1. civicd is running") + "\n"
	content += dimStyle.Render("  2. --server points at its listen address") + "\n"
	content += "\n"
	content += footerStyle.Render("[q] quit  [r] retry") + "\n"

	return containerStyle.Render(header + "\n" + content)
}

func (m Model) renderDashboard() string {
	var content string

	lastUpdateStr := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdateStr = m.lastUpdate.Format("3:04:05 PM")
	}
	latencyMS := m.stats.LatencyP95 * 1000

	header := headerStyle.Render(" civicd Monitor ")
	headerLine := fmt.Sprintf("%s   %s %s   %s",
		getStatusBadge(m.health.Status),
		dimStyle.Render("Answered:"),
		valueStyle.Render(FormatCount(m.stats.TotalQueries)),
		dimStyle.Render(lastUpdateStr))

	content += header + "\n"
	content += headerLine + "\n"

	// Queries section
	content += "\n" + sectionStyle.Render("┃ Queries") + "\n"

	rateSparkline := createSparkline(m.rateHistory)
	rateBadge := getLatencyBadge(latencyMS)
	content += labelStyle.Render("  Rate: ") +
		valueStyle.Render(FormatRate(m.stats.QueryRate)) +
		" " + rateBadge +
		"   " + rateSparkline + "\n"

	latencySparkline := createSparkline(m.latencyHistory)
	content += labelStyle.Render("  Latency (p95): ") +
		valueStyle.Render(FormatLatency(m.stats.LatencyP95)) +
		" " + rateBadge +
		"   " + latencySparkline + "\n"

	ratePercent := 0.0
	if m.ratePeak > 0 {
		ratePercent = m.stats.QueryRate / m.ratePeak
		if ratePercent > 1.0 {
			ratePercent = 1.0
		}
	}
	content += labelStyle.Render("  Load: ") +
		m.loadProgress.ViewAs(ratePercent) +
		" " + dimStyle.Render(fmt.Sprintf("%.0f%%", ratePercent*100)) + "\n"

	// Strategies section: share of answered queries per kind, with the
	// router's availability flag.
	content += "\n" + sectionStyle.Render("┃ Strategies") + "\n"

	for _, kind := range strategyOrder {
		share := m.stats.Share[kind]
		available, known := m.health.Strategies[kind]
		content += labelStyle.Render(fmt.Sprintf("  %-10s ", kind)) +
			m.shareProgress.ViewAs(share) +
			" " + valueStyle.Render(fmt.Sprintf("%5s", FormatPercentage(share))) +
			" " + getAvailabilityBadge(available, known) + "\n"
	}

	// Reliability section
	content += "\n" + sectionStyle.Render("┃ Reliability") + "\n"

	degradedSparkline := createSparkline(m.degradedHistory)
	content += labelStyle.Render("  Degraded: ") +
		valueStyle.Render(FormatPercentage(m.stats.DegradedRate)) +
		"        " + degradedSparkline + "\n"

	content += labelStyle.Render("  Fallback share: ") +
		valueStyle.Render(FormatPercentage(m.stats.FallbackShare)) +
		"  " +
		labelStyle.Render("In flight: ") +
		valueStyle.Render(fmt.Sprintf("%.0f", m.stats.ActiveRequests)) + "\n"

	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))

	content += "\n" + footer

	return containerStyle.Render(content)
}
