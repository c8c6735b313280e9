package monitor

import "fmt"

// FormatRate renders a per-second query rate as per-minute, the scale
// a civic deployment actually sees.
func FormatRate(perSecond float64) string {
	return fmt.Sprintf("%.1f q/min", perSecond*60)
}

// FormatLatency renders latency in seconds as "X.Xms" or "X.Xs".
func FormatLatency(latencySeconds float64) string {
	if latencySeconds < 1.0 {
		ms := latencySeconds * 1000
		return fmt.Sprintf("%.1fms", ms)
	}
	return fmt.Sprintf("%.1fs", latencySeconds)
}

// FormatPercentage renders a ratio (0-1) as a percentage.
func FormatPercentage(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatCount renders a counter compactly: 950, 8.2k, 1.3M.
func FormatCount(n float64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", n/1_000)
	default:
		return fmt.Sprintf("%.0f", n)
	}
}
