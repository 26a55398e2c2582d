package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar reports.
type StatusInfo struct {
	Source      string
	Connected   bool
	North       string
	Sensitivity int // zero based
	Tolerance   float64
	Clients     int
	Err         string

	// Readings is how many raw readings the smoother holds; Raw is the
	// newest of them, shown only when Readings > 0.
	Readings int
	Raw      float64
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s StatusInfo) string {
	status := StyleFeedbackOff.Render("[NO HEADING]")
	if s.Connected {
		status = StyleFeedbackOn.Render("[" + s.Source + "]")
	}

	info := fmt.Sprintf(" North: %s  Sensitivity: %d  Tolerance: %.0fdeg",
		s.North, s.Sensitivity+1, s.Tolerance)
	if s.Readings > 0 {
		info += fmt.Sprintf("  Raw: %03.0fdeg (%d)", s.Raw, s.Readings)
	}
	if s.Clients > 0 {
		info += fmt.Sprintf("  Clients: %d", s.Clients)
	}

	content := status + StyleStatusBar.Foreground(ColorGreen).Render(info)
	if s.Err != "" {
		content += "  " + StyleEventError.Render(s.Err)
	}

	gap := width - lipgloss.Width(content)
	return StyleStatusBar.Width(width).Render(content + spaces(gap))
}
