package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"helm.klederson.com/internal/config"
	"helm.klederson.com/internal/steering"
)

// HelmInfo is the navigation readout shown beside the rose.
type HelmInfo struct {
	Heading      int
	HeadingValid bool
	Target       int
	Correction   steering.Correction
	Mode         string
	FeedbackOn   bool
	Cue          string
	Interval     time.Duration
}

// RenderHelmPanel renders the heading, target and correction readout with a
// sparkline of recent headings. history must already be unwrapped across north.
func RenderHelmPanel(info HelmInfo, width, height int, history []float64) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	title := StylePanelTitle.Render("HELM")
	modeHint := StyleHelp.Render("[" + strings.ToUpper(info.Mode) + "]")
	titleLine := padRight(title, modeHint, innerW)
	sep := StyleSeparator.Render(strings.Repeat("-", innerW))

	lines := []string{titleLine, sep}

	heading := "---"
	if info.HeadingValid {
		heading = fmt.Sprintf("%03d", info.Heading)
	}

	fields := []struct {
		label string
		value string
		style lipgloss.Style
	}{
		{"Heading", heading, StyleValue},
		{"Target", fmt.Sprintf("%03d", info.Target), StyleTarget},
		{"Correct", formatCorrection(info.Correction, info.HeadingValid), correctionStyle(info.Correction.Direction)},
		{"Audio", formatCue(info), StyleValue},
	}
	for _, f := range fields {
		lines = append(lines, StyleLabel.Render(fmt.Sprintf("  %-9s", f.label))+f.style.Render(f.value))
	}

	lines = append(lines, "")

	barWidth := innerW - 14
	if barWidth < 6 {
		barWidth = 6
	}
	lines = append(lines, StyleLabel.Render("  Urgency ")+renderUrgencyBar(info.Correction, barWidth))
	lines = append(lines, "")
	lines = append(lines, RenderCorrectionArrow(innerW, info.Correction, info.HeadingValid)...)

	if len(history) > 0 {
		sparkW := innerW - 4
		if sparkW < 10 {
			sparkW = 10
		}
		lines = append(lines, "", StyleLabel.Render("  Heading History:"))
		lines = append(lines, "  "+lipgloss.NewStyle().Foreground(ColorGreen).Render(renderSparkline(history, sparkW)))
	}

	innerH := height - 2
	if innerH < 1 {
		innerH = 1
	}
	content := strings.Join(clampLines(lines, innerH), "\n")
	return StylePanelActive.Width(width - 2).Height(innerH).Render(content)
}

// RenderCorrectionArrow draws which way to steer, the arrow growing with
// urgency, plus a caption line.
func RenderCorrectionArrow(width int, c steering.Correction, valid bool) []string {
	half := (width - 1) / 2
	if half < config.MaxUrgency {
		half = config.MaxUrgency
	}
	n := 0
	if valid {
		n = c.Urgency * half / config.MaxUrgency
	}

	left := spaces(half)
	right := spaces(half)
	switch {
	case n > 0 && c.Direction == steering.Port:
		left = spaces(half-n) + StylePort.Render(strings.Repeat("<", n))
	case n > 0 && c.Direction == steering.Starboard:
		right = StyleStarboard.Render(strings.Repeat(">", n)) + spaces(half-n)
	}
	arrow := left + StyleValue.Render("|") + right

	caption := "NO HEADING"
	switch {
	case !valid:
	case c.Direction == steering.Port:
		caption = fmt.Sprintf("PORT %.0fdeg", math.Abs(c.Amount))
	case c.Direction == steering.Starboard:
		caption = fmt.Sprintf("STBD %.0fdeg", math.Abs(c.Amount))
	default:
		caption = "ON COURSE"
	}
	pad := (lipgloss.Width(arrow) - len(caption)) / 2
	return []string{arrow, spaces(pad) + correctionStyle(c.Direction).Render(caption)}
}

func formatCorrection(c steering.Correction, valid bool) string {
	if !valid {
		return "---"
	}
	if c.Direction == steering.None {
		return "on course"
	}
	return fmt.Sprintf("%.0fdeg %s", math.Abs(c.Amount), c.Direction)
}

func formatCue(info HelmInfo) string {
	if !info.FeedbackOn {
		return "off"
	}
	if info.Cue == "" || info.Interval <= 0 {
		return "silent"
	}
	return fmt.Sprintf("%s every %s", info.Cue, info.Interval)
}

func correctionStyle(d steering.Direction) lipgloss.Style {
	switch d {
	case steering.Port:
		return StylePort
	case steering.Starboard:
		return StyleStarboard
	}
	return StyleValue
}

func renderUrgencyBar(c steering.Correction, width int) string {
	filled := c.Urgency * width / config.MaxUrgency
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("|", filled) + strings.Repeat("-", width-filled)
	filledPart := correctionStyle(c.Direction).Render(bar[:filled])
	emptyPart := lipgloss.NewStyle().Foreground(ColorDimGreen).Render(bar[filled:])
	return StyleHelp.Render("[") + filledPart + emptyPart + StyleHelp.Render("]")
}

func renderSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}

	chars := []byte{'_', '.', '-', '~', '^'}

	// Take last `width` values
	start := 0
	if len(values) > width {
		start = len(values) - width
	}
	values = values[start:]

	minV, maxV := values[0], values[0]
	for _, v := range values {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}

	rng := maxV - minV
	if rng < 1 {
		rng = 1
	}

	var sb strings.Builder
	for _, v := range values {
		idx := int((v - minV) / rng * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		sb.WriteByte(chars[idx])
	}
	return sb.String()
}
