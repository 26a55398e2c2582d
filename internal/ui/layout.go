package ui

import "github.com/charmbracelet/lipgloss"

// ComposeLayout joins the rose panel and the side column horizontally,
// with menu bar on top and status bar on bottom.
func ComposeLayout(menuBar, rosePanel, side, statusBar string) string {
	middle := lipgloss.JoinHorizontal(lipgloss.Top, rosePanel, side)
	return lipgloss.JoinVertical(lipgloss.Left, menuBar, middle, statusBar)
}

// RenderRosePanel wraps rose content with a styled border.
// The rose itself is drawn by the rose package.
func RenderRosePanel(width, height int, roseContent, legend string) string {
	content := roseContent + "\n" + legend
	return StylePanelBorder.Width(width - 2).Height(height - 2).Render(content)
}

// padRight fills the gap between a left and right part to width.
func padRight(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + spaces(gap) + right
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

// clampLines pads or truncates lines to exactly height entries.
// lipgloss Height() only sets a minimum; it won't truncate overflow.
func clampLines(lines []string, height int) []string {
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}
