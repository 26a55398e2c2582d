package ui

import (
	"fmt"

	"helm.klederson.com/internal/config"
)

// RenderMenuBar renders the top menu bar.
func RenderMenuBar(width int, mode string, feedbackOn bool) string {
	title := fmt.Sprintf(" %s v%s ", config.AppName, config.AppVersion)

	keys := []struct{ key, label string }{
		{"SPC", "audio"},
		{"M", "ode"},
		{"T", "arget"},
		{"[ ]", "tack"},
		{"N", "orth"},
		{"Q", "uit"},
	}

	menu := ""
	for _, k := range keys {
		menu += "  " + StyleMenuKey.Render("["+k.key+"]") + StyleMenuLabel.Render(k.label)
	}

	status := StyleFeedbackOff.Render("MUTED")
	if feedbackOn {
		status = StyleFeedbackOn.Render("AUDIO ON")
	}
	modeInfo := StyleMenuLabel.Render("Mode: " + mode)

	left := StyleMenuKey.Render(title) + menu
	right := status + "  " + modeInfo + " "

	return StyleMenuBar.Width(width).Render(padRight(left, right, width))
}
