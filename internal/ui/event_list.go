package ui

import (
	"fmt"
	"strings"

	"helm.klederson.com/internal/audio"
)

// RenderEventList renders the recent sound events, newest first.
// The title stays fixed at the top; older entries fall off the bottom.
func RenderEventList(events []audio.Event, width, height int) string {
	innerW := width - 4
	if innerW < 10 {
		innerW = 10
	}

	title := StylePanelTitle.Render(fmt.Sprintf("SOUNDS [%d]", len(events)))
	separator := StyleSeparator.Render(strings.Repeat("-", innerW))
	header := []string{title, separator}

	innerH := height - 2
	if innerH < len(header)+1 {
		innerH = len(header) + 1
	}

	var body []string
	if len(events) == 0 {
		body = append(body, "", StyleHelp.Render(" No sounds yet"), StyleHelp.Render(" Press space for audio"))
	}
	for i := len(events) - 1; i >= 0 && len(body) < innerH-len(header); i-- {
		body = append(body, renderEvent(events[i], innerW))
	}

	all := clampLines(append(header, body...), innerH)
	rendered := StylePanelBorder.Width(width - 2).Height(innerH).Render(strings.Join(all, "\n"))

	return strings.Join(clampLines(strings.Split(rendered, "\n"), height), "\n")
}

func renderEvent(e audio.Event, maxW int) string {
	what := e.Sound
	if e.Kind == audio.EventSpeak {
		what = `"` + e.Phrase + `"`
	}
	raw := fmt.Sprintf("%s %-7s %s", e.At.Format("15:04:05"), e.Kind, what)
	if e.Err != "" {
		raw += " !"
	}
	raw = truncRaw(raw, maxW)

	ts, rest := raw[:min(8, len(raw))], raw[min(8, len(raw)):]
	if e.Err != "" {
		return StyleEventTime.Render(ts) + StyleEventError.Render(rest)
	}
	return StyleEventTime.Render(ts) + StyleEventSound.Render(rest)
}

// truncRaw pads or truncates a raw string to exactly w characters.
func truncRaw(s string, w int) string {
	if len(s) > w {
		return s[:w]
	}
	if len(s) < w {
		return s + strings.Repeat(" ", w-len(s))
	}
	return s
}
