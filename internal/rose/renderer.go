package rose

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"helm.klederson.com/internal/bearing"
	"helm.klederson.com/internal/config"
	"helm.klederson.com/internal/steering"
)

var (
	colorBright    = lipgloss.Color("#00FF41")
	colorMid       = lipgloss.Color("#008F11")
	colorDim       = lipgloss.Color("#004A0A")
	colorWindow    = lipgloss.Color("#00AA22")
	colorPort      = lipgloss.Color("#FF3300")
	colorStarboard = lipgloss.Color("#00FFAA")
	colorTarget    = lipgloss.Color("#FFCC00")

	styleCenter   = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleRing     = lipgloss.NewStyle().Foreground(colorMid)
	styleDot      = lipgloss.NewStyle().Foreground(colorDim)
	styleWindow   = lipgloss.NewStyle().Foreground(colorWindow)
	styleCardinal = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleTarget   = lipgloss.NewStyle().Foreground(colorTarget).Bold(true)
	styleBow      = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleLegend   = lipgloss.NewStyle().Foreground(colorMid)
)

// Frame is what one rose drawing shows.
type Frame struct {
	Heading      float64
	HeadingValid bool
	Target       float64
	Tolerance    float64
	Direction    steering.Direction
	Pulse        float64 // beat glow in [0, 1]
}

type mark struct {
	ch    rune
	style lipgloss.Style
}

// Render produces the rose as a styled string of exactly height lines.
func Render(width, height int, f Frame) string {
	if width < 10 || height < 5 {
		return ""
	}

	centerX := width / 2
	centerY := height / 2
	// leave a row and two columns for the cardinal letters
	radius := float64(min(centerX-2, int(float64(centerY-1)/config.AspectRatio)))
	if radius < 3 {
		radius = 3
	}

	ringRadii := make([]float64, config.RingCount)
	for i := range ringRadii {
		ringRadii[i] = radius * float64(i+1) / float64(config.RingCount)
	}

	heading := f.Heading
	if !f.HeadingValid {
		heading = 0 // north up until a reading arrives
	}
	targetAngle := Relative(heading, f.Target)
	window := bearing.ToRadians(math.Max(f.Tolerance, config.MinTolerance))

	marks := overlay(f, heading, targetAngle, radius, centerX, centerY)
	ring := ringStyle(f)

	var sb strings.Builder
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if m, ok := marks[[2]int{col, row}]; ok {
				sb.WriteString(m.style.Render(string(m.ch)))
				continue
			}
			sb.WriteString(renderCell(col, row, centerX, centerY, radius, ringRadii, ring, targetAngle, window))
		}
		if row < height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// overlay places the cardinals, target and bow markers.
func overlay(f Frame, heading, targetAngle, radius float64, centerX, centerY int) map[[2]int]mark {
	marks := make(map[[2]int]mark)
	put := func(angle, r float64, m mark) {
		col, row := Project(angle, r, centerX, centerY)
		marks[[2]int{col, row}] = m
	}

	for i, name := range []rune{'N', 'E', 'S', 'W'} {
		put(Relative(heading, float64(i*90)), radius+1.5, mark{name, styleCardinal})
	}
	put(targetAngle, radius*0.8, mark{'T', styleTarget})
	if f.HeadingValid {
		put(0, radius, mark{'^', styleBow})
	}
	marks[[2]int{centerX, centerY}] = mark{'+', styleCenter}
	return marks
}

func ringStyle(f Frame) lipgloss.Style {
	if f.Pulse <= 0 {
		return styleRing
	}
	color := colorBright
	switch f.Direction {
	case steering.Port:
		color = colorPort
	case steering.Starboard:
		color = colorStarboard
	}
	s := lipgloss.NewStyle().Foreground(color)
	if f.Pulse > 0.5 {
		s = s.Bold(true)
	}
	return s
}

func renderCell(col, row, centerX, centerY int, radius float64, ringRadii []float64, ring lipgloss.Style, targetAngle, window float64) string {
	dist := CellDistance(col, row, centerX, centerY)
	if dist > radius+0.5 {
		return " "
	}
	angle := CellAngle(col, row, centerX, centerY)

	// lubber line from the center to the bow
	if col == centerX && row < centerY {
		return styleRing.Render("|")
	}

	for _, r := range ringRadii {
		if math.Abs(dist-r) < 0.8 {
			return ring.Render(string(RingChar(angle)))
		}
	}

	if AngleDiff(angle, targetAngle) <= window {
		return styleWindow.Render(":")
	}
	return styleDot.Render(".")
}

// RenderLegend produces the legend line under the rose.
func RenderLegend(width int) string {
	legend := styleBow.Render("^") + styleLegend.Render(" bow  ") +
		styleTarget.Render("T") + styleLegend.Render(" target  ") +
		styleWindow.Render(":") + styleLegend.Render(" on course")

	pad := (width - lipgloss.Width(legend)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + legend
}
