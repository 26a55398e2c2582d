// Package sensor delivers timestamped compass readings into the control loop.
package sensor

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"helm.klederson.com/internal/bearing"
)

// HeadingMsg is one compass reading. True is only meaningful when HasTrue
// is set; otherwise it is derived from the configured declination.
type HeadingMsg struct {
	Magnetic float64
	True     float64
	HasTrue  bool
	At       time.Time
	Source   string
}

// Resolve returns the magnetic and true headings, deriving the missing one
// from declination (east positive).
func (m HeadingMsg) Resolve(declination float64) (magnetic, trueHeading float64) {
	if m.HasTrue {
		return bearing.Normalize(m.Magnetic), bearing.Normalize(m.True)
	}
	return bearing.Normalize(m.Magnetic), bearing.Normalize(m.Magnetic + declination)
}

// ErrorMsg reports a source failure. Sources keep retrying where they can.
type ErrorMsg struct {
	Source string
	Err    error
}

func (e ErrorMsg) Error() string { return e.Source + ": " + e.Err.Error() }

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Source produces readings until stopped.
type Source interface {
	Start(s Sender) error
	Stop()
}
