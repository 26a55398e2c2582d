package rose

import (
	"time"

	"github.com/benbjohnson/clock"

	"helm.klederson.com/internal/audio"
	"helm.klederson.com/internal/config"
)

// Pulse flashes the rose on each feedback beat and fades out over
// config.PulseDecay.
type Pulse struct {
	clock clock.Clock
	last  time.Time
	sound audio.Sound
}

// NewPulse creates an idle pulse.
func NewPulse(clk clock.Clock) *Pulse {
	return &Pulse{clock: clk}
}

// Beat starts a flash for s.
func (p *Pulse) Beat(s audio.Sound) {
	p.last = p.clock.Now()
	p.sound = s
}

// Sound returns the cue of the latest beat.
func (p *Pulse) Sound() audio.Sound { return p.sound }

// Intensity returns the glow in [0, 1]: 1 at the beat, 0 once faded.
func (p *Pulse) Intensity() float64 {
	if p.last.IsZero() {
		return 0
	}
	elapsed := p.clock.Since(p.last)
	if elapsed >= config.PulseDecay {
		return 0
	}
	return 1 - float64(elapsed)/float64(config.PulseDecay)
}
