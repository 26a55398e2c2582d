// Package audio plays the discrete cues and spoken heading read-outs the
// feedback scheduler asks for.
package audio

// Sound is a discrete cue.
type Sound int

const (
	None Sound = iota
	Drum
	High // Steer to starboard
	Low  // Steer to port
	Heading
)

func (s Sound) String() string {
	switch s {
	case Drum:
		return "drum"
	case High:
		return "high"
	case Low:
		return "low"
	case Heading:
		return "heading"
	default:
		return "none"
	}
}

// ParseSound maps a name from String back to its Sound. Unknown names are None.
func ParseSound(name string) Sound {
	for _, s := range []Sound{Drum, High, Low, Heading} {
		if s.String() == name {
			return s
		}
	}
	return None
}

// Output is the sound collaborator. Calls return once the request is queued;
// playback itself is never awaited. An error means the request could not be
// started at all.
type Output interface {
	PlayDiscrete(s Sound) error
	Speak(phrase string) error
	Silence()
}

// Noop discards every request.
type Noop struct{}

func (Noop) PlayDiscrete(Sound) error { return nil }
func (Noop) Speak(string) error       { return nil }
func (Noop) Silence()                 {}
