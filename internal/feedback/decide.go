// Package feedback turns navigation state into a rhythm of audio cues and
// keeps that rhythm steady when the cue or its tempo changes.
package feedback

import (
	"time"

	"helm.klederson.com/internal/audio"
	"helm.klederson.com/internal/config"
	"helm.klederson.com/internal/steering"
)

// Mode selects what the feedback reports.
type Mode int

const (
	// Steering plays on-course reassurance or off-course correction cues.
	Steering Mode = iota
	// Compass reads out the heading on a fixed interval.
	Compass
)

func (m Mode) String() string {
	if m == Compass {
		return "compass"
	}
	return "steering"
}

// Decision is the cue to repeat and how often. A zero Interval means the
// cue is not repeated.
type Decision struct {
	Sound    audio.Sound
	Interval time.Duration
}

// Cue cadence by urgency; index 0 is unused.
var urgencyIntervals = [config.MaxUrgency + 1]time.Duration{
	0,
	5 * time.Second,
	2500 * time.Millisecond,
	time.Second,
}

// Decide picks the cue for the given state. It has no memory.
func Decide(mode Mode, urgency int, dir steering.Direction, onCourse config.OnCourseFeedback, headingInterval time.Duration) Decision {
	if mode == Compass {
		return Decision{Sound: audio.Heading, Interval: headingInterval}
	}

	if urgency <= 0 {
		switch onCourse {
		case config.OnCourseDrum:
			return Decision{Sound: audio.Drum, Interval: config.DrumInterval}
		case config.OnCourseHeading:
			return Decision{Sound: audio.Heading, Interval: headingInterval}
		default:
			return Decision{Sound: audio.None}
		}
	}

	snd := audio.High
	if dir == steering.Port {
		snd = audio.Low
	}
	return Decision{Sound: snd, Interval: urgencyIntervals[min(urgency, config.MaxUrgency)]}
}
