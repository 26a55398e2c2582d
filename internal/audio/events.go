package audio

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// EventKind identifies an output call.
type EventKind string

const (
	EventPlay    EventKind = "play"
	EventSpeak   EventKind = "speak"
	EventSilence EventKind = "silence"
)

// Event records one call made on an Output.
type Event struct {
	Kind   EventKind `json:"kind"`
	Sound  string    `json:"sound,omitempty"`
	Phrase string    `json:"phrase,omitempty"`
	Err    string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

// Observed forwards to Next and reports every call to Sink.
type Observed struct {
	Next  Output
	Clock clock.Clock
	Sink  func(Event)
}

func (o *Observed) PlayDiscrete(s Sound) error {
	err := o.Next.PlayDiscrete(s)
	o.emit(Event{Kind: EventPlay, Sound: s.String()}, err)
	return err
}

func (o *Observed) Speak(phrase string) error {
	err := o.Next.Speak(phrase)
	o.emit(Event{Kind: EventSpeak, Sound: Heading.String(), Phrase: phrase}, err)
	return err
}

func (o *Observed) Silence() {
	o.Next.Silence()
	o.emit(Event{Kind: EventSilence}, nil)
}

func (o *Observed) emit(e Event, err error) {
	if o.Sink == nil {
		return
	}
	if err != nil {
		e.Err = err.Error()
	}
	e.At = o.Clock.Now()
	o.Sink(e)
}

// Recorder is an Output that keeps every call. Setting Err makes play and
// speak calls fail.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) PlayDiscrete(s Sound) error {
	return r.record(Event{Kind: EventPlay, Sound: s.String()})
}

func (r *Recorder) Speak(phrase string) error {
	return r.record(Event{Kind: EventSpeak, Sound: Heading.String(), Phrase: phrase})
}

func (r *Recorder) Silence() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: EventSilence})
}

func (r *Recorder) record(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of the recorded calls.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Sounds returns the names of the sounds played or spoken, in order.
func (r *Recorder) Sounds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Kind != EventSilence {
			out = append(out, e.Sound)
		}
	}
	return out
}

// Reset drops the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
