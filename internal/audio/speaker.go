package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// SpeechReady is delivered once a rendering finishes. Generation identifies
// the request; a newer Prepare or Speak makes older generations stale.
type SpeechReady struct {
	Generation uint64
	Phrase     string
	Err        error
}

// RenderFunc writes phrase as a WAV file at path.
type RenderFunc func(ctx context.Context, phrase, path string) error

// Speaker renders phrases ahead of time and plays the newest one on request.
// A new phrase cancels the rendering in flight instead of queueing behind it.
type Speaker struct {
	log    *zap.Logger
	dir    string
	render RenderFunc
	play   func(path string) error
	notify func(SpeechReady)

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	phrase   string
	path     string // rendered file for phrase, empty while in flight
	wantPlay bool   // survives a newer phrase; cleared by Hush or a play
}

// NewSpeaker creates a speaker writing renderings under dir. notify may be nil.
func NewSpeaker(logger *zap.Logger, dir string, render RenderFunc, play func(string) error, notify func(SpeechReady)) *Speaker {
	return &Speaker{
		log:    logger,
		dir:    dir,
		render: render,
		play:   play,
		notify: notify,
	}
}

// Prepare starts rendering phrase unless it is already the current phrase
// and returns the generation serving it.
func (s *Speaker) Prepare(phrase string) uint64 {
	if s.render == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if phrase != s.phrase {
		s.startLocked(phrase)
	}
	return s.gen
}

// Speak plays phrase now if its rendering is ready. Otherwise the rendering
// is started (or left running) and played when Accept is called for it.
func (s *Speaker) Speak(phrase string) error {
	if s.render == nil {
		return ErrNoSpeech
	}
	s.mu.Lock()
	if phrase != s.phrase {
		s.startLocked(phrase)
	}
	if s.path == "" {
		s.wantPlay = true
		s.mu.Unlock()
		return nil
	}
	path := s.path
	s.mu.Unlock()
	return s.play(path)
}

// Accept plays the rendering for gen if it is still current and a Speak is
// waiting on it. It reports whether anything was played.
func (s *Speaker) Accept(gen uint64) bool {
	s.mu.Lock()
	if gen != s.gen || !s.wantPlay || s.path == "" {
		s.mu.Unlock()
		return false
	}
	s.wantPlay = false
	path := s.path
	s.mu.Unlock()

	if err := s.play(path); err != nil {
		s.log.Warn("speech playback failed", zap.Uint64("generation", gen), zap.Error(err))
	}
	return true
}

// Hush drops a pending play request. Rendering continues.
func (s *Speaker) Hush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wantPlay = false
}

// Close cancels any rendering in flight.
func (s *Speaker) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

func (s *Speaker) startLocked(phrase string) {
	if s.cancel != nil {
		s.cancel()
	}
	if s.path != "" {
		_ = os.Remove(s.path)
	}
	s.gen++
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.phrase = phrase
	s.path = ""

	gen := s.gen
	path := filepath.Join(s.dir, fmt.Sprintf("speech-%d.wav", gen))
	go s.run(ctx, gen, phrase, path)
}

func (s *Speaker) run(ctx context.Context, gen uint64, phrase, path string) {
	err := s.render(ctx, phrase, path)

	s.mu.Lock()
	current := gen == s.gen
	switch {
	case current && err == nil:
		s.path = path
	case current:
		// next request for the phrase renders again
		s.phrase = ""
		s.wantPlay = false
	}
	s.mu.Unlock()

	if !current {
		_ = os.Remove(path)
		s.log.Debug("superseded speech rendering dropped", zap.Uint64("generation", gen), zap.String("phrase", phrase))
		return
	}
	if err != nil {
		s.log.Warn("speech rendering failed", zap.String("phrase", phrase), zap.Error(err))
	}
	if s.notify != nil {
		s.notify(SpeechReady{Generation: gen, Phrase: phrase, Err: err})
	}
}
