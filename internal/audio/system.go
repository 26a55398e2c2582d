package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// maxConcurrentSounds limits simultaneous players.
const maxConcurrentSounds = 2

var (
	ErrNoPlayer = errors.New("no audio player available")
	ErrNoSpeech = errors.New("no speech synthesizer available")
	ErrBusy     = errors.New("concurrent sound limit reached")
)

// System plays cues through the platform's command line audio player and
// speaks through its text-to-speech command. Cue files are synthesized once
// into a private temp directory.
type System struct {
	log        *zap.Logger
	command    string
	args       []string
	dir        string
	files      map[Sound]string
	concurrent atomic.Int32
	speaker    *Speaker

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSystem detects the audio player, renders the cue files and prepares
// the speaker. voice is passed to the synthesizer when non-empty. notify
// receives speech renderings as they complete and may be nil.
func NewSystem(logger *zap.Logger, voice string, notify func(SpeechReady)) (*System, error) {
	cmd, args := detectAudioCommand()
	if cmd == "" {
		return nil, ErrNoPlayer
	}

	dir, err := os.MkdirTemp("", "helm-audio-*")
	if err != nil {
		return nil, fmt.Errorf("creating audio dir: %w", err)
	}

	s := &System{
		log:     logger,
		command: cmd,
		args:    args,
		dir:     dir,
		files:   make(map[Sound]string, len(tones)),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	for snd := range tones {
		path := filepath.Join(dir, snd.String()+".wav")
		if err := writeToneFile(path, snd); err != nil {
			return nil, multierr.Append(err, os.RemoveAll(dir))
		}
		s.files[snd] = path
	}

	s.speaker = NewSpeaker(logger, dir, detectSpeech(voice), s.playFile, notify)

	logger.Debug("sound output initialized",
		zap.String("player", cmd),
		zap.Bool("speech", s.speaker.render != nil),
		zap.String("platform", runtime.GOOS),
	)
	return s, nil
}

func writeToneFile(path string, snd Sound) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return WriteTone(f, snd)
}

// PlayDiscrete starts playing the cue for snd. None is a no-op.
func (s *System) PlayDiscrete(snd Sound) error {
	if snd == None {
		return nil
	}
	path, ok := s.files[snd]
	if !ok {
		return fmt.Errorf("no cue for sound %s", snd)
	}
	return s.playFile(path)
}

// Speak plays phrase through the speaker.
func (s *System) Speak(phrase string) error {
	return s.speaker.Speak(phrase)
}

// Prepare renders phrase ahead of the next Speak.
func (s *System) Prepare(phrase string) uint64 {
	return s.speaker.Prepare(phrase)
}

// Accept plays a finished rendering that a Speak is waiting for.
func (s *System) Accept(gen uint64) bool {
	return s.speaker.Accept(gen)
}

// Silence stops every player that is running.
func (s *System) Silence() {
	s.mu.Lock()
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()
	s.speaker.Hush()
}

// Close stops playback and removes the rendered files.
func (s *System) Close() error {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.speaker.Close()
	return os.RemoveAll(s.dir)
}

func (s *System) playFile(path string) error {
	if s.concurrent.Add(1) > maxConcurrentSounds {
		s.concurrent.Add(-1)
		return ErrBusy
	}

	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	go func() {
		defer s.concurrent.Add(-1)
		cmd := exec.CommandContext(ctx, s.command, s.buildArgs(path)...) //nolint:gosec // command found by detectAudioCommand
		if err := cmd.Run(); err != nil && ctx.Err() == nil {
			s.log.Debug("audio playback failed", zap.String("path", path), zap.Error(err))
		}
	}()
	return nil
}

func (s *System) buildArgs(path string) []string {
	if runtime.GOOS == "windows" {
		return []string{"-c", fmt.Sprintf("(New-Object System.Media.SoundPlayer '%s').PlaySync()", path)}
	}
	args := make([]string, len(s.args)+1)
	copy(args, s.args)
	args[len(args)-1] = path
	return args
}

// detectAudioCommand returns the player and its base arguments, or an empty
// command when none is installed.
func detectAudioCommand() (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		if path, err := exec.LookPath("afplay"); err == nil {
			return path, nil
		}
	case "linux":
		if path, err := exec.LookPath("paplay"); err == nil {
			return path, nil
		}
		if path, err := exec.LookPath("aplay"); err == nil {
			return path, []string{"-q"}
		}
	case "windows":
		if path, err := exec.LookPath("powershell.exe"); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// detectSpeech returns a renderer backed by the platform synthesizer, or nil.
func detectSpeech(voice string) RenderFunc {
	switch runtime.GOOS {
	case "darwin":
		path, err := exec.LookPath("say")
		if err != nil {
			return nil
		}
		return func(ctx context.Context, phrase, out string) error {
			args := []string{"-o", out, "--file-format=WAVE", "--data-format=LEI16@22050"}
			if voice != "" {
				args = append(args, "-v", voice)
			}
			return runSynth(ctx, path, append(args, phrase)...)
		}
	case "linux":
		for _, name := range []string{"espeak-ng", "espeak"} {
			path, err := exec.LookPath(name)
			if err != nil {
				continue
			}
			return func(ctx context.Context, phrase, out string) error {
				args := []string{"-w", out}
				if voice != "" {
					args = append(args, "-v", voice)
				}
				return runSynth(ctx, path, append(args, phrase)...)
			}
		}
	case "windows":
		path, err := exec.LookPath("powershell.exe")
		if err != nil {
			return nil
		}
		return func(ctx context.Context, phrase, out string) error {
			script := fmt.Sprintf("Add-Type -AssemblyName System.Speech; "+
				"$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; "+
				"$s.SetOutputToWaveFile('%s'); $s.Speak('%s'); $s.Dispose()", out, phrase)
			return runSynth(ctx, path, "-c", script)
		}
	}
	return nil
}

func runSynth(ctx context.Context, command string, args ...string) error {
	out, err := exec.CommandContext(ctx, command, args...).CombinedOutput() //nolint:gosec // command found by detectSpeech
	if err != nil {
		return fmt.Errorf("%s: %w: %s", filepath.Base(command), err, out)
	}
	return nil
}
