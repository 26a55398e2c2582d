package app

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"helm.klederson.com/internal/audio"
	"helm.klederson.com/internal/config"
	"helm.klederson.com/internal/feedback"
	"helm.klederson.com/internal/heading"
	"helm.klederson.com/internal/rose"
	"helm.klederson.com/internal/sensor"
	"helm.klederson.com/internal/steering"
	"helm.klederson.com/internal/telemetry"
	"helm.klederson.com/internal/ui"
)

// SpeechPreparer pre-renders heading read-outs. *audio.System satisfies it.
type SpeechPreparer interface {
	Prepare(phrase string) uint64
	Accept(gen uint64) bool
}

// Publisher receives state and sound events for remote clients.
// *telemetry.Hub satisfies it.
type Publisher interface {
	PublishState(s telemetry.Snapshot)
	PublishEvent(e audio.Event)
	ClientCount() int
}

// Options wires the collaborators of an AppModel. Speech and Publisher may
// be nil.
type Options struct {
	Clock     clock.Clock
	Logger    *zap.Logger
	Settings  config.Settings
	Output    audio.Output
	Alarms    feedback.Alarms
	Speech    SpeechPreparer
	Publisher Publisher
	// FeedbackOn starts with audio enabled, for headless runs.
	FeedbackOn bool
}

// shared holds state shared between the Bubble Tea model copies and main.go.
// Because Bubble Tea uses value receivers, pointer fields ensure all copies
// see the same underlying data.
type shared struct {
	clock     clock.Clock
	log       *zap.Logger
	settings  config.Settings
	compass   *heading.Compass
	model     *steering.Model
	scheduler *feedback.Scheduler
	pulse     *rose.Pulse
	history   *HeadingRing
	speech    SpeechPreparer
	publisher Publisher
	sources   []sensor.Source

	mode    feedback.Mode
	phrase  string
	events  []audio.Event
	source  string
	lastErr string
}

// AppModel is the root Bubble Tea model for HELM.
type AppModel struct {
	width  int
	height int
	keys   keyMap

	shared *shared
}

// New creates a new AppModel. Sound output is observed so every cue shows
// up in the event list and the telemetry feed.
func New(opts Options) AppModel {
	s := &shared{
		clock:     opts.Clock,
		log:       opts.Logger,
		settings:  opts.Settings,
		compass:   heading.NewCompass(opts.Clock),
		model:     steering.NewModel(opts.Settings),
		pulse:     rose.NewPulse(opts.Clock),
		history:   NewHeadingRing(config.HistoryLen),
		speech:    opts.Speech,
		publisher: opts.Publisher,
		source:    opts.Settings.Source.Kind,
	}
	out := &audio.Observed{Next: opts.Output, Clock: opts.Clock, Sink: s.recordEvent}
	s.scheduler = feedback.NewScheduler(opts.Clock, opts.Alarms, out, opts.Logger.Named("feedback"))
	s.model.Subscribe(func(st steering.State) {
		s.log.Debug("navigation state",
			zap.Int("heading", st.Heading),
			zap.Bool("heading_valid", st.HeadingValid),
			zap.Int("target", st.Target),
			zap.Stringer("direction", st.Correction.Direction),
			zap.Int("urgency", st.Correction.Urgency))
	})
	if opts.FeedbackOn {
		s.scheduler.Toggle(true)
	}
	s.recompute()

	return AppModel{
		keys:   defaultKeys(),
		shared: s,
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		modelTickCmd(),
	)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	s := m.shared
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		return m, tickCmd()

	case ModelTickMsg:
		s.recompute()
		if h, ok := s.model.Heading(); ok {
			s.history.Push(float64(h))
		} else {
			s.history.Reset()
		}
		return m, modelTickCmd()

	case sensor.HeadingMsg:
		magnetic, trueHeading := msg.Resolve(s.settings.DeclinationDegrees)
		s.compass.Add(magnetic, trueHeading, msg.At)
		s.source = msg.Source
		s.lastErr = ""
		s.recompute()
		return m, nil

	case sensor.ErrorMsg:
		s.log.Warn("heading source error", zap.String("source", msg.Source), zap.Error(msg.Err))
		s.lastErr = msg.Error()
		return m, nil

	case feedback.FireMsg:
		s.scheduler.Fire(msg.Epoch)
		return m, nil

	case SpeechReadyMsg:
		if msg.Err == nil && s.speech != nil {
			s.speech.Accept(msg.Generation)
		}
		return m, nil

	case SettingsChangedMsg:
		s.log.Info("settings reloaded")
		s.settings = msg.Settings
		s.model.ApplySettings(msg.Settings)
		s.recompute()
		return m, nil
	}

	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.shared
	k := m.keys

	switch {
	case key.Matches(msg, k.Quit):
		s.scheduler.Toggle(false)
		m.StopSources()
		return m, tea.Quit

	case key.Matches(msg, k.Feedback):
		s.toggleFeedback()
		return m, nil

	case key.Matches(msg, k.Mode):
		if s.mode == feedback.Steering {
			s.mode = feedback.Compass
		} else {
			s.mode = feedback.Steering
		}

	case key.Matches(msg, k.Port):
		s.model.AdjustTarget(-1)

	case key.Matches(msg, k.Starboard):
		s.model.AdjustTarget(1)

	case key.Matches(msg, k.TackPort):
		s.model.Tack(steering.Port)

	case key.Matches(msg, k.TackStarboard):
		s.model.Tack(steering.Starboard)

	case key.Matches(msg, k.TargetHere):
		if h, ok := s.model.Heading(); ok {
			s.model.SetTarget(h)
		}

	case key.Matches(msg, k.Sensitivity):
		s.model.SetSensitivity(int(msg.String()[0] - '1'))

	case key.Matches(msg, k.Narrower):
		s.model.SetTolerance(s.model.State().Tolerance - config.ToleranceStep)

	case key.Matches(msg, k.Wider):
		s.model.SetTolerance(s.model.State().Tolerance + config.ToleranceStep)

	case key.Matches(msg, k.North):
		if s.model.North() == config.NorthMagnetic {
			s.model.SetNorthReference(config.NorthTrue)
		} else {
			s.model.SetNorthReference(config.NorthMagnetic)
		}

	default:
		return m, nil
	}

	s.recompute()
	return m, nil
}

// toggleFeedback flips audio. Turning on can first snap the target to the
// current heading so feedback starts on course.
func (s *shared) toggleFeedback() {
	if s.scheduler.Enabled() {
		s.scheduler.Toggle(false)
		s.publish()
		return
	}
	if s.settings.ResetTargetWithAudio {
		if h, ok := s.model.Heading(); ok {
			s.model.SetTarget(h)
		}
	}
	s.recompute()
	s.scheduler.Toggle(true)
	s.publish()
}

// recompute pulls the smoothed heading into the model and reschedules
// feedback for the resulting state.
func (s *shared) recompute() {
	v, err := s.compass.Value(s.model.North(), s.model.Sensitivity())
	if err != nil {
		s.model.ClearHeading()
	} else {
		s.model.UpdateHeading(v)
	}

	h, ok := s.model.Heading()
	phrase := ""
	if ok {
		phrase = audio.HeadingPhrase(h)
	}
	if phrase != s.phrase {
		s.phrase = phrase
		s.scheduler.SetHeadingPhrase(phrase)
		if phrase != "" && s.speech != nil {
			s.speech.Prepare(phrase)
		}
	}

	// Without a heading there is nothing to reassure about or correct.
	d := feedback.Decision{Sound: audio.None}
	if ok {
		c := s.model.Correction()
		d = feedback.Decide(s.mode, c.Urgency, c.Direction, s.settings.OnCourseFeedback, s.settings.HeadingInterval())
	}
	s.scheduler.Reschedule(d)
	s.publish()
}

func (s *shared) recordEvent(e audio.Event) {
	s.events = append(s.events, e)
	if len(s.events) > config.EventListLen {
		s.events = s.events[len(s.events)-config.EventListLen:]
	}
	if e.Err == "" && e.Kind != audio.EventSilence {
		s.pulse.Beat(audio.ParseSound(e.Sound))
	}
	if s.publisher != nil {
		s.publisher.PublishEvent(e)
	}
}

func (s *shared) publish() {
	if s.publisher != nil {
		s.publisher.PublishState(s.snapshot())
	}
}

func (s *shared) snapshot() telemetry.Snapshot {
	st := s.model.State()
	snap := telemetry.Snapshot{
		Target:      st.Target,
		Correction:  st.Correction.Amount,
		Direction:   st.Correction.Direction.String(),
		Urgency:     st.Correction.Urgency,
		Tolerance:   st.Tolerance,
		Sensitivity: st.Sensitivity,
		North:       string(st.North),
		Mode:        s.mode.String(),
		Feedback:    s.scheduler.Enabled(),
	}
	if st.HeadingValid {
		h := st.Heading
		snap.Heading = &h
	}
	return snap
}

func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing HELM..."
	}
	s := m.shared
	st := s.model.State()

	menuH := 1
	statusH := 1
	bodyH := m.height - menuH - statusH
	if bodyH < 5 {
		bodyH = 5
	}

	roseW := m.width * 3 / 5
	if roseW < 30 {
		roseW = 30
	}
	sideW := m.width - roseW
	if sideW < 24 {
		sideW = 24
		roseW = m.width - sideW
	}

	menuBar := ui.RenderMenuBar(m.width, s.mode.String(), s.scheduler.Enabled())

	innerW := max(roseW-4, 5)
	innerH := max(bodyH-4, 3)
	frame := rose.Frame{
		Heading:      float64(st.Heading),
		HeadingValid: st.HeadingValid,
		Target:       float64(st.Target),
		Tolerance:    st.Tolerance,
		Direction:    st.Correction.Direction,
		Pulse:        s.pulse.Intensity(),
	}
	rosePanel := ui.RenderRosePanel(roseW, bodyH, rose.Render(innerW, innerH, frame), rose.RenderLegend(innerW))

	helmH := bodyH * 3 / 5
	info := ui.HelmInfo{
		Heading:      st.Heading,
		HeadingValid: st.HeadingValid,
		Target:       st.Target,
		Correction:   st.Correction,
		Mode:         s.mode.String(),
		FeedbackOn:   s.scheduler.Enabled(),
	}
	if d, ok := s.scheduler.Decision(); ok && d.Sound != audio.None {
		info.Cue = d.Sound.String()
		info.Interval = d.Interval
	}
	// one point is not a trend
	var track []float64
	if s.history.Len() > 1 {
		track = s.history.Values()
	}
	side := lipgloss.JoinVertical(lipgloss.Left,
		ui.RenderHelmPanel(info, sideW, helmH, track),
		ui.RenderEventList(s.events, sideW, bodyH-helmH),
	)

	clients := 0
	if s.publisher != nil {
		clients = s.publisher.ClientCount()
	}
	status := ui.StatusInfo{
		Source:      s.source,
		Connected:   st.HeadingValid,
		North:       string(st.North),
		Sensitivity: st.Sensitivity,
		Tolerance:   st.Tolerance,
		Clients:     clients,
		Err:         s.lastErr,
	}
	raw := s.compass.For(st.North)
	if latest, ok := raw.Latest(); ok {
		status.Readings = raw.Len()
		status.Raw = latest.Value
	}
	statusBar := ui.RenderStatusBar(m.width, status)

	return ui.ComposeLayout(menuBar, rosePanel, side, statusBar)
}

// StartSource starts a heading source delivering into p. Must be called
// before p.Run().
func (m *AppModel) StartSource(src sensor.Source, p sensor.Sender) error {
	if err := src.Start(p); err != nil {
		return err
	}
	m.shared.sources = append(m.shared.sources, src)
	return nil
}

// StopSources stops every started source.
func (m AppModel) StopSources() {
	for _, src := range m.shared.sources {
		src.Stop()
	}
	m.shared.sources = nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(config.TargetFPS), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func modelTickCmd() tea.Cmd {
	return tea.Tick(config.ModelUpdateRate, func(t time.Time) tea.Msg {
		return ModelTickMsg(t)
	})
}
