package steering

import (
	"helm.klederson.com/internal/bearing"
	"helm.klederson.com/internal/config"
)

// State is a snapshot of the navigation fields.
type State struct {
	Heading      int  // Smoothed heading, whole degrees
	HeadingValid bool // False until the first reading arrives
	Target       int
	Tolerance    float64
	Sensitivity  int
	North        config.NorthReference
	Correction   Correction
}

// Model owns the navigation state. Every mutation recomputes the correction
// and, if anything changed, notifies subscribers in registration order.
// It is not safe for concurrent use; drive it from the control loop.
type Model struct {
	state         State
	tackDegrees   int
	adjustDegrees int
	listeners     []func(State)
}

// NewModel creates a model configured from s with the target at north.
func NewModel(s config.Settings) *Model {
	m := &Model{}
	m.applySettings(s)
	m.state.Correction = m.compute()
	return m
}

// Subscribe registers fn to receive the state after each change.
func (m *Model) Subscribe(fn func(State)) {
	m.listeners = append(m.listeners, fn)
}

// State returns the current snapshot.
func (m *Model) State() State { return m.state }

// Heading returns the smoothed heading and whether one is available.
func (m *Model) Heading() (int, bool) { return m.state.Heading, m.state.HeadingValid }

// Target returns the target heading.
func (m *Model) Target() int { return m.state.Target }

// Sensitivity returns the active smoothing preset index.
func (m *Model) Sensitivity() int { return m.state.Sensitivity }

// North returns the active north reference.
func (m *Model) North() config.NorthReference { return m.state.North }

// Correction returns the current correction.
func (m *Model) Correction() Correction { return m.state.Correction }

// UpdateHeading records a new smoothed heading in degrees.
func (m *Model) UpdateHeading(deg float64) {
	m.mutate(func(s *State) {
		s.Heading = bearing.Round(deg)
		s.HeadingValid = true
	})
}

// ClearHeading marks the heading unavailable.
func (m *Model) ClearHeading() {
	m.mutate(func(s *State) {
		s.Heading = 0
		s.HeadingValid = false
	})
}

// SetTarget moves the target to deg.
func (m *Model) SetTarget(deg int) {
	m.mutate(func(s *State) { s.Target = normalizeInt(deg) })
}

// AdjustTarget nudges the target by the configured step; steps is usually ±1.
func (m *Model) AdjustTarget(steps int) {
	m.mutate(func(s *State) { s.Target = normalizeInt(s.Target + steps*m.adjustDegrees) })
}

// Tack swings the target by the configured tack angle toward turn.
func (m *Model) Tack(turn Direction) {
	amount := m.tackDegrees
	switch turn {
	case Port:
		amount = -amount
	case None:
		return
	}
	m.mutate(func(s *State) { s.Target = normalizeInt(s.Target + amount) })
}

// SetTolerance changes the on-course window, floored at config.MinTolerance.
func (m *Model) SetTolerance(deg float64) {
	m.mutate(func(s *State) { s.Tolerance = max(deg, config.MinTolerance) })
}

// SetSensitivity selects a smoothing preset.
func (m *Model) SetSensitivity(index int) {
	m.mutate(func(s *State) { s.Sensitivity = clampProfile(index) })
}

// SetNorthReference switches between magnetic and true headings.
func (m *Model) SetNorthReference(ref config.NorthReference) {
	m.mutate(func(s *State) { s.North = ref })
}

// ApplySettings takes tolerance, sensitivity, north reference and step sizes
// from a reloaded configuration. Target and heading are kept.
func (m *Model) ApplySettings(cfg config.Settings) {
	m.mutate(func(*State) { m.applySettings(cfg) })
}

func (m *Model) applySettings(cfg config.Settings) {
	m.state.Tolerance = max(cfg.ToleranceDegrees, config.MinTolerance)
	m.state.Sensitivity = clampProfile(cfg.Sensitivity)
	m.state.North = cfg.NorthReference
	m.tackDegrees = cfg.TackDegrees
	m.adjustDegrees = cfg.TargetAdjustDegrees
}

func (m *Model) mutate(fn func(*State)) {
	prev := m.state
	fn(&m.state)
	m.state.Correction = m.compute()
	if m.state == prev {
		return
	}
	for _, l := range m.listeners {
		l(m.state)
	}
}

func (m *Model) compute() Correction {
	if !m.state.HeadingValid {
		return Correction{}
	}
	return Compute(float64(m.state.Heading), float64(m.state.Target), m.state.Tolerance)
}

func normalizeInt(d int) int {
	r := d % 360
	if r < 0 {
		r += 360
	}
	return r
}

func clampProfile(i int) int {
	return min(max(i, 0), config.ProfileCount-1)
}
