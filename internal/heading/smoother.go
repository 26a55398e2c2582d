// Package heading turns an irregular stream of compass readings into a
// single smoothed heading.
package heading

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"helm.klederson.com/internal/bearing"
	"helm.klederson.com/internal/config"
)

// ErrUnavailable is returned when no reading has been recorded yet.
// Callers must not treat it as a heading of zero.
var ErrUnavailable = errors.New("heading unavailable")

// Reading is a single timestamped compass value in degrees.
type Reading struct {
	Value float64
	At    time.Time
}

// Smoother keeps recent readings newest-first and produces a smoothed value
// on demand.
type Smoother struct {
	mu       sync.RWMutex
	clock    clock.Clock
	readings []Reading
}

// NewSmoother creates an empty smoother that reads "now" from clk.
func NewSmoother(clk clock.Clock) *Smoother {
	return &Smoother{clock: clk}
}

// Add records a reading. Out-of-order timestamps are inserted in place so the
// history stays newest-first. Once more than config.MaxReadings are held,
// readings older than config.MaxReadingAge are dropped.
func (s *Smoother) Add(value float64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Reading{Value: bearing.Normalize(value), At: at}
	idx := slices.IndexFunc(s.readings, func(o Reading) bool { return !o.At.After(at) })
	if idx < 0 {
		idx = len(s.readings)
	}
	s.readings = slices.Insert(s.readings, idx, r)

	if len(s.readings) > config.MaxReadings {
		cutoff := s.clock.Now().Add(-config.MaxReadingAge)
		s.readings = slices.DeleteFunc(s.readings, func(o Reading) bool {
			return o.At.Before(cutoff)
		})
	}
}

// Len returns the number of retained readings.
func (s *Smoother) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}

// Latest returns the newest reading.
func (s *Smoother) Latest() (Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.readings) == 0 {
		return Reading{}, false
	}
	return s.readings[0], true
}

// Value returns the smoothed heading for the sensitivity preset at index.
func (s *Smoother) Value(index int) (float64, error) {
	return s.ValueWith(ProfileAt(index))
}

// ValueWith returns the smoothed heading for an explicit profile.
//
// The irregular history is first resampled onto a fixed config.SampleStep
// grid, walking back from now, so the decay is per unit of time rather than
// per reading. The result is the newest value corrected by the decay-weighted
// mean circular offset of the resampled series.
func (s *Smoother) ValueWith(p Profile) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch len(s.readings) {
	case 0:
		return 0, ErrUnavailable
	case 1:
		return s.readings[0].Value, nil
	}

	samples := s.resample(s.clock.Now(), p.CutoffSampleCount)
	recent := samples[0]

	var sum float64
	w := 1.0
	for _, v := range samples {
		sum += w * bearing.Delta(recent, v)
		w *= p.DecayFactor
	}
	return bearing.Normalize(recent + sum/float64(len(samples))), nil
}

// resample emits one value per grid step, newest first, holding each reading
// until the next newer one. It stops at limit samples or once the grid passes
// the oldest reading. The first sample is always the newest reading.
// Caller holds the lock and guarantees at least one reading.
func (s *Smoother) resample(now time.Time, limit int) []float64 {
	if limit < 1 {
		limit = 1
	}
	out := make([]float64, 0, limit)

	t := now
	if s.readings[0].At.After(t) {
		t = s.readings[0].At
	}

	i := 0
	for len(out) < limit {
		for i < len(s.readings) && s.readings[i].At.After(t) {
			i++
		}
		if i == len(s.readings) {
			break
		}
		out = append(out, s.readings[i].Value)
		t = t.Add(-config.SampleStep)
	}
	return out
}
