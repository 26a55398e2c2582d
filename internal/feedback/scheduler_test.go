package feedback

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"helm.klederson.com/internal/audio"
)

type pending struct {
	at        time.Time
	epoch     uint64
	cancelled bool
}

// fakeAlarms runs alarms synchronously against a mock clock. With leaky set,
// cancelled alarms still fire so the epoch guard is exercised.
type fakeAlarms struct {
	mock    *clock.Mock
	pending []*pending
	armed   int
	leaky   bool
}

func (f *fakeAlarms) Arm(d time.Duration, epoch uint64) func() {
	p := &pending{at: f.mock.Now().Add(d), epoch: epoch}
	f.pending = append(f.pending, p)
	f.armed++
	return func() { p.cancelled = true }
}

// advance moves the clock forward by d, firing due alarms in order.
func (f *fakeAlarms) advance(s *Scheduler, d time.Duration) {
	target := f.mock.Now().Add(d)
	for {
		sort.SliceStable(f.pending, func(i, j int) bool { return f.pending[i].at.Before(f.pending[j].at) })
		if len(f.pending) == 0 || f.pending[0].at.After(target) {
			break
		}
		p := f.pending[0]
		f.pending = f.pending[1:]
		if p.cancelled && !f.leaky {
			continue
		}
		f.mock.Set(p.at)
		s.Fire(p.epoch)
	}
	f.mock.Set(target)
}

func newTestScheduler(t *testing.T) (*Scheduler, *fakeAlarms, *audio.Recorder) {
	t.Helper()
	mock := clock.NewMock()
	alarms := &fakeAlarms{mock: mock}
	rec := &audio.Recorder{}
	return NewScheduler(mock, alarms, rec, zaptest.NewLogger(t)), alarms, rec
}

func TestScheduler_IdenticalDecisionIsNoop(t *testing.T) {
	s, alarms, rec := newTestScheduler(t)
	d := Decision{Sound: audio.Drum, Interval: 5 * time.Second}
	s.Reschedule(d)
	s.Toggle(true)
	require.Equal(t, []string{"drum"}, rec.Sounds())

	alarms.advance(s, 2*time.Second)
	before, ok := s.Timer()
	require.True(t, ok)
	armed := alarms.armed

	s.Reschedule(d)

	after, _ := s.Timer()
	require.Equal(t, before, after)
	require.Equal(t, armed, alarms.armed)
	require.Equal(t, []string{"drum"}, rec.Sounds())
}

func TestScheduler_NewIntervalAlreadyConsumedPlaysNow(t *testing.T) {
	s, alarms, rec := newTestScheduler(t)
	s.Reschedule(Decision{Sound: audio.Low, Interval: 5 * time.Second})
	s.Toggle(true)
	rec.Reset()

	// 2s consumed, 3s remaining
	alarms.advance(s, 2*time.Second)
	s.Reschedule(Decision{Sound: audio.High, Interval: time.Second})
	require.Equal(t, []string{"high"}, rec.Sounds())

	ts, ok := s.Timer()
	require.True(t, ok)
	require.Equal(t, time.Second, ts.Interval)
	require.Equal(t, alarms.mock.Now().Add(time.Second), ts.FireAt)

	alarms.advance(s, 3*time.Second)
	require.Equal(t, []string{"high", "high", "high", "high"}, rec.Sounds())
}

func TestScheduler_NewIntervalNotYetConsumedWaitsRemainder(t *testing.T) {
	s, alarms, rec := newTestScheduler(t)
	s.Reschedule(Decision{Sound: audio.Low, Interval: 5 * time.Second})
	s.Toggle(true)
	rec.Reset()

	alarms.advance(s, 2*time.Second)
	s.Reschedule(Decision{Sound: audio.High, Interval: 4 * time.Second})
	require.Empty(t, rec.Sounds(), "not immediate")

	ts, ok := s.Timer()
	require.True(t, ok)
	require.Equal(t, alarms.mock.Now().Add(2*time.Second), ts.FireAt)

	alarms.advance(s, 1900*time.Millisecond)
	require.Empty(t, rec.Sounds())

	alarms.advance(s, 100*time.Millisecond)
	require.Equal(t, []string{"high"}, rec.Sounds())

	// then repeats at the new cadence
	alarms.advance(s, 4*time.Second)
	require.Equal(t, []string{"high", "high"}, rec.Sounds())
}

func TestScheduler_ConsumedTimeCarriesAcrossOneShot(t *testing.T) {
	s, alarms, rec := newTestScheduler(t)
	s.Reschedule(Decision{Sound: audio.Low, Interval: 5 * time.Second})
	s.Toggle(true)
	rec.Reset()

	alarms.advance(s, 2*time.Second)
	s.Reschedule(Decision{Sound: audio.High, Interval: 4 * time.Second})

	// 3s since the last beat; a 2.5s cadence is already due
	alarms.advance(s, time.Second)
	s.Reschedule(Decision{Sound: audio.High, Interval: 2500 * time.Millisecond})
	require.Equal(t, []string{"high"}, rec.Sounds())
}

func TestScheduler_ExpiredTimerPlaysNow(t *testing.T) {
	s, alarms, rec := newTestScheduler(t)
	alarms.leaky = true
	s.Reschedule(Decision{Sound: audio.Drum, Interval: 5 * time.Second})
	s.Toggle(true)
	rec.Reset()

	// clock passes fireAt without the alarm being delivered yet
	alarms.mock.Add(6 * time.Second)
	s.Reschedule(Decision{Sound: audio.High, Interval: 5 * time.Second})
	require.Equal(t, []string{"high"}, rec.Sounds())
}

func TestScheduler_ToggleOffCancels(t *testing.T) {
	s, alarms, rec := newTestScheduler(t)
	s.Reschedule(Decision{Sound: audio.Drum, Interval: 5 * time.Second})
	s.Toggle(true)
	rec.Reset()

	alarms.advance(s, 2*time.Second)
	s.Toggle(false)
	_, ok := s.Timer()
	require.False(t, ok)

	alarms.advance(s, 10*time.Second)
	require.Equal(t, []audio.Event{{Kind: audio.EventSilence}}, rec.Events())
	require.False(t, s.Enabled())

	d, ok := s.Decision()
	require.True(t, ok)
	require.Equal(t, audio.Drum, d.Sound, "decision survives toggle off")
}

func TestScheduler_StaleFireIgnored(t *testing.T) {
	s, alarms, rec := newTestScheduler(t)
	alarms.leaky = true
	s.Reschedule(Decision{Sound: audio.Low, Interval: 5 * time.Second})
	s.Toggle(true)
	alarms.advance(s, time.Second)
	s.Reschedule(Decision{Sound: audio.High, Interval: time.Second})
	rec.Reset()

	// the cancelled 5s alarm still goes off at t=5s
	alarms.advance(s, 4*time.Second)
	require.Equal(t, []string{"high", "high", "high", "high"}, rec.Sounds())

	s.Toggle(false)
	rec.Reset()
	alarms.advance(s, 10*time.Second)
	require.Empty(t, rec.Sounds())
}

func TestScheduler_FireWithOldEpochDirectly(t *testing.T) {
	s, _, rec := newTestScheduler(t)
	s.Reschedule(Decision{Sound: audio.Drum, Interval: 5 * time.Second})
	s.Toggle(true)
	ts, _ := s.Timer()
	rec.Reset()

	s.Fire(ts.Epoch - 1)
	s.Fire(ts.Epoch + 1)
	require.Empty(t, rec.Sounds())
}

func TestScheduler_RepeatsAtCadence(t *testing.T) {
	s, alarms, rec := newTestScheduler(t)
	s.Toggle(true)
	require.Empty(t, rec.Sounds(), "nothing to play before a decision")

	s.Reschedule(Decision{Sound: audio.Drum, Interval: 5 * time.Second})
	alarms.advance(s, 20*time.Second)
	require.Len(t, rec.Sounds(), 5)
}

func TestScheduler_ZeroIntervalArmsNothing(t *testing.T) {
	s, alarms, rec := newTestScheduler(t)
	s.Reschedule(Decision{Sound: audio.Drum, Interval: 5 * time.Second})
	s.Toggle(true)
	alarms.advance(s, time.Second)

	s.Reschedule(Decision{Sound: audio.None})
	_, ok := s.Timer()
	require.False(t, ok)

	rec.Reset()
	alarms.advance(s, 30*time.Second)
	require.Empty(t, rec.Sounds())

	s.Reschedule(Decision{Sound: audio.Drum, Interval: 5 * time.Second})
	require.Equal(t, []string{"drum"}, rec.Sounds())
}

func TestScheduler_DisabledOnlyRecords(t *testing.T) {
	s, alarms, rec := newTestScheduler(t)
	s.Reschedule(Decision{Sound: audio.Low, Interval: time.Second})
	s.Reschedule(Decision{Sound: audio.High, Interval: 2500 * time.Millisecond})
	require.Zero(t, alarms.armed)
	require.Empty(t, rec.Events())

	// on resumes with the latest decision
	s.Toggle(true)
	require.Equal(t, []string{"high"}, rec.Sounds())
	ts, ok := s.Timer()
	require.True(t, ok)
	require.Equal(t, 2500*time.Millisecond, ts.Interval)
}

func TestScheduler_HeadingReadout(t *testing.T) {
	s, alarms, rec := newTestScheduler(t)
	s.Reschedule(Decision{Sound: audio.Heading, Interval: 12 * time.Second})
	s.Toggle(true)
	require.Empty(t, rec.Events(), "no phrase yet")

	s.SetHeadingPhrase(audio.HeadingPhrase(130))
	alarms.advance(s, 12*time.Second)

	ev := rec.Events()
	require.Len(t, ev, 1)
	assert.Equal(t, audio.EventSpeak, ev[0].Kind)
	assert.Equal(t, "heading 1 3 0", ev[0].Phrase)
}

func TestScheduler_OutputFailureKeepsTiming(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	mock := clock.NewMock()
	alarms := &fakeAlarms{mock: mock}
	rec := &audio.Recorder{Err: errors.New("synth crashed")}
	s := NewScheduler(mock, alarms, rec, zap.New(core))

	s.Reschedule(Decision{Sound: audio.Drum, Interval: 5 * time.Second})
	s.Toggle(true)
	before, ok := s.Timer()
	require.True(t, ok)

	alarms.advance(s, 5*time.Second)
	after, ok := s.Timer()
	require.True(t, ok)
	require.Equal(t, before.FireAt.Add(5*time.Second), after.FireAt)
	require.True(t, s.Enabled())

	entries := logs.FilterMessage("sound output failed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "drum", entries[0].ContextMap()["sound"])
	assert.Equal(t, "synth crashed", entries[0].ContextMap()["error"])
}

func TestScheduler_LateDeliveryKeepsBeat(t *testing.T) {
	s, alarms, rec := newTestScheduler(t)
	s.Reschedule(Decision{Sound: audio.Drum, Interval: 5 * time.Second})
	s.Toggle(true)
	ts, _ := s.Timer()

	// delivered 300ms late
	alarms.mock.Set(ts.FireAt.Add(300 * time.Millisecond))
	alarms.pending = nil
	s.Fire(ts.Epoch)

	next, ok := s.Timer()
	require.True(t, ok)
	require.Equal(t, ts.FireAt.Add(5*time.Second), next.FireAt)
	require.Equal(t, []string{"drum", "drum"}, rec.Sounds())
}
