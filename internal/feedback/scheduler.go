package feedback

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"helm.klederson.com/internal/audio"
)

// Alarms arms one-shot callbacks. When an alarm goes off its epoch must be
// handed back to Scheduler.Fire on the control loop. The returned function
// cancels the alarm; a fire that still slips through is ignored by epoch.
type Alarms interface {
	Arm(d time.Duration, epoch uint64) (cancel func())
}

// TimerState describes the single outstanding alarm.
type TimerState struct {
	FireAt   time.Time
	Interval time.Duration // cadence the alarm was armed for
	Epoch    uint64
}

// FireMsg carries an alarm back into the control loop.
type FireMsg struct {
	Epoch uint64
}

// Scheduler owns the feedback timer. It keeps at most one alarm armed and
// plays the current decision's cue each time it fires.
//
// When the decision changes mid-interval the time already spent waiting is
// kept: if the new interval has already elapsed the cue plays at once,
// otherwise only the remainder of the new interval is waited out.
//
// Scheduler is not safe for concurrent use; call it from the control loop.
type Scheduler struct {
	clock  clock.Clock
	alarms Alarms
	out    audio.Output
	log    *zap.Logger

	enabled     bool
	current     Decision
	hasDecision bool
	phrase      string

	epoch  uint64
	timer  *TimerState
	cancel func()
}

// NewScheduler creates a disabled scheduler.
func NewScheduler(clk clock.Clock, alarms Alarms, out audio.Output, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		clock:  clk,
		alarms: alarms,
		out:    out,
		log:    logger,
	}
}

// Enabled reports whether feedback is on.
func (s *Scheduler) Enabled() bool { return s.enabled }

// Decision returns the current decision, if one has been made.
func (s *Scheduler) Decision() (Decision, bool) { return s.current, s.hasDecision }

// Timer returns the outstanding alarm, if any.
func (s *Scheduler) Timer() (TimerState, bool) {
	if s.timer == nil {
		return TimerState{}, false
	}
	return *s.timer, true
}

// SetHeadingPhrase sets what heading read-outs say. An empty phrase skips
// read-outs, which is how an unavailable heading is handled.
func (s *Scheduler) SetHeadingPhrase(phrase string) { s.phrase = phrase }

// Reschedule adopts d as the current decision. An unchanged decision leaves
// both the timer and the output untouched. While disabled the decision is
// only recorded.
func (s *Scheduler) Reschedule(d Decision) {
	if s.hasDecision && d == s.current {
		return
	}
	s.current = d
	s.hasDecision = true
	if !s.enabled {
		return
	}

	now := s.clock.Now()
	if s.timer == nil || !s.timer.FireAt.After(now) {
		s.playAndRepeat(now)
		return
	}

	remaining := s.timer.FireAt.Sub(now)
	consumed := s.timer.Interval - remaining
	if d.Interval <= consumed {
		s.log.Debug("new cadence already due", zap.Stringer("sound", d.Sound), zap.Duration("consumed", consumed))
		s.playAndRepeat(now)
		return
	}

	// Intervals are measured from the last beat, so the one-shot is armed as
	// if it had been running at the new cadence all along.
	s.arm(now, d.Interval-consumed, d.Interval)
}

// Toggle turns feedback on or off. Turning on plays the current decision
// immediately and starts its timer; turning off cancels the timer and
// silences the output but keeps the decision.
func (s *Scheduler) Toggle(on bool) {
	if on == s.enabled {
		return
	}
	s.enabled = on
	if !on {
		s.cancelTimer()
		s.out.Silence()
		s.log.Debug("feedback off")
		return
	}
	s.log.Debug("feedback on", zap.Bool("has_decision", s.hasDecision))
	if s.hasDecision {
		s.playAndRepeat(s.clock.Now())
	}
}

// Fire handles an alarm. Alarms from an earlier epoch are ignored.
func (s *Scheduler) Fire(epoch uint64) {
	if !s.enabled || s.timer == nil || epoch != s.timer.Epoch {
		s.log.Debug("stale alarm ignored", zap.Uint64("epoch", epoch), zap.Uint64("current", s.epoch))
		return
	}

	now := s.clock.Now()
	s.play(s.current)

	interval := s.current.Interval
	if interval <= 0 {
		s.cancelTimer()
		return
	}
	// Keep the beat anchored to the scheduled time rather than to delivery.
	delay := s.timer.FireAt.Add(interval).Sub(now)
	if delay <= 0 {
		delay = interval
	}
	s.arm(now, delay, interval)
}

func (s *Scheduler) playAndRepeat(now time.Time) {
	s.cancelTimer()
	s.play(s.current)
	if s.current.Interval > 0 {
		s.arm(now, s.current.Interval, s.current.Interval)
	}
}

func (s *Scheduler) arm(now time.Time, delay, interval time.Duration) {
	s.cancelTimer()
	s.epoch++
	s.timer = &TimerState{
		FireAt:   now.Add(delay),
		Interval: interval,
		Epoch:    s.epoch,
	}
	s.cancel = s.alarms.Arm(delay, s.epoch)
}

func (s *Scheduler) cancelTimer() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.timer != nil {
		s.timer = nil
		s.epoch++
	}
}

func (s *Scheduler) play(d Decision) {
	var err error
	switch d.Sound {
	case audio.None:
		return
	case audio.Heading:
		if s.phrase == "" {
			s.log.Debug("heading read-out skipped, no heading")
			return
		}
		err = s.out.Speak(s.phrase)
	default:
		err = s.out.PlayDiscrete(d.Sound)
	}
	if err != nil {
		s.log.Warn("sound output failed", zap.Stringer("sound", d.Sound), zap.Error(err))
	}
}
