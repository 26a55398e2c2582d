package feedback

import (
	"time"

	"github.com/benbjohnson/clock"
)

// ClockAlarms arms alarms on a clock and passes their epoch to Deliver,
// usually a send into the control loop.
type ClockAlarms struct {
	Clock   clock.Clock
	Deliver func(epoch uint64)
}

func (a ClockAlarms) Arm(d time.Duration, epoch uint64) func() {
	t := a.Clock.AfterFunc(d, func() { a.Deliver(epoch) })
	return func() { t.Stop() }
}
