package sensor

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"

	"helm.klederson.com/internal/bearing"
	"helm.klederson.com/internal/config"
)

const demoName = "demo"

// Demo simulates a hand-held compass on a boat: the course wanders slowly
// around a base heading, each reading carries noise, and readings arrive in
// bursts separated by pauses.
type Demo struct {
	clock  clock.Clock
	rng    *rand.Rand
	base   float64
	noise  float64
	cancel context.CancelFunc
}

// NewDemo creates a demo source. seed fixes the random sequence.
func NewDemo(clk clock.Clock, seed int64) *Demo {
	return &Demo{
		clock: clk,
		rng:   rand.New(rand.NewSource(seed)),
		base:  config.DemoBaseCourse,
		noise: config.DemoNoiseDeg,
	}
}

// Start begins emitting readings to s.
func (d *Demo) Start(s Sender) error {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	go d.loop(ctx, s)
	return nil
}

func (d *Demo) loop(ctx context.Context, s Sender) {
	start := d.clock.Now()
	for {
		burst := 1 + d.rng.Intn(6)
		for i := 0; i < burst; i++ {
			now := d.clock.Now()
			s.Send(HeadingMsg{
				Magnetic: d.heading(now.Sub(start)),
				At:       now,
				Source:   demoName,
			})
			if !d.sleep(ctx, time.Duration(10+d.rng.Intn(40))*time.Millisecond) {
				return
			}
		}
		if !d.sleep(ctx, time.Duration(150+d.rng.Intn(900))*time.Millisecond) {
			return
		}
	}
}

// heading returns the simulated reading at elapsed time t.
func (d *Demo) heading(t time.Duration) float64 {
	sec := t.Seconds()
	// slow helm wander plus a quicker swell roll
	course := d.base + 25*math.Sin(sec/40) + 4*math.Sin(sec/3.1)
	return bearing.Normalize(course + d.rng.NormFloat64()*d.noise)
}

func (d *Demo) sleep(ctx context.Context, dur time.Duration) bool {
	t := d.clock.Timer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Stop halts the demo.
func (d *Demo) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
}
