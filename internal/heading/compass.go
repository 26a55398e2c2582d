package heading

import (
	"time"

	"github.com/benbjohnson/clock"

	"helm.klederson.com/internal/config"
)

// Compass smooths magnetic and true headings independently so the north
// reference can be switched without losing history.
type Compass struct {
	Magnetic *Smoother
	True     *Smoother
}

// NewCompass creates a pair of empty smoothers sharing clk.
func NewCompass(clk clock.Clock) *Compass {
	return &Compass{
		Magnetic: NewSmoother(clk),
		True:     NewSmoother(clk),
	}
}

// Add records one sample for both references.
func (c *Compass) Add(magnetic, trueHeading float64, at time.Time) {
	c.Magnetic.Add(magnetic, at)
	c.True.Add(trueHeading, at)
}

// For returns the smoother feeding the given reference.
func (c *Compass) For(ref config.NorthReference) *Smoother {
	if ref == config.NorthTrue {
		return c.True
	}
	return c.Magnetic
}

// Value returns the smoothed heading for ref at sensitivity index.
func (c *Compass) Value(ref config.NorthReference, index int) (float64, error) {
	return c.For(ref).Value(index)
}
