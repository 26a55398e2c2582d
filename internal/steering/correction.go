// Package steering derives course corrections from heading, target and
// tolerance, and holds the navigation state the feedback scheduler reads.
package steering

import (
	"math"

	"helm.klederson.com/internal/bearing"
	"helm.klederson.com/internal/config"
)

// Direction is the side to turn toward.
type Direction int

const (
	None Direction = iota
	Port
	Starboard
)

func (d Direction) String() string {
	switch d {
	case Port:
		return "port"
	case Starboard:
		return "starboard"
	default:
		return "none"
	}
}

// Correction is the turn needed to bring the heading onto the target.
type Correction struct {
	Amount    float64 // Signed degrees in (-180, 180]; positive turns to starboard
	Direction Direction
	Urgency   int // 0 within tolerance, up to config.MaxUrgency
}

// Compute returns the correction from current to target. Tolerance is raised
// to config.MinTolerance first, and the raised value drives both direction
// and urgency.
func Compute(current, target, tolerance float64) Correction {
	tol := math.Max(tolerance, config.MinTolerance)
	amount := bearing.Delta(current, target)
	mag := math.Abs(amount)

	dir := None
	if mag >= tol {
		if amount < 0 {
			dir = Port
		} else {
			dir = Starboard
		}
	}

	return Correction{
		Amount:    amount,
		Direction: dir,
		Urgency:   min(int(math.Floor(mag/tol)), config.MaxUrgency),
	}
}
