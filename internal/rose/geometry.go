// Package rose draws a heading-up course rose: the bow points to the top of
// the panel and the target, the tolerance window and the cardinals turn
// around it.
package rose

import (
	"math"

	"helm.klederson.com/internal/bearing"
	"helm.klederson.com/internal/config"
)

// CellDistance computes the distance from a cell to the rose center,
// accounting for terminal aspect ratio.
func CellDistance(col, row, centerX, centerY int) float64 {
	dx := float64(col - centerX)
	dy := float64(row-centerY) / config.AspectRatio
	return math.Sqrt(dx*dx + dy*dy)
}

// CellAngle computes the angle from center to a cell.
// Returns radians in [0, 2π), where 0 is up, increasing clockwise.
func CellAngle(col, row, centerX, centerY int) float64 {
	dx := float64(col - centerX)
	dy := float64(row-centerY) / config.AspectRatio
	angle := math.Atan2(dx, -dy)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return angle
}

// RingChar returns the character drawing a ring at the given angle.
func RingChar(angle float64) rune {
	sector := int(math.Round(NormalizeAngle(angle)/(math.Pi/4))) % 8
	switch sector {
	case 0, 4:
		return '-'
	case 1, 5:
		return '/'
	case 2, 6:
		return '|'
	default:
		return '\\'
	}
}

// NormalizeAngle wraps an angle to [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// AngleDiff returns the shortest angular distance between two angles.
// Result is in [0, π].
func AngleDiff(a, b float64) float64 {
	d := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// Relative returns where a compass bearing sits on a heading-up rose, in
// radians from the top, clockwise.
func Relative(heading, deg float64) float64 {
	return NormalizeAngle(bearing.ToRadians(bearing.Delta(heading, deg)))
}

// Project returns the cell at angle and radius r from the center.
func Project(angle, r float64, centerX, centerY int) (col, row int) {
	col = centerX + int(math.Round(r*math.Sin(angle)))
	row = centerY - int(math.Round(r*math.Cos(angle)*config.AspectRatio))
	return col, row
}
