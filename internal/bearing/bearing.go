// Package bearing holds compass arithmetic on degree values.
package bearing

import "math"

// Normalize wraps a degree value to [0, 360).
func Normalize(d float64) float64 {
	r := math.Mod(d, 360)
	if r < 0 {
		r += 360
	}
	// -1e-15 + 360 rounds to 360 in float64
	if r >= 360 {
		r = 0
	}
	return r
}

// Delta returns the shortest signed arc turning from a to b, in (-180, 180].
// Positive is clockwise (starboard).
//
//	Delta(350, 10) == 20
//	Delta(10, 350) == -20
//	Delta(10, 190) == 180
func Delta(a, b float64) float64 {
	d := Normalize(b - a)
	if d > 180 {
		return d - 360
	}
	return d
}

// Round returns d rounded to the nearest whole degree in [0, 360).
func Round(d float64) int {
	return int(Normalize(math.Round(Normalize(d))))
}

// ToRadians converts a compass bearing to radians, 0=north, clockwise.
func ToRadians(d float64) float64 {
	return Normalize(d) * math.Pi / 180
}
