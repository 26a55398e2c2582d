package heading

import (
	"math"
	"time"

	"helm.klederson.com/internal/config"
)

// Profile is a sensitivity preset. Profiles differ only in how many
// resampled steps carry non-negligible weight.
type Profile struct {
	CutoffDuration    time.Duration
	CutoffSampleCount int
	DecayFactor       float64
}

// cutoffSamples lists the preset windows, slowest first. At a 0.1s step
// the slowest preset looks back 20 seconds.
var cutoffSamples = [config.ProfileCount]int{200, 100, 50, 25, 10}

// Profiles holds the presets in index order.
var Profiles = buildProfiles()

func buildProfiles() [config.ProfileCount]Profile {
	var ps [config.ProfileCount]Profile
	for i, n := range cutoffSamples {
		ps[i] = NewProfile(n)
	}
	return ps
}

// NewProfile builds a profile whose weight decays to config.ResidualWeight
// after n samples.
func NewProfile(n int) Profile {
	return Profile{
		CutoffDuration:    time.Duration(n) * config.SampleStep,
		CutoffSampleCount: n,
		DecayFactor:       math.Exp(math.Log(config.ResidualWeight) / float64(n)),
	}
}

// ProfileAt returns the preset at index i, clamped to the valid range.
func ProfileAt(i int) Profile {
	if i < 0 {
		i = 0
	}
	if i >= len(Profiles) {
		i = len(Profiles) - 1
	}
	return Profiles[i]
}
