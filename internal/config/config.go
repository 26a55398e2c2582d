package config

import "time"

const (
	// Heading smoothing
	SampleStep      = 100 * time.Millisecond // Resampling grid for irregular readings
	ResidualWeight  = 0.05                   // Weight left on the oldest sample of a profile
	MaxReadings     = 100                    // History length before age eviction kicks in
	MaxReadingAge   = 60 * time.Second       // Readings older than this are evictable
	ProfileCount    = 5                      // Sensitivity presets, slowest first
	DefaultProfile  = 2                      // Middle preset
	ModelUpdateRate = time.Second            // Forced recompute cadence

	// Steering
	MinTolerance         = 5.0 // Degrees; smaller tolerances are raised to this
	DefaultTolerance     = 10.0
	ToleranceStep        = 1.0
	MaxUrgency           = 3
	DefaultTackDegrees   = 100
	DefaultAdjustDegrees = 10

	// Feedback cadence
	DrumInterval           = 5 * time.Second
	DefaultHeadingInterval = 12 * time.Second

	// Display
	AspectRatio  = 0.5 // Terminal char aspect correction (chars are ~2:1 tall)
	RingCount    = 2   // Concentric rings on the course rose
	PulseDecay   = 600 * time.Millisecond
	TargetFPS    = 15
	HistoryLen   = 120 // Smoothed heading samples kept for the sparkline
	EventListLen = 50  // Sound events kept for the event panel

	// Demo mode
	DemoBaseCourse = 215.0
	DemoNoiseDeg   = 6.0

	// Telemetry
	TelemetryService = "_helm._tcp"
	TelemetryDomain  = "local."

	// App
	AppName    = "HELM"
	AppVersion = "1.0"
)
