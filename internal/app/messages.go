package app

import (
	"time"

	"helm.klederson.com/internal/audio"
	"helm.klederson.com/internal/config"
)

// TickMsg triggers a frame update for animation.
type TickMsg time.Time

// ModelTickMsg forces a navigation recompute so the smoothed heading keeps
// converging between readings.
type ModelTickMsg time.Time

// SpeechReadyMsg reports a finished heading rendering.
type SpeechReadyMsg audio.SpeechReady

// SettingsChangedMsg carries reloaded settings.
type SettingsChangedMsg struct {
	Settings config.Settings
}
