package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// NorthReference selects which smoothed heading drives navigation.
type NorthReference string

const (
	NorthMagnetic NorthReference = "magnetic"
	NorthTrue     NorthReference = "true"
)

// OnCourseFeedback is the reassurance signal played while within tolerance.
type OnCourseFeedback string

const (
	OnCourseDrum    OnCourseFeedback = "drum"
	OnCourseHeading OnCourseFeedback = "heading"
	OnCourseOff     OnCourseFeedback = "off"
)

// Source kinds.
const (
	SourceDemo = "demo"
	SourceBLE  = "ble"
	SourceNMEA = "nmea"
)

var (
	ErrInvalidOnCourse  = errors.New("invalid on_course_feedback")
	ErrInvalidNorth     = errors.New("invalid north_reference")
	ErrInvalidSource    = errors.New("invalid source kind")
	ErrInvalidInterval  = errors.New("heading_readout_interval_seconds must be positive")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidTelemetry = errors.New("telemetry advertise requires an address")
)

// Settings is the read-only runtime configuration. HELM never writes it back.
type Settings struct {
	Sensitivity            int              `mapstructure:"sensitivity"`
	ToleranceDegrees       float64          `mapstructure:"tolerance_degrees"`
	OnCourseFeedback       OnCourseFeedback `mapstructure:"on_course_feedback"`
	HeadingIntervalSeconds float64          `mapstructure:"heading_readout_interval_seconds"`
	TackDegrees            int              `mapstructure:"tack_degrees"`
	TargetAdjustDegrees    int              `mapstructure:"target_adjust_degrees"`
	NorthReference         NorthReference   `mapstructure:"north_reference"`
	DeclinationDegrees     float64          `mapstructure:"declination_degrees"`
	ResetTargetWithAudio   bool             `mapstructure:"reset_target_with_audio"`

	Source    SourceSettings    `mapstructure:"source"`
	Audio     AudioSettings     `mapstructure:"audio"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
	Log       LogSettings       `mapstructure:"log"`
}

// SourceSettings selects and configures the heading source.
type SourceSettings struct {
	Kind              string `mapstructure:"kind"`
	NMEAPort          string `mapstructure:"nmea_port"`
	NMEABaud          int    `mapstructure:"nmea_baud"`
	BLEName           string `mapstructure:"ble_name"`
	BLEService        string `mapstructure:"ble_service"`
	BLECharacteristic string `mapstructure:"ble_characteristic"`
}

// AudioSettings configures the platform sound output.
type AudioSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Voice   string `mapstructure:"voice"`
}

// TelemetrySettings configures the websocket feed.
type TelemetrySettings struct {
	Addr      string `mapstructure:"addr"`
	Advertise bool   `mapstructure:"advertise"`
}

// LogSettings configures the log file.
type LogSettings struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// HeadingInterval returns the heading read-out cadence.
func (s Settings) HeadingInterval() time.Duration {
	return time.Duration(s.HeadingIntervalSeconds * float64(time.Second))
}

// Validate normalizes clamped fields in place and rejects unknown enum values.
func (s *Settings) Validate() error {
	if s.ToleranceDegrees < MinTolerance {
		s.ToleranceDegrees = MinTolerance
	}
	if s.Sensitivity < 0 {
		s.Sensitivity = 0
	}
	if s.Sensitivity >= ProfileCount {
		s.Sensitivity = ProfileCount - 1
	}

	switch s.OnCourseFeedback {
	case OnCourseDrum, OnCourseHeading, OnCourseOff:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOnCourse, s.OnCourseFeedback)
	}
	switch s.NorthReference {
	case NorthMagnetic, NorthTrue:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidNorth, s.NorthReference)
	}
	switch s.Source.Kind {
	case SourceDemo, SourceBLE, SourceNMEA:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSource, s.Source.Kind)
	}
	switch strings.ToLower(s.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, s.Log.Level)
	}
	if s.HeadingIntervalSeconds <= 0 {
		return ErrInvalidInterval
	}
	if s.Telemetry.Advertise && s.Telemetry.Addr == "" {
		return ErrInvalidTelemetry
	}
	return nil
}

// NewViper returns a viper instance with HELM defaults and HELM_* env binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("sensitivity", DefaultProfile)
	v.SetDefault("tolerance_degrees", DefaultTolerance)
	v.SetDefault("on_course_feedback", string(OnCourseDrum))
	v.SetDefault("heading_readout_interval_seconds", DefaultHeadingInterval.Seconds())
	v.SetDefault("tack_degrees", DefaultTackDegrees)
	v.SetDefault("target_adjust_degrees", DefaultAdjustDegrees)
	v.SetDefault("north_reference", string(NorthMagnetic))
	v.SetDefault("declination_degrees", 0.0)
	v.SetDefault("reset_target_with_audio", true)

	v.SetDefault("source.kind", SourceDemo)
	v.SetDefault("source.nmea_port", "/dev/ttyUSB0")
	v.SetDefault("source.nmea_baud", 4800)
	v.SetDefault("source.ble_name", "")
	v.SetDefault("source.ble_service", "1819")
	v.SetDefault("source.ble_characteristic", "2a2c")

	v.SetDefault("audio.enabled", true)
	v.SetDefault("audio.voice", "")

	v.SetDefault("telemetry.addr", "")
	v.SetDefault("telemetry.advertise", false)

	v.SetDefault("log.file", "helm.log")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("HELM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file (explicit path, or helm.yaml from the search path)
// and decodes the result. A missing file on the search path is not an error.
func Load(v *viper.Viper, path string) (Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("helm")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/helm")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("reading config: %w", err)
		}
	}
	return Decode(v)
}

// Decode unmarshals and validates the current viper state.
func Decode(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Watch re-decodes the settings whenever the config file changes on disk and
// hands the result to onChange. It is a no-op when no file was read.
// onChange runs on the watcher goroutine.
func Watch(v *viper.Viper, onChange func(Settings, error)) bool {
	if v.ConfigFileUsed() == "" {
		return false
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(Decode(v))
	})
	v.WatchConfig()
	return true
}
