package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "helm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	s, err := Load(NewViper(), "")
	require.NoError(t, err)

	require.Equal(t, DefaultProfile, s.Sensitivity)
	require.Equal(t, DefaultTolerance, s.ToleranceDegrees)
	require.Equal(t, OnCourseDrum, s.OnCourseFeedback)
	require.Equal(t, DefaultHeadingInterval, s.HeadingInterval())
	require.Equal(t, DefaultTackDegrees, s.TackDegrees)
	require.Equal(t, DefaultAdjustDegrees, s.TargetAdjustDegrees)
	require.Equal(t, NorthMagnetic, s.NorthReference)
	require.Equal(t, SourceDemo, s.Source.Kind)
	require.True(t, s.ResetTargetWithAudio)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `sensitivity: 4
tolerance_degrees: 15
on_course_feedback: heading
heading_readout_interval_seconds: 20
tack_degrees: 90
target_adjust_degrees: 5
north_reference: "true"
declination_degrees: -2.5
source:
  kind: nmea
  nmea_port: /dev/ttyS1
  nmea_baud: 38400
log:
  level: debug
`)

	s, err := Load(NewViper(), path)
	require.NoError(t, err)

	require.Equal(t, 4, s.Sensitivity)
	require.Equal(t, 15.0, s.ToleranceDegrees)
	require.Equal(t, OnCourseHeading, s.OnCourseFeedback)
	require.Equal(t, 20*time.Second, s.HeadingInterval())
	require.Equal(t, 90, s.TackDegrees)
	require.Equal(t, 5, s.TargetAdjustDegrees)
	require.Equal(t, NorthTrue, s.NorthReference)
	require.Equal(t, -2.5, s.DeclinationDegrees)
	require.Equal(t, SourceNMEA, s.Source.Kind)
	require.Equal(t, "/dev/ttyS1", s.Source.NMEAPort)
	require.Equal(t, 38400, s.Source.NMEABaud)
	require.Equal(t, "debug", s.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HELM_TOLERANCE_DEGREES", "25")
	t.Setenv("HELM_SOURCE_KIND", "ble")
	path := writeConfig(t, "tolerance_degrees: 15\n")

	s, err := Load(NewViper(), path)
	require.NoError(t, err)
	require.Equal(t, 25.0, s.ToleranceDegrees)
	require.Equal(t, SourceBLE, s.Source.Kind)
}

func TestValidate_ToleranceFloor(t *testing.T) {
	path := writeConfig(t, "tolerance_degrees: 2\n")

	s, err := Load(NewViper(), path)
	require.NoError(t, err)
	require.Equal(t, MinTolerance, s.ToleranceDegrees)
}

func TestValidate_SensitivityClamp(t *testing.T) {
	path := writeConfig(t, "sensitivity: 9\n")
	s, err := Load(NewViper(), path)
	require.NoError(t, err)
	require.Equal(t, ProfileCount-1, s.Sensitivity)

	path = writeConfig(t, "sensitivity: -3\n")
	s, err = Load(NewViper(), path)
	require.NoError(t, err)
	require.Equal(t, 0, s.Sensitivity)
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]error{
		"on_course_feedback: bell\n":            ErrInvalidOnCourse,
		"north_reference: grid\n":               ErrInvalidNorth,
		"source:\n  kind: gyro\n":               ErrInvalidSource,
		"heading_readout_interval_seconds: 0\n": ErrInvalidInterval,
		"log:\n  level: loud\n":                 ErrInvalidLogLevel,
		"telemetry:\n  advertise: true\n":       ErrInvalidTelemetry,
	}
	for body, want := range cases {
		_, err := Load(NewViper(), writeConfig(t, body))
		require.ErrorIs(t, err, want, body)
	}
}

func TestWatch_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())
	v := NewViper()
	_, err := Load(v, "")
	require.NoError(t, err)
	require.False(t, Watch(v, func(Settings, error) {}))
}

func TestWatch_Reload(t *testing.T) {
	path := writeConfig(t, "tolerance_degrees: 10\n")
	v := NewViper()
	_, err := Load(v, path)
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		last Settings
	)
	require.True(t, Watch(v, func(s Settings, err error) {
		if err != nil {
			return
		}
		mu.Lock()
		last = s
		mu.Unlock()
	}))

	require.NoError(t, os.WriteFile(path, []byte("tolerance_degrees: 30\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return last.ToleranceDegrees == 30
	}, 5*time.Second, 20*time.Millisecond)
}
