package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helm.log")

	logger, closer, err := New(path, "info")
	require.NoError(t, err)

	logger.Named("feedback").Info("rescheduled", zap.Duration("interval", 2500*time.Millisecond))
	logger.Debug("hidden at info")
	_ = logger.Sync()
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "feedback")
	require.Contains(t, string(data), "rescheduled")
	require.Contains(t, string(data), `"interval": "2.5s"`)
	require.NotContains(t, string(data), "hidden at info")
}

func TestNew_EmptyPathDiscards(t *testing.T) {
	logger, closer, err := New("", "debug")
	require.NoError(t, err)
	require.NotPanics(t, func() { logger.Info("nothing") })
	require.NoError(t, closer.Close())
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARN")
	require.NoError(t, err)
	require.Equal(t, zapcore.WarnLevel, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(zapcore.AddSync(&buf), zapcore.DebugLevel)
	logger.Debug("tick")
	require.Contains(t, buf.String(), "DEBUG")
	require.Contains(t, buf.String(), "tick")
}
