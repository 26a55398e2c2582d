package heading

import (
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"helm.klederson.com/internal/config"
)

func TestCompass_SelectsReference(t *testing.T) {
	mock := clock.NewMock()
	c := NewCompass(mock)
	c.Add(100, 103, mock.Now())

	m, err := c.Value(config.NorthMagnetic, config.DefaultProfile)
	require.NoError(t, err)
	require.Equal(t, 100.0, m)

	tr, err := c.Value(config.NorthTrue, config.DefaultProfile)
	require.NoError(t, err)
	require.Equal(t, 103.0, tr)

	require.Same(t, c.True, c.For(config.NorthTrue))
	require.Same(t, c.Magnetic, c.For(config.NorthMagnetic))
}
