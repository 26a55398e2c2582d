package steering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helm.klederson.com/internal/config"
)

func TestCompute_Urgency(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		target  float64
		tol     float64
		urgency int
		dir     Direction
	}{
		{"on course", 100, 100, 10, 0, None},
		{"just inside", 100, 109.9, 10, 0, None},
		{"at tolerance", 100, 110, 10, 1, Starboard},
		{"below double", 100, 119, 10, 1, Starboard},
		{"double", 100, 80, 10, 2, Port},
		{"triple", 100, 130, 10, 3, Starboard},
		{"capped", 100, 310, 10, 3, Port},
		{"across north", 355, 15, 10, 2, Starboard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Compute(tt.current, tt.target, tt.tol)
			assert.Equal(t, tt.urgency, c.Urgency)
			assert.Equal(t, tt.dir, c.Direction)
		})
	}
}

func TestCompute_AmountIsMinimalArc(t *testing.T) {
	c := Compute(350, 10, 10)
	require.Equal(t, 20.0, c.Amount)

	c = Compute(10, 350, 10)
	require.Equal(t, -20.0, c.Amount)
	require.Equal(t, Port, c.Direction)
}

func TestCompute_Monotonic(t *testing.T) {
	prev := 0
	for deg := 0.0; deg <= 180; deg += 0.5 {
		u := Compute(0, deg, 12).Urgency
		require.GreaterOrEqual(t, u, prev, "urgency dropped at %v", deg)
		require.LessOrEqual(t, u, config.MaxUrgency)
		prev = u
	}
	require.Equal(t, config.MaxUrgency, prev)
}

func TestCompute_ToleranceFloor(t *testing.T) {
	// a 1° tolerance behaves like the 5° floor for both direction and urgency
	c := Compute(0, 4, 1)
	assert.Equal(t, None, c.Direction)
	assert.Equal(t, 0, c.Urgency)

	c = Compute(0, 11, 0)
	assert.Equal(t, Starboard, c.Direction)
	assert.Equal(t, 2, c.Urgency)
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "port", Port.String())
	assert.Equal(t, "starboard", Starboard.String())
	assert.Equal(t, "none", None.String())
}
