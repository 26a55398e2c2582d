package sensor

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"tinygo.org/x/bluetooth"
)

type collector struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (c *collector) Send(msg tea.Msg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *collector) headings() []HeadingMsg {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []HeadingMsg
	for _, m := range c.msgs {
		if h, ok := m.(HeadingMsg); ok {
			out = append(out, h)
		}
	}
	return out
}

func TestHeadingMsg_Resolve(t *testing.T) {
	m, tr := HeadingMsg{Magnetic: 355}.Resolve(10)
	assert.Equal(t, 355.0, m)
	assert.Equal(t, 5.0, tr)

	m, tr = HeadingMsg{Magnetic: 100, True: 97, HasTrue: true}.Resolve(10)
	assert.Equal(t, 100.0, m)
	assert.Equal(t, 97.0, tr)
}

func TestNMEA_Parse(t *testing.T) {
	mock := clock.NewMock()
	n := NewNMEA("", 4800, 10, mock, zaptest.NewLogger(t))

	tests := []struct {
		line     string
		magnetic float64
		true_    float64
		hasTrue  bool
	}{
		{"$HCHDT,123.4,T*2D", 113.4, 123.4, true},
		{"$HCHDM,090.0,M*20", 90, 0, false},
		{"$HCHDG,98.3,0.0,E,12.6,W*57", 98.3, 85.7, true},
		{"$HCHDG,10.0,2.0,W,,*08", 8, 0, false},
		{"$HCHDG,355.0,,,5.0,E*2F", 355, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			msg, err := n.Parse(tt.line)
			require.NoError(t, err)
			assert.InDelta(t, tt.magnetic, msg.Magnetic, 1e-9)
			assert.InDelta(t, tt.true_, msg.True, 1e-9)
			assert.Equal(t, tt.hasTrue, msg.HasTrue)
			assert.Equal(t, mock.Now(), msg.At)
			assert.Equal(t, "nmea", msg.Source)
		})
	}
}

func TestNMEA_ParseRejects(t *testing.T) {
	n := NewNMEA("", 4800, 0, clock.NewMock(), zaptest.NewLogger(t))

	_, err := n.Parse("$GPGLL,3953.88008971,N,10506.75318910,W,034138.00,A,D*7A")
	require.ErrorIs(t, err, errNoHeading)

	_, err = n.Parse("$HCHDT,123.4,T*00")
	require.Error(t, err, "bad checksum")

	_, err = n.Parse("garbage")
	require.Error(t, err)
}

func TestNMEA_ReadStream(t *testing.T) {
	n := NewNMEA("", 4800, 0, clock.NewMock(), zap.NewNop())
	stream := strings.Join([]string{
		"$HCHDM,090.0,M*20",
		"",
		"noise",
		"$GPGLL,3953.88008971,N,10506.75318910,W,034138.00,A,D*7A",
		"$HCHDT,123.4,T*2D",
	}, "\r\n")

	c := &collector{}
	err := n.Read(context.Background(), strings.NewReader(stream), c)
	require.ErrorIs(t, err, io.EOF)

	got := c.headings()
	require.Len(t, got, 2)
	assert.Equal(t, 90.0, got[0].Magnetic)
	assert.Equal(t, 123.4, got[1].True)
}

func TestNMEA_ReadStopsOnCancel(t *testing.T) {
	n := NewNMEA("", 4800, 0, clock.NewMock(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &collector{}
	err := n.Read(ctx, strings.NewReader("$HCHDM,090.0,M*20\n"), c)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, c.headings())
}

func TestDecodeHeading(t *testing.T) {
	deg, err := DecodeHeading([]byte{0x2c, 0x33}) // 13100
	require.NoError(t, err)
	assert.Equal(t, 131.0, deg)

	deg, err = DecodeHeading([]byte{0x9f, 0x8c, 0xff}) // 35999, trailing byte ignored
	require.NoError(t, err)
	assert.Equal(t, 359.99, deg)

	_, err = DecodeHeading([]byte{0x01})
	require.ErrorIs(t, err, errShortPayload)
}

func TestParseUUID(t *testing.T) {
	u, err := ParseUUID("0x1819")
	require.NoError(t, err)
	assert.Equal(t, bluetooth.New16BitUUID(0x1819), u)

	u, err = ParseUUID("2A2C")
	require.NoError(t, err)
	assert.Equal(t, bluetooth.New16BitUUID(0x2a2c), u)

	_, err = ParseUUID("zzzz")
	require.Error(t, err)
}

func TestDemo_EmitsBurstyReadings(t *testing.T) {
	d := NewDemo(clock.New(), 1)
	c := &collector{}
	require.NoError(t, d.Start(c))

	require.Eventually(t, func() bool { return len(c.headings()) >= 5 }, 5*time.Second, 20*time.Millisecond)
	d.Stop()

	got := c.headings()
	for i, h := range got {
		assert.GreaterOrEqual(t, h.Magnetic, 0.0)
		assert.Less(t, h.Magnetic, 360.0)
		assert.False(t, h.HasTrue)
		if i > 0 {
			assert.False(t, h.At.Before(got[i-1].At))
		}
	}
}

func TestDemo_HeadingWandersNearBase(t *testing.T) {
	d := NewDemo(clock.NewMock(), 7)
	d.noise = 0
	for _, sec := range []int{0, 10, 60, 300} {
		h := d.heading(time.Duration(sec) * time.Second)
		assert.InDelta(t, d.base, h, 30, "at %ds", sec)
	}
}
