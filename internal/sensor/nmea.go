package sensor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/benbjohnson/clock"
	"go.bug.st/serial"
	"go.uber.org/zap"

	"helm.klederson.com/internal/bearing"
)

const nmeaName = "nmea"

// How long to wait before reopening a serial port that failed.
const nmeaRetryDelay = 2 * time.Second

var errNoHeading = errors.New("sentence carries no heading")

// NMEA reads HDG, HDM and HDT sentences from a serial port.
type NMEA struct {
	port        string
	baud        int
	declination float64
	clock       clock.Clock
	log         *zap.Logger
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewNMEA creates a source for the serial device at port. declination
// (east positive) fills in whichever reference a sentence lacks.
func NewNMEA(port string, baud int, declination float64, clk clock.Clock, logger *zap.Logger) *NMEA {
	return &NMEA{
		port:        port,
		baud:        baud,
		declination: declination,
		clock:       clk,
		log:         logger,
	}
}

// Start opens the port and begins reading. The first open must succeed;
// later failures are reported and retried.
func (n *NMEA) Start(s Sender) error {
	port, err := n.open()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.done = make(chan struct{})
	go n.loop(ctx, s, port)
	return nil
}

func (n *NMEA) open() (serial.Port, error) {
	port, err := serial.Open(n.port, &serial.Mode{BaudRate: n.baud})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", n.port, err)
	}
	return port, nil
}

func (n *NMEA) loop(ctx context.Context, s Sender, port serial.Port) {
	defer close(n.done)
	for {
		stop := context.AfterFunc(ctx, func() { _ = port.Close() })
		err := n.Read(ctx, port, s)
		stop()
		_ = port.Close()
		if ctx.Err() != nil {
			return
		}
		s.Send(ErrorMsg{Source: nmeaName, Err: err})
		n.log.Warn("serial read failed, reopening", zap.String("port", n.port), zap.Error(err))

		for {
			select {
			case <-ctx.Done():
				return
			case <-n.clock.After(nmeaRetryDelay):
			}
			if port, err = n.open(); err == nil {
				break
			}
			n.log.Debug("reopen failed", zap.Error(err))
		}
	}
}

// Read parses sentences from r until it fails or ctx is done, sending a
// reading for each heading sentence.
func (n *NMEA) Read(ctx context.Context, r io.Reader, s Sender) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		msg, err := n.Parse(line)
		if err != nil {
			if !errors.Is(err, errNoHeading) {
				n.log.Debug("can't parse nmea", zap.String("line", line), zap.Error(err))
			}
			continue
		}
		s.Send(msg)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

// Parse converts one sentence into a reading.
func (n *NMEA) Parse(line string) (HeadingMsg, error) {
	sentence, err := nmea.Parse(line)
	if err != nil {
		return HeadingMsg{}, err
	}
	msg := HeadingMsg{At: n.clock.Now(), Source: nmeaName}

	switch v := sentence.(type) {
	case nmea.HDT:
		msg.True = bearing.Normalize(v.Heading)
		msg.Magnetic = bearing.Normalize(v.Heading - n.declination)
		msg.HasTrue = true
	case nmea.HDM:
		msg.Magnetic = bearing.Normalize(v.Heading)
	case nmea.HDG:
		// sensor heading corrected for deviation is magnetic; variation then gives true
		magnetic := v.Heading + signed(v.Deviation, v.DeviationDirection)
		msg.Magnetic = bearing.Normalize(magnetic)
		if v.VariationDirection != "" {
			msg.True = bearing.Normalize(magnetic + signed(v.Variation, v.VariationDirection))
			msg.HasTrue = true
		}
	default:
		return HeadingMsg{}, fmt.Errorf("%w: %s", errNoHeading, sentence.DataType())
	}
	return msg, nil
}

// signed applies an E/W suffix; west is negative.
func signed(v float64, dir string) float64 {
	if dir == nmea.West {
		return -v
	}
	return v
}

// Stop closes the port and waits for the reader to exit.
func (n *NMEA) Stop() {
	if n.cancel == nil {
		return
	}
	n.cancel()
	<-n.done
}
