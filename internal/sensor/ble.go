package sensor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"
)

const bleName = "ble"

var errShortPayload = errors.New("heading payload shorter than 2 bytes")

// BLE subscribes to a heading characteristic on a Bluetooth LE compass. The
// characteristic carries an unsigned little-endian heading in hundredths of
// a degree, magnetic.
type BLE struct {
	adapter *bluetooth.Adapter
	name    string
	service bluetooth.UUID
	char    bluetooth.UUID
	clock   clock.Clock
	log     *zap.Logger

	mu      sync.Mutex
	running bool
	device  *bluetooth.Device
}

// NewBLE creates a source for the peripheral advertising service, optionally
// narrowed to a local name.
func NewBLE(name, service, characteristic string, clk clock.Clock, logger *zap.Logger) (*BLE, error) {
	svc, err := ParseUUID(service)
	if err != nil {
		return nil, fmt.Errorf("service uuid: %w", err)
	}
	chr, err := ParseUUID(characteristic)
	if err != nil {
		return nil, fmt.Errorf("characteristic uuid: %w", err)
	}
	return &BLE{
		adapter: bluetooth.DefaultAdapter,
		name:    name,
		service: svc,
		char:    chr,
		clock:   clk,
		log:     logger,
	}, nil
}

// ParseUUID accepts a 16-bit short form ("1819") or a full UUID.
func ParseUUID(s string) (bluetooth.UUID, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	if len(s) == 4 {
		v, err := strconv.ParseUint(s, 16, 16)
		if err != nil {
			return bluetooth.UUID{}, err
		}
		return bluetooth.New16BitUUID(uint16(v)), nil
	}
	return bluetooth.ParseUUID(s)
}

// DecodeHeading converts a characteristic value to degrees.
func DecodeHeading(buf []byte) (float64, error) {
	if len(buf) < 2 {
		return 0, errShortPayload
	}
	return float64(binary.LittleEndian.Uint16(buf)) / 100, nil
}

// Start enables the adapter and connects to the first matching peripheral
// in the background.
func (b *BLE) Start(s Sender) error {
	if err := b.adapter.Enable(); err != nil {
		return fmt.Errorf("failed to enable BLE adapter: %w (try running with sudo or setcap cap_net_admin+ep)", err)
	}
	b.mu.Lock()
	b.running = true
	b.mu.Unlock()

	go func() {
		if err := b.connect(s); err != nil {
			b.log.Warn("ble connect failed", zap.Error(err))
			s.Send(ErrorMsg{Source: bleName, Err: err})
		}
	}()
	return nil
}

func (b *BLE) matches(result bluetooth.ScanResult) bool {
	if b.name != "" && result.LocalName() != b.name {
		return false
	}
	return b.name != "" || result.HasServiceUUID(b.service)
}

func (b *BLE) connect(s Sender) error {
	var found bluetooth.ScanResult
	err := b.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		if !b.isRunning() {
			_ = adapter.StopScan()
			return
		}
		if b.matches(result) {
			found = result
			_ = adapter.StopScan()
		}
	})
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if !b.isRunning() {
		return nil
	}

	b.log.Info("connecting", zap.String("address", found.Address.String()), zap.String("name", found.LocalName()))
	device, err := b.adapter.Connect(found.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("connect %s: %w", found.Address.String(), err)
	}
	b.mu.Lock()
	b.device = &device
	b.mu.Unlock()

	services, err := device.DiscoverServices([]bluetooth.UUID{b.service})
	if err != nil {
		return fmt.Errorf("discovering service %s: %w", b.service.String(), err)
	}
	if len(services) == 0 {
		return fmt.Errorf("service %s not found", b.service.String())
	}
	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{b.char})
	if err != nil {
		return fmt.Errorf("discovering characteristic %s: %w", b.char.String(), err)
	}
	if len(chars) == 0 {
		return fmt.Errorf("characteristic %s not found", b.char.String())
	}

	return chars[0].EnableNotifications(func(buf []byte) {
		deg, err := DecodeHeading(buf)
		if err != nil {
			b.log.Debug("bad heading payload", zap.Binary("payload", buf), zap.Error(err))
			return
		}
		s.Send(HeadingMsg{Magnetic: deg, At: b.clock.Now(), Source: bleName})
	})
}

func (b *BLE) isRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Stop stops scanning and drops the connection.
func (b *BLE) Stop() {
	b.mu.Lock()
	b.running = false
	device := b.device
	b.device = nil
	b.mu.Unlock()

	_ = b.adapter.StopScan()
	if device != nil {
		_ = device.Disconnect()
	}
}
