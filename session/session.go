// Package session owns the single live printer transport of a bridge.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nixxel-company-limited/receipt-printer-bridge/adapter"
	"github.com/nixxel-company-limited/receipt-printer-bridge/escpos"
	"github.com/nixxel-company-limited/receipt-printer-bridge/platform"
)

var (
	ErrNotConnected   = errors.New("printer not connected")
	ErrDeviceNotFound = errors.New("printer not found")
	ErrTransportOpen  = errors.New("failed to open printer transport")
)

// connection is the Connected state. It exclusively owns its adapter.
type connection struct {
	adapter   adapter.Adapter
	printer   *escpos.Printer
	address   string
	transport platform.Transport
}

// Session is either Disconnected (conn == nil) or Connected to exactly one
// transport. It does no locking: callers must not use a Session from
// several goroutines at once.
type Session struct {
	platform platform.Platform
	profile  escpos.Profile
	conn     *connection
	logger   zerolog.Logger
}

// New creates a disconnected session
func New(p platform.Platform, logger zerolog.Logger) *Session {
	return &Session{
		platform: p,
		profile:  escpos.DefaultProfile,
		logger:   logger.With().Str("component", "session").Logger(),
	}
}

// Connect closes any live transport, then binds to the printer at address:
// as a Bluetooth device first, otherwise as the USB device whose
// "vvvv:pppp" matches. On error the session is Disconnected.
func (s *Session) Connect(address string) (err error) {
	s.Disconnect()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrTransportOpen, r)
		}
		if err != nil {
			if s.conn != nil {
				// a panic after bind leaves a live handle
				s.conn.adapter.Close()
				s.conn = nil
			}
			s.logger.Error().Err(err).Str("address", address).Msg("connect failed")
		}
	}()

	a, err := s.platform.OpenBluetooth(address)
	switch {
	case err == nil:
		s.bind(a, address, platform.Bluetooth)
		return nil
	case errors.Is(err, platform.ErrNoAdapter), errors.Is(err, platform.ErrUnresolved):
		s.logger.Debug().Err(err).Str("address", address).Msg("not a bluetooth printer, trying usb")
	default:
		return fmt.Errorf("%w: bluetooth %s: %v", ErrTransportOpen, address, err)
	}

	devices, err := s.platform.USBDevices()
	if err != nil {
		return fmt.Errorf("%w: %s: listing usb devices: %v", ErrDeviceNotFound, address, err)
	}
	for _, dev := range devices {
		if !strings.EqualFold(dev.VIDPID(), address) {
			continue
		}
		a, err := s.platform.OpenUSB(dev)
		if err != nil {
			return fmt.Errorf("%w: usb %s: %v", ErrTransportOpen, address, err)
		}
		s.bind(a, dev.VIDPID(), platform.USB)
		return nil
	}

	return fmt.Errorf("%w: %s", ErrDeviceNotFound, address)
}

func (s *Session) bind(a adapter.Adapter, address string, transport platform.Transport) {
	s.conn = &connection{
		adapter:   a,
		printer:   escpos.NewPrinter(a, s.profile),
		address:   address,
		transport: transport,
	}
	s.logger.Info().
		Str("address", address).
		Str("transport", string(transport)).
		Int("dpi", s.profile.DPI).
		Int("chars_per_line", s.profile.CharsPerLine).
		Msg("printer connected")
}

// Disconnect closes the live transport, if any. Close failures are logged
// and the session ends Disconnected regardless.
func (s *Session) Disconnect() {
	conn := s.conn
	if conn == nil {
		return
	}
	s.conn = nil

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("address", conn.address).Msg("panic closing printer transport")
		}
	}()

	if err := conn.adapter.Close(); err != nil {
		s.logger.Warn().Err(err).Str("address", conn.address).Msg("error closing printer transport")
		return
	}
	s.logger.Info().Str("address", conn.address).Msg("printer disconnected")
}

// IsConnected reports the session state. No I/O is performed.
func (s *Session) IsConnected() bool {
	return s.conn != nil
}

// Address returns the address of the connected printer, or "". USB
// printers report their lowercase "vvvv:pppp".
func (s *Session) Address() string {
	if s.conn == nil {
		return ""
	}
	return s.conn.address
}

// Transport returns the transport of the connected printer, or "".
func (s *Session) Transport() platform.Transport {
	if s.conn == nil {
		return ""
	}
	return s.conn.transport
}

// Printer returns the receipt printer bound to the live transport
func (s *Session) Printer() (*escpos.Printer, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	return s.conn.printer, nil
}

// Write passes raw bytes straight to the live transport
func (s *Session) Write(data []byte) (int, error) {
	if s.conn == nil {
		return 0, ErrNotConnected
	}
	return s.conn.adapter.Write(data)
}
