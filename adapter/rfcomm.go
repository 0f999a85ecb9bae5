package adapter

import (
	"errors"
	"fmt"
	"net"
	"sync"
)

// DefaultRFCOMMChannel is the SPP channel most receipt printers listen on
const DefaultRFCOMMChannel = 1

// ErrNotSupported is returned where RFCOMM sockets are unavailable
var ErrNotSupported = errors.New("rfcomm sockets not supported on this platform")

// RFCOMMAdapter writes to a Bluetooth printer over an RFCOMM stream socket.
type RFCOMMAdapter struct {
	mac     net.HardwareAddr
	channel uint8
	fd      int
	isOpen  bool
	mu      sync.Mutex
}

// NewRFCOMMAdapter creates an adapter for the printer with the given MAC.
// A zero channel selects DefaultRFCOMMChannel.
func NewRFCOMMAdapter(mac string, channel uint8) (*RFCOMMAdapter, error) {
	hw, err := ParseBluetoothAddress(mac)
	if err != nil {
		return nil, err
	}
	if channel == 0 {
		channel = DefaultRFCOMMChannel
	}
	return &RFCOMMAdapter{mac: hw, channel: channel, fd: -1}, nil
}

// ParseBluetoothAddress accepts a colon separated 48-bit MAC
func ParseBluetoothAddress(mac string) (net.HardwareAddr, error) {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return nil, fmt.Errorf("invalid bluetooth address %q: %w", mac, err)
	}
	if len(hw) != 6 {
		return nil, fmt.Errorf("invalid bluetooth address %q: want 6 bytes, got %d", mac, len(hw))
	}
	return hw, nil
}

// Open connects the socket
func (a *RFCOMMAdapter) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.isOpen {
		return ErrAlreadyOpen
	}

	fd, err := dialRFCOMM(a.mac, a.channel)
	if err != nil {
		return fmt.Errorf("rfcomm connect %s channel %d: %w", a.mac, a.channel, err)
	}

	a.fd = fd
	a.isOpen = true
	return nil
}

// Write sends data to the printer, looping over short writes
func (a *RFCOMMAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}

	written := 0
	for written < len(data) {
		n, err := writeRFCOMM(a.fd, data[written:])
		if n > 0 {
			written += n
		}
		if err != nil {
			return written, fmt.Errorf("write failed: %w", err)
		}
	}
	return written, nil
}

// Close closes the socket
func (a *RFCOMMAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return nil
	}

	err := closeRFCOMM(a.fd)
	a.fd = -1
	a.isOpen = false
	return err
}

// IsOpen returns whether the socket is connected
func (a *RFCOMMAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isOpen
}
