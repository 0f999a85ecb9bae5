package adapter

import (
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the usual SPP setting of Bluetooth receipt printers
const DefaultBaudRate = 115200

// SerialAdapter writes to a printer behind a serial port: a bound
// /dev/rfcommN device on Linux or a Bluetooth COM port on Windows.
type SerialAdapter struct {
	portName string
	baudRate int
	port     serial.Port
	mu       sync.Mutex
}

// NewSerialAdapter creates an adapter for the named port. A non-positive
// baud rate selects DefaultBaudRate.
func NewSerialAdapter(portName string, baudRate int) *SerialAdapter {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	return &SerialAdapter{portName: portName, baudRate: baudRate}
}

// Open opens the serial port in 8N1 mode
func (a *SerialAdapter) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.port != nil {
		return ErrAlreadyOpen
	}

	mode := &serial.Mode{
		BaudRate: a.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(a.portName, mode)
	if err != nil {
		return fmt.Errorf("failed to open port %s: %w", a.portName, err)
	}

	a.port = port
	return nil
}

// Write sends data to the printer
func (a *SerialAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.port == nil {
		return 0, ErrNotOpen
	}

	n, err := a.port.Write(data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}
	return n, nil
}

// Close closes the serial port
func (a *SerialAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.port == nil {
		return nil
	}

	err := a.port.Close()
	a.port = nil
	return err
}

// IsOpen returns whether the port is open
func (a *SerialAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.port != nil
}
