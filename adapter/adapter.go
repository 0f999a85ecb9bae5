package adapter

import "errors"

var (
	ErrNotOpen     = errors.New("device not open")
	ErrAlreadyOpen = errors.New("device already open")
)

// Adapter defines the interface for printer transport adapters
type Adapter interface {
	// Open opens the connection to the printer
	Open() error

	// Write sends data to the printer
	Write(data []byte) (int, error)

	// Close closes the connection to the printer
	Close() error

	// IsOpen returns whether the connection is open
	IsOpen() bool
}
