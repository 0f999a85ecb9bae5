// Package bridge exposes the printer operations to a host application.
// Every method reports plain success flags or JSON text and never panics.
package bridge

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nixxel-company-limited/receipt-printer-bridge/device"
	"github.com/nixxel-company-limited/receipt-printer-bridge/platform"
	"github.com/nixxel-company-limited/receipt-printer-bridge/receipt"
	"github.com/nixxel-company-limited/receipt-printer-bridge/session"
)

// Bridge serializes calls from concurrent front ends onto one session.
type Bridge struct {
	mu       sync.Mutex
	catalog  *device.Catalog
	session  *session.Session
	executor *receipt.Executor
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a disconnected bridge over the platform
func New(p platform.Platform, logger zerolog.Logger) *Bridge {
	s := session.New(p, logger)
	return &Bridge{
		catalog:  device.NewCatalog(p, logger),
		session:  s,
		executor: receipt.NewExecutor(s, logger),
		logger:   logger.With().Str("component", "bridge").Logger(),
		now:      time.Now,
	}
}

// guard turns a panic in op into a logged failure
func (b *Bridge) guard(op string, ok *bool) {
	if r := recover(); r != nil {
		b.logger.Error().Str("op", op).Interface("panic", r).Msg("recovered panic")
		*ok = false
	}
}

// GetPrinterList returns the available printers as a JSON array, "[]" on failure.
func (b *Bridge) GetPrinterList() (list string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Str("op", "list").Interface("panic", r).Msg("recovered panic")
			list = "[]"
		}
	}()

	list, err := b.catalog.JSON()
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to encode printer list")
		return "[]"
	}
	return list
}

// ConnectPrinter binds the session to the printer at address.
func (b *Bridge) ConnectPrinter(address string) (ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.guard("connect", &ok)

	return b.session.Connect(address) == nil
}

// PrintReceipt prints a base64 encoded image with JSON options.
func (b *Bridge) PrintReceipt(imageData, optionsJSON string) (ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.guard("print", &ok)

	if err := b.executor.PrintReceipt(imageData, optionsJSON); err != nil {
		b.logPrintError(err)
		return false
	}
	return true
}

func (b *Bridge) logPrintError(err error) {
	switch {
	case errors.Is(err, session.ErrNotConnected):
		b.logger.Warn().Err(err).Msg("print rejected")
	case errors.Is(err, receipt.ErrDecode):
		b.logger.Warn().Err(err).Msg("print rejected")
	default:
		b.logger.Error().Err(err).Msg("print failed")
	}
}

// DisconnectPrinter releases the live transport. It always succeeds.
func (b *Bridge) DisconnectPrinter() (ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Str("op", "disconnect").Interface("panic", r).Msg("recovered panic")
		}
		ok = true
	}()

	b.session.Disconnect()
	return true
}

// CheckPrinterConnection reports whether the session is connected to
// address. Letters compare case-insensitively.
func (b *Bridge) CheckPrinterConnection(address string) (ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.guard("check", &ok)

	return b.session.IsConnected() && strings.EqualFold(b.session.Address(), address)
}

// PrintTestPage prints a generated page with the default options.
func (b *Bridge) PrintTestPage() (ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.guard("test-print", &ok)

	if err := b.executor.PrintTestPage(b.now()); err != nil {
		b.logPrintError(err)
		return false
	}
	return true
}

// WriteRaw forwards pre-encoded ESC/POS bytes to the connected printer.
func (b *Bridge) WriteRaw(data []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Str("op", "raw").Interface("panic", r).Msg("recovered panic")
			n, err = 0, errors.New("raw write panicked")
		}
	}()

	return b.session.Write(data)
}

// Close disconnects the session.
func (b *Bridge) Close() error {
	b.DisconnectPrinter()
	return nil
}
