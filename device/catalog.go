package device

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/nixxel-company-limited/receipt-printer-bridge/platform"
)

// Catalog enumerates printer candidates across transports.
type Catalog struct {
	platform platform.Platform
	logger   zerolog.Logger
}

// NewCatalog creates a catalog over the given platform
func NewCatalog(p platform.Platform, logger zerolog.Logger) *Catalog {
	return &Catalog{
		platform: p,
		logger:   logger.With().Str("component", "catalog").Logger(),
	}
}

// ListAvailable returns a fresh snapshot: Bluetooth candidates first, then
// USB candidates, each in platform order. A transport that cannot be
// listed contributes no devices.
func (c *Catalog) ListAvailable() []PrinterDevice {
	printers := make([]PrinterDevice, 0)

	bonded, err := c.platform.BondedBluetooth()
	switch {
	case errors.Is(err, platform.ErrNoAdapter):
		c.logger.Debug().Err(err).Msg("bluetooth unavailable")
	case err != nil:
		c.logger.Warn().Err(err).Msg("failed to list bonded bluetooth devices")
	}
	for _, d := range bonded {
		if IsPrinterCandidate(d) {
			printers = append(printers, FromBluetooth(d))
		}
	}

	attached, err := c.platform.USBDevices()
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to list usb devices")
	}
	for _, d := range attached {
		if IsPrinterCandidate(d) {
			printers = append(printers, FromUSB(d))
		}
	}

	c.logger.Debug().Int("count", len(printers)).Msg("listed printers")
	return printers
}

// JSON returns ListAvailable encoded as a JSON array
func (c *Catalog) JSON() (string, error) {
	data, err := json.Marshal(c.ListAvailable())
	if err != nil {
		return "", err
	}
	return string(data), nil
}
