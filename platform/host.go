package platform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nixxel-company-limited/receipt-printer-bridge/adapter"
)

// HostConfig tunes how Host opens Bluetooth transports.
type HostConfig struct {
	// RFCOMMChannel is the SPP channel used for socket connections.
	RFCOMMChannel uint8
	// BaudRate applies to serial-port Bluetooth links.
	BaudRate int
	// SerialPorts maps a Bluetooth MAC to a serial port already bound to
	// it (/dev/rfcommN, COMn). Mapped printers are opened through the port
	// instead of a socket.
	SerialPorts map[string]string
}

// Host implements Platform against the running system: BlueZ over the
// D-Bus system bus for Bluetooth and libusb for USB.
type Host struct {
	cfg         HostConfig
	serialPorts map[string]string
	logger      zerolog.Logger
}

// NewHost creates a host platform
func NewHost(cfg HostConfig, logger zerolog.Logger) *Host {
	ports := make(map[string]string, len(cfg.SerialPorts))
	for mac, port := range cfg.SerialPorts {
		ports[strings.ToLower(strings.TrimSpace(mac))] = strings.TrimSpace(port)
	}
	return &Host{
		cfg:         cfg,
		serialPorts: ports,
		logger:      logger.With().Str("component", "platform").Logger(),
	}
}

// OpenBluetooth opens a serial or RFCOMM socket transport to address.
func (h *Host) OpenBluetooth(address string) (adapter.Adapter, error) {
	hw, err := adapter.ParseBluetoothAddress(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolved, err)
	}

	if port, ok := h.serialPorts[hw.String()]; ok {
		h.logger.Debug().Str("address", address).Str("port", port).Msg("opening bluetooth printer through serial port")
		a := adapter.NewSerialAdapter(port, h.cfg.BaudRate)
		if err := a.Open(); err != nil {
			return nil, err
		}
		return a, nil
	}

	a, err := adapter.NewRFCOMMAdapter(address, h.cfg.RFCOMMChannel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolved, err)
	}
	if err := a.Open(); err != nil {
		if errors.Is(err, adapter.ErrNotSupported) {
			return nil, fmt.Errorf("%w: %v", ErrNoAdapter, err)
		}
		return nil, err
	}
	return a, nil
}

// OpenUSB claims the printer interface of dev.
func (h *Host) OpenUSB(dev USBDevice) (adapter.Adapter, error) {
	a := adapter.NewUSBAdapter(dev.Bus, dev.Address)
	if err := a.Open(); err != nil {
		return nil, err
	}
	return a, nil
}
