package adapter

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/gousb"
)

// Interface class codes
// Reference: http://www.usb.org/developers/defined_class
const (
	IfaceClassAudio   = 0x01
	IfaceClassHID     = 0x03
	IfaceClassPrinter = 0x07
	IfaceClassHub     = 0x09
)

// USBAdapter writes to a USB printer through its bulk OUT endpoint.
// It owns its libusb context and releases it on Close.
type USBAdapter struct {
	bus         int
	address     int
	ctx         *gousb.Context
	device      *gousb.Device
	config      *gousb.Config
	iface       *gousb.Interface
	outEndpoint *gousb.OutEndpoint
	isOpen      bool
	mu          sync.Mutex
}

// NewUSBAdapter creates an adapter for the device at the given bus and
// device address. The device is located and claimed by Open.
func NewUSBAdapter(bus, address int) *USBAdapter {
	return &USBAdapter{bus: bus, address: address}
}

// NewContext initializes libusb. gousb panics when initialization fails
// (no usbfs, missing permissions), which is reported here as an error.
func NewContext() (ctx *gousb.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx = nil
			err = fmt.Errorf("libusb init failed: %v", r)
		}
	}()
	return gousb.NewContext(), nil
}

// PrinterInterface returns the number of the first interface that has a
// printer-class alternate setting, or -1 when there is none.
func PrinterInterface(desc gousb.ConfigDesc) int {
	for _, iface := range desc.Interfaces {
		for _, alt := range iface.AltSettings {
			if alt.Class == IfaceClassPrinter {
				return iface.Number
			}
		}
	}
	return -1
}

// Open locates the device, claims its printer interface and resolves the
// OUT endpoint.
func (a *USBAdapter) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.isOpen {
		return ErrAlreadyOpen
	}

	ctx, err := NewContext()
	if err != nil {
		return err
	}
	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Bus == a.bus && desc.Address == a.address
	})
	if len(devices) == 0 {
		ctx.Close()
		if err != nil {
			return fmt.Errorf("failed to open usb device %d.%d: %w", a.bus, a.address, err)
		}
		return fmt.Errorf("usb device %d.%d not found", a.bus, a.address)
	}
	for _, extra := range devices[1:] {
		extra.Close()
	}

	a.ctx = ctx
	a.device = devices[0]

	if err := a.claim(); err != nil {
		a.release()
		return err
	}

	a.isOpen = true
	return nil
}

func (a *USBAdapter) claim() error {
	// Set auto-detach kernel driver on Linux
	if runtime.GOOS == "linux" {
		a.device.SetAutoDetach(true)
	}

	cfgNum, err := a.device.ActiveConfigNum()
	if err != nil {
		return fmt.Errorf("failed to get active config: %w", err)
	}

	cfg, err := a.device.Config(cfgNum)
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}
	a.config = cfg

	ifaceNum := PrinterInterface(cfg.Desc)
	if ifaceNum < 0 {
		return errors.New("no printer interface found")
	}

	iface, err := cfg.Interface(ifaceNum, 0)
	if err != nil {
		return fmt.Errorf("failed to claim interface: %w", err)
	}
	a.iface = iface

	for _, epDesc := range iface.Setting.Endpoints {
		if epDesc.Direction != gousb.EndpointDirectionOut {
			continue
		}
		ep, err := iface.OutEndpoint(epDesc.Number)
		if err == nil {
			a.outEndpoint = ep
			break
		}
	}

	if a.outEndpoint == nil {
		return errors.New("cannot find output endpoint from printer")
	}
	return nil
}

// release frees everything acquired so far, innermost first.
func (a *USBAdapter) release() error {
	var errs []error

	if a.iface != nil {
		a.iface.Close()
		a.iface = nil
	}
	a.outEndpoint = nil

	if a.config != nil {
		if err := a.config.Close(); err != nil {
			errs = append(errs, err)
		}
		a.config = nil
	}

	if a.device != nil {
		if err := a.device.Close(); err != nil {
			errs = append(errs, err)
		}
		a.device = nil
	}

	if a.ctx != nil {
		if err := a.ctx.Close(); err != nil {
			errs = append(errs, err)
		}
		a.ctx = nil
	}

	return errors.Join(errs...)
}

// Write sends data to the printer
func (a *USBAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}

	n, err := a.outEndpoint.Write(data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}

	return n, nil
}

// Close closes the USB device
func (a *USBAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return nil
	}

	a.isOpen = false
	if err := a.release(); err != nil {
		return fmt.Errorf("close errors: %w", err)
	}
	return nil
}

// IsOpen returns whether the device is open
func (a *USBAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isOpen
}
