// Package platform describes the host capabilities the bridge needs:
// listing bonded Bluetooth devices and attached USB devices, and opening a
// transport to either kind. Host implements it against BlueZ and libusb;
// platformtest provides an in-memory substitute.
package platform

import (
	"errors"
	"fmt"

	"github.com/nixxel-company-limited/receipt-printer-bridge/adapter"
)

var (
	// ErrNoAdapter means the host has no usable Bluetooth subsystem.
	ErrNoAdapter = errors.New("bluetooth adapter not available")

	// ErrUnresolved means an address does not name a Bluetooth device.
	ErrUnresolved = errors.New("address does not resolve to a bluetooth device")
)

// Transport identifies the link a device is reached over.
type Transport string

const (
	Bluetooth Transport = "bluetooth"
	USB       Transport = "usb"
)

// Descriptor is a raw device record as reported by the host.
type Descriptor interface {
	Transport() Transport
}

// BluetoothDevice is a bonded Bluetooth device.
type BluetoothDevice struct {
	Address string
	Name    string
	// Class is the 24-bit Class of Device; zero when the host does not report one.
	Class uint32
}

func (BluetoothDevice) Transport() Transport { return Bluetooth }

// MajorClass extracts the major device class bits (8..12) of the Class of Device.
func (d BluetoothDevice) MajorClass() uint8 {
	return uint8((d.Class >> 8) & 0x1f)
}

// USBDevice is an attached USB device.
type USBDevice struct {
	Bus       int
	Address   int
	VendorID  uint16
	ProductID uint16
	// InterfaceClasses holds the class of the first alternate setting of
	// each interface of the device's first configuration, in interface order.
	InterfaceClasses []uint8
	Manufacturer     string
	Product          string
	SerialNumber     string
}

func (USBDevice) Transport() Transport { return USB }

// ID is a stable identifier for the device while it stays attached.
func (d USBDevice) ID() string {
	return fmt.Sprintf("usb:%d.%d", d.Bus, d.Address)
}

// VIDPID formats the vendor and product ids as lowercase "vvvv:pppp".
func (d USBDevice) VIDPID() string {
	return FormatVIDPID(d.VendorID, d.ProductID)
}

// FormatVIDPID formats a vendor/product pair as lowercase "vvvv:pppp".
func FormatVIDPID(vid, pid uint16) string {
	return fmt.Sprintf("%04x:%04x", vid, pid)
}

// Platform is the set of host capabilities used by the catalog and the session.
type Platform interface {
	// BondedBluetooth lists paired Bluetooth devices. ErrNoAdapter is
	// returned when the host has no Bluetooth subsystem.
	BondedBluetooth() ([]BluetoothDevice, error)

	// USBDevices lists attached USB devices.
	USBDevices() ([]USBDevice, error)

	// OpenBluetooth opens a transport to the Bluetooth device at address.
	// ErrUnresolved is returned when address is not a Bluetooth address.
	OpenBluetooth(address string) (adapter.Adapter, error)

	// OpenUSB opens a transport to the given USB device.
	OpenUSB(dev USBDevice) (adapter.Adapter, error)
}
