// Package device maps raw platform descriptors to the uniform printer
// records the bridge hands to its host.
package device

import "github.com/nixxel-company-limited/receipt-printer-bridge/platform"

// Status of a printer as reported to the host.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusConnected   Status = "connected"
	StatusUnavailable Status = "unavailable"
)

// PrinterDevice identifies a printer and how to reach it.
type PrinterDevice struct {
	ID      string             `json:"id"`
	Name    string             `json:"name,omitempty"`
	Address string             `json:"address"`
	Type    platform.Transport `json:"type"`
	Status  Status             `json:"status"`
	Details *Details           `json:"details,omitempty"`
}

// Details carries optional descriptive fields. Vendor and product ids are
// only set for USB devices.
type Details struct {
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	VendorID     *int   `json:"vendorId,omitempty"`
	ProductID    *int   `json:"productId,omitempty"`
}

// FromBluetooth builds the record for a bonded Bluetooth device.
func FromBluetooth(d platform.BluetoothDevice) PrinterDevice {
	return PrinterDevice{
		ID:      d.Address,
		Name:    d.Name,
		Address: d.Address,
		Type:    platform.Bluetooth,
		Status:  StatusAvailable,
		Details: &Details{Manufacturer: d.Name},
	}
}

// FromUSB builds the record for an attached USB device.
func FromUSB(d platform.USBDevice) PrinterDevice {
	vid, pid := int(d.VendorID), int(d.ProductID)
	return PrinterDevice{
		ID:      d.ID(),
		Name:    d.Product,
		Address: d.VIDPID(),
		Type:    platform.USB,
		Status:  StatusAvailable,
		Details: &Details{
			Manufacturer: d.Manufacturer,
			Model:        d.Product,
			SerialNumber: d.SerialNumber,
			VendorID:     &vid,
			ProductID:    &pid,
		},
	}
}
