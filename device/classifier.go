package device

import "github.com/nixxel-company-limited/receipt-printer-bridge/platform"

const (
	// MajorClassImaging is the Bluetooth major device class for printers,
	// scanners and cameras.
	MajorClassImaging = 0x06

	// InterfaceClassPrinter is the USB printer interface class.
	InterfaceClassPrinter = 0x07
)

// IsPrinterCandidate reports whether a raw descriptor looks like a printer.
// Bluetooth devices qualify by major class, USB devices by the class of
// their first interface. Anything else, including nil, does not.
func IsPrinterCandidate(d platform.Descriptor) bool {
	switch d := d.(type) {
	case platform.BluetoothDevice:
		return isBluetoothPrinter(d)
	case *platform.BluetoothDevice:
		return d != nil && isBluetoothPrinter(*d)
	case platform.USBDevice:
		return isUSBPrinter(d)
	case *platform.USBDevice:
		return d != nil && isUSBPrinter(*d)
	default:
		return false
	}
}

func isBluetoothPrinter(d platform.BluetoothDevice) bool {
	return d.MajorClass() == MajorClassImaging
}

// Only interface 0 is inspected; composite devices with the printer
// function on a later interface are not detected.
func isUSBPrinter(d platform.USBDevice) bool {
	return len(d.InterfaceClasses) > 0 && d.InterfaceClasses[0] == InterfaceClassPrinter
}
