package platform

import (
	"slices"

	"github.com/google/gousb"

	"github.com/nixxel-company-limited/receipt-printer-bridge/adapter"
)

// USBDevices lists attached devices. Only devices exposing a printer
// interface are opened, to read their string descriptors.
func (h *Host) USBDevices() ([]USBDevice, error) {
	ctx, err := adapter.NewContext()
	if err != nil {
		return nil, err
	}
	defer ctx.Close()

	var devices []USBDevice
	opened, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		devices = append(devices, describeUSB(desc))
		return hasPrinterInterface(desc)
	})
	if err != nil {
		h.logger.Debug().Err(err).Msg("some usb devices could not be opened")
	}

	for _, dev := range opened {
		for i := range devices {
			if devices[i].Bus == dev.Desc.Bus && devices[i].Address == dev.Desc.Address {
				devices[i].Manufacturer, _ = dev.Manufacturer()
				devices[i].Product, _ = dev.Product()
				devices[i].SerialNumber, _ = dev.SerialNumber()
				break
			}
		}
		dev.Close()
	}

	slices.SortFunc(devices, func(a, b USBDevice) int {
		if a.Bus != b.Bus {
			return a.Bus - b.Bus
		}
		return a.Address - b.Address
	})
	return devices, nil
}

// describeUSB records the interface classes of the lowest numbered configuration.
func describeUSB(desc *gousb.DeviceDesc) USBDevice {
	dev := USBDevice{
		Bus:       desc.Bus,
		Address:   desc.Address,
		VendorID:  uint16(desc.Vendor),
		ProductID: uint16(desc.Product),
	}

	if len(desc.Configs) == 0 {
		return dev
	}
	nums := make([]int, 0, len(desc.Configs))
	for num := range desc.Configs {
		nums = append(nums, num)
	}
	cfg := desc.Configs[slices.Min(nums)]

	for _, iface := range cfg.Interfaces {
		var class uint8
		if len(iface.AltSettings) > 0 {
			class = uint8(iface.AltSettings[0].Class)
		}
		dev.InterfaceClasses = append(dev.InterfaceClasses, class)
	}
	return dev
}

func hasPrinterInterface(desc *gousb.DeviceDesc) bool {
	for _, cfg := range desc.Configs {
		if adapter.PrinterInterface(cfg) >= 0 {
			return true
		}
	}
	return false
}
