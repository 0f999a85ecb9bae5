package platform

import (
	"fmt"
	"slices"

	"github.com/godbus/dbus/v5"
)

const (
	bluezService         = "org.bluez"
	bluezAdapterIface    = "org.bluez.Adapter1"
	bluezDeviceIface     = "org.bluez.Device1"
	getManagedObjectsFun = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
)

type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// BondedBluetooth lists paired devices known to BlueZ.
func (h *Host) BondedBluetooth() ([]BluetoothDevice, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}
	defer conn.Close()

	var objects managedObjects
	call := conn.Object(bluezService, "/").Call(getManagedObjectsFun, 0)
	if err := call.Store(&objects); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}

	return bondedDevices(objects)
}

// bondedDevices extracts paired devices ordered by object path.
func bondedDevices(objects managedObjects) ([]BluetoothDevice, error) {
	paths := make([]dbus.ObjectPath, 0, len(objects))
	hasAdapter := false
	for path, ifaces := range objects {
		if _, ok := ifaces[bluezAdapterIface]; ok {
			hasAdapter = true
		}
		if _, ok := ifaces[bluezDeviceIface]; ok {
			paths = append(paths, path)
		}
	}
	if !hasAdapter {
		return nil, ErrNoAdapter
	}
	slices.Sort(paths)

	var devices []BluetoothDevice
	for _, path := range paths {
		props := objects[path][bluezDeviceIface]
		if paired, _ := variantValue[bool](props, "Paired"); !paired {
			continue
		}
		address, ok := variantValue[string](props, "Address")
		if !ok || address == "" {
			continue
		}
		name, ok := variantValue[string](props, "Name")
		if !ok {
			name, _ = variantValue[string](props, "Alias")
		}
		class, _ := variantValue[uint32](props, "Class")

		devices = append(devices, BluetoothDevice{
			Address: address,
			Name:    name,
			Class:   class,
		})
	}
	return devices, nil
}

func variantValue[T any](props map[string]dbus.Variant, key string) (T, bool) {
	var zero T
	v, ok := props[key]
	if !ok {
		return zero, false
	}
	val, ok := v.Value().(T)
	return val, ok
}
