//go:build !linux

package adapter

import "net"

func dialRFCOMM(net.HardwareAddr, uint8) (int, error) {
	return -1, ErrNotSupported
}

func writeRFCOMM(int, []byte) (int, error) {
	return 0, ErrNotSupported
}

func closeRFCOMM(int) error {
	return nil
}
