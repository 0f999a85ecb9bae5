//go:build linux

package adapter

import (
	"net"

	"golang.org/x/sys/unix"
)

func dialRFCOMM(mac net.HardwareAddr, channel uint8) (int, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM, unix.BTPROTO_RFCOMM)
	if err == unix.EAFNOSUPPORT || err == unix.EPROTONOSUPPORT {
		return -1, ErrNotSupported
	}
	if err != nil {
		return -1, err
	}

	// bdaddr_t is stored little-endian
	var addr [6]uint8
	for i := range addr {
		addr[i] = mac[len(mac)-1-i]
	}

	if err := unix.Connect(fd, &unix.SockaddrRFCOMM{Addr: addr, Channel: channel}); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func writeRFCOMM(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Write(fd, p)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

func closeRFCOMM(fd int) error {
	return unix.Close(fd)
}
