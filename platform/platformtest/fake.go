// Package platformtest provides an in-memory Platform and a recording
// transport adapter for tests.
package platformtest

import (
	"bytes"
	"errors"
	"strings"
	"sync"

	"github.com/nixxel-company-limited/receipt-printer-bridge/adapter"
	"github.com/nixxel-company-limited/receipt-printer-bridge/platform"
)

// ImagingClass is a Class of Device with the Imaging major class (printer minor).
const ImagingClass uint32 = 0x040680

// PhoneClass is a Class of Device with the Phone major class.
const PhoneClass uint32 = 0x5a020c

// Recorder is an adapter that keeps every Write as a separate chunk.
type Recorder struct {
	Name string

	mu       sync.Mutex
	open     bool
	closed   int
	writes   [][]byte
	WriteErr error
	// FailAfter makes the write with this 1-based index and all later
	// ones fail with WriteErr; zero disables it.
	FailAfter int
	CloseErr  error
}

func (r *Recorder) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open {
		return adapter.ErrAlreadyOpen
	}
	r.open = true
	return nil
}

func (r *Recorder) Write(data []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.open {
		return 0, adapter.ErrNotOpen
	}
	if r.WriteErr != nil && (r.FailAfter == 0 || len(r.writes)+1 >= r.FailAfter) {
		return 0, r.WriteErr
	}
	r.writes = append(r.writes, append([]byte(nil), data...))
	return len(data), nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = false
	r.closed++
	return r.CloseErr
}

func (r *Recorder) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}

// Writes returns a copy of the recorded chunks.
func (r *Recorder) Writes() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.writes))
	copy(out, r.writes)
	return out
}

// CloseCount reports how many times Close was called.
func (r *Recorder) CloseCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Platform is a scripted platform.Platform. Opened transports are
// Recorders and are kept in Opened in order.
type Platform struct {
	Bluetooth    []platform.BluetoothDevice
	BluetoothErr error
	USB          []platform.USBDevice
	USBErr       error

	// Reachable lists the Bluetooth addresses OpenBluetooth succeeds for.
	// Other well-formed MACs resolve to platform.ErrUnresolved.
	Reachable map[string]bool
	// OpenErr, when set, is returned by every open call.
	OpenErr error
	// Panic, when set, makes every open call panic with this value.
	Panic any

	mu     sync.Mutex
	Opened []*Recorder
}

func (p *Platform) BondedBluetooth() ([]platform.BluetoothDevice, error) {
	if p.BluetoothErr != nil {
		return nil, p.BluetoothErr
	}
	return append([]platform.BluetoothDevice(nil), p.Bluetooth...), nil
}

func (p *Platform) USBDevices() ([]platform.USBDevice, error) {
	if p.USBErr != nil {
		return nil, p.USBErr
	}
	return append([]platform.USBDevice(nil), p.USB...), nil
}

func (p *Platform) OpenBluetooth(address string) (adapter.Adapter, error) {
	if _, err := adapter.ParseBluetoothAddress(address); err != nil {
		return nil, errors.Join(platform.ErrUnresolved, err)
	}
	if errors.Is(p.BluetoothErr, platform.ErrNoAdapter) {
		return nil, p.BluetoothErr
	}
	if !p.Reachable[strings.ToUpper(address)] {
		return nil, platform.ErrUnresolved
	}
	return p.open("bt:" + address)
}

func (p *Platform) OpenUSB(dev platform.USBDevice) (adapter.Adapter, error) {
	return p.open("usb:" + dev.VIDPID())
}

func (p *Platform) open(name string) (adapter.Adapter, error) {
	if p.Panic != nil {
		panic(p.Panic)
	}
	if p.OpenErr != nil {
		return nil, p.OpenErr
	}
	r := &Recorder{Name: name}
	if err := r.Open(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.Opened = append(p.Opened, r)
	p.mu.Unlock()
	return r, nil
}

// Live returns the recorders that are still open.
func (p *Platform) Live() []*Recorder {
	p.mu.Lock()
	defer p.mu.Unlock()
	var live []*Recorder
	for _, r := range p.Opened {
		if r.IsOpen() {
			live = append(live, r)
		}
	}
	return live
}

// Last returns the most recently opened recorder, or nil.
func (p *Platform) Last() *Recorder {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Opened) == 0 {
		return nil
	}
	return p.Opened[len(p.Opened)-1]
}

// PrinterUSB builds a USB descriptor whose first interface is printer class.
func PrinterUSB(bus, address int, vid, pid uint16) platform.USBDevice {
	return platform.USBDevice{
		Bus:              bus,
		Address:          address,
		VendorID:         vid,
		ProductID:        pid,
		InterfaceClasses: []uint8{adapter.IfaceClassPrinter},
		Manufacturer:     "EPSON",
		Product:          "TM-T20",
		SerialNumber:     "X1234",
	}
}

// Ops names each recorded chunk by the receipt operation it encodes:
// "image", "cut", "drawer", or "raw" for anything else.
func Ops(writes [][]byte) []string {
	ops := make([]string, 0, len(writes))
	for _, w := range writes {
		switch {
		case bytes.HasPrefix(w, []byte{0x1B, '@'}):
			ops = append(ops, "image")
		case bytes.HasPrefix(w, []byte{0x1D, 'V'}):
			ops = append(ops, "cut")
		case bytes.HasPrefix(w, []byte{0x1B, 'p'}):
			ops = append(ops, "drawer")
		default:
			ops = append(ops, "raw")
		}
	}
	return ops
}
