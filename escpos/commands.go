// Package escpos encodes the ESC/POS commands used for receipts: raster
// images, paper cut and cash drawer kick.
package escpos

const (
	esc = 0x1B
	gs  = 0x1D
	lf  = 0x0A
)

// MaxBandHeight is the row limit of a single GS v 0 command used here.
// Taller images are sent as consecutive bands.
const MaxBandHeight = 255

// Initialize returns ESC @
func Initialize() []byte {
	return []byte{esc, '@'}
}

// RasterImage returns GS v 0 commands for r, one per band.
func RasterImage(r Raster) []byte {
	if r.WidthBytes == 0 || r.Height == 0 {
		return nil
	}

	var out []byte
	for y := 0; y < r.Height; y += MaxBandHeight {
		rows := r.Height - y
		if rows > MaxBandHeight {
			rows = MaxBandHeight
		}
		out = append(out,
			gs, 'v', '0', 0x00,
			byte(r.WidthBytes), byte(r.WidthBytes>>8),
			byte(rows), byte(rows>>8),
		)
		out = append(out, r.Data[y*r.WidthBytes:(y+rows)*r.WidthBytes]...)
	}
	return out
}

// Cut returns GS V 66 n: feed n motion units, then partial cut.
func Cut(feed int) []byte {
	if feed < 0 {
		feed = 0
	}
	if feed > 255 {
		feed = 255
	}
	return []byte{gs, 'V', 66, byte(feed)}
}

// DrawerPin2 selects the drawer kick connector pin 2 for ESC p
const DrawerPin2 = 0

// OpenCashDrawer returns ESC p m t1 t2. Pulse on/off times are in 2 ms units.
func OpenCashDrawer(pin, onTime, offTime byte) []byte {
	return []byte{esc, 'p', pin, onTime, offTime}
}
