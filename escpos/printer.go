package escpos

import (
	"errors"
	"fmt"
	"image"
	"io"
)

// Profile fixes the rendering parameters of a connection.
type Profile struct {
	DPI           int
	PaperWidthMM  float64
	CharsPerLine  int
	PrintableDots int
}

// DefaultProfile is an 80 mm, 203 dpi printer with 48 columns of Font A.
var DefaultProfile = Profile{
	DPI:           203,
	PaperWidthMM:  80,
	CharsPerLine:  48,
	PrintableDots: 576,
}

// Cash drawer pulse and cut feed used by Printer
const (
	drawerOnTime  = 25  // 50 ms
	drawerOffTime = 250 // 500 ms
	cutFeed       = 48  // ~6 mm at 203 dpi
)

var ErrEmptyImage = errors.New("image has no printable area")

// Printer issues receipt operations on a transport. Each operation is a
// single Write so transports see one buffer per operation.
type Printer struct {
	w         io.Writer
	profile   Profile
	threshold uint8
}

// NewPrinter creates a printer that writes to w
func NewPrinter(w io.Writer, profile Profile) *Printer {
	return &Printer{w: w, profile: profile, threshold: DefaultThreshold}
}

// Profile returns the printer's rendering parameters
func (p *Printer) Profile() Profile {
	return p.profile
}

// PrintImage rasterizes img to the printable width and prints it
func (p *Printer) PrintImage(img image.Image) error {
	r := Rasterize(img, p.profile.PrintableDots, p.threshold)
	if r.Height == 0 {
		return ErrEmptyImage
	}

	buf := Initialize()
	buf = append(buf, RasterImage(r)...)
	buf = append(buf, lf)
	return p.write("print image", buf)
}

// Cut feeds the paper past the cutter and cuts
func (p *Printer) Cut() error {
	return p.write("cut", Cut(cutFeed))
}

// OpenCashDrawer pulses the drawer kick connector on pin 2
func (p *Printer) OpenCashDrawer() error {
	return p.write("open cash drawer", OpenCashDrawer(DrawerPin2, drawerOnTime, drawerOffTime))
}

func (p *Printer) write(op string, data []byte) error {
	n, err := p.w.Write(data)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n < len(data) {
		return fmt.Errorf("%s: %w", op, io.ErrShortWrite)
	}
	return nil
}
