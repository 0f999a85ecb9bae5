package receipt

import (
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/nixxel-company-limited/receipt-printer-bridge/escpos"
)

type testPageLine struct {
	text string
	bold bool
	size float64 // points at the profile DPI
}

// RenderTestPage draws the printer self-test receipt at the printable
// width of profile.
func RenderTestPage(profile escpos.Profile, now time.Time) (image.Image, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}

	lines := []testPageLine{
		{text: "Test Print", bold: true, size: 12},
		{text: "If you can read this,", size: 9},
		{text: "your printer is working correctly!", size: 9},
		{text: now.Format("2006-01-02 15:04:05"), size: 8},
	}

	width := profile.PrintableDots
	dpi := float64(profile.DPI)

	// lay out first so the canvas fits the text
	faces := make([]font.Face, len(lines))
	height := 0
	for i, l := range lines {
		f := regular
		if l.bold {
			f = bold
		}
		faces[i] = truetype.NewFace(f, &truetype.Options{Size: l.size, DPI: dpi})
		height += faces[i].Metrics().Height.Ceil() * 3 / 2
	}
	height += faces[0].Metrics().Height.Ceil()

	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	c := freetype.NewContext()
	c.SetDPI(dpi)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(image.Black)
	c.SetHinting(font.HintingFull)

	y := 0
	for i, l := range lines {
		f := regular
		if l.bold {
			f = bold
		}
		c.SetFont(f)
		c.SetFontSize(l.size)

		metrics := faces[i].Metrics()
		y += metrics.Ascent.Ceil()
		x := (width - measureString(faces[i], l.text)) / 2
		if x < 0 {
			x = 0
		}
		if _, err := c.DrawString(l.text, freetype.Pt(x, y)); err != nil {
			return nil, err
		}
		y += metrics.Height.Ceil()*3/2 - metrics.Ascent.Ceil()
	}

	return img, nil
}

// measureString returns the advance width of s in pixels
func measureString(face font.Face, s string) int {
	var width fixed.Int26_6
	for _, r := range s {
		if adv, ok := face.GlyphAdvance(r); ok {
			width += adv
		}
	}
	return width.Ceil()
}

// PrintTestPage prints the self-test receipt once, with a cut.
func (e *Executor) PrintTestPage(now time.Time) error {
	printer, err := e.session.Printer()
	if err != nil {
		return err
	}

	img, err := RenderTestPage(printer.Profile(), now)
	if err != nil {
		return err
	}
	return e.run(printer, img, DefaultOptions())
}
