package escpos

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	assert.Equal(t, []byte{0x1B, 0x40}, Initialize())
	assert.Equal(t, []byte{0x1D, 0x56, 0x42, 0x30}, Cut(48))
	assert.Equal(t, []byte{0x1D, 0x56, 0x42, 0xFF}, Cut(1000))
	assert.Equal(t, []byte{0x1D, 0x56, 0x42, 0x00}, Cut(-1))
	assert.Equal(t, []byte{0x1B, 0x70, 0x00, 0x19, 0xFA}, OpenCashDrawer(DrawerPin2, 25, 250))
}

func filled(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRasterize(t *testing.T) {
	t.Run("PacksMSBFirst", func(t *testing.T) {
		img := filled(10, 1, color.White)
		img.Set(0, 0, color.Black)
		img.Set(9, 0, color.Black)

		r := Rasterize(img, 576, DefaultThreshold)
		assert.Equal(t, 2, r.WidthBytes)
		assert.Equal(t, 1, r.Height)
		assert.Equal(t, []byte{0x80, 0x40}, r.Data)
	})

	t.Run("TransparentIsPaper", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 8, 1))
		r := Rasterize(img, 576, DefaultThreshold)
		assert.Equal(t, []byte{0x00}, r.Data)
	})

	t.Run("ScalesDownToWidth", func(t *testing.T) {
		img := filled(1152, 100, color.Black)
		r := Rasterize(img, 576, DefaultThreshold)
		assert.Equal(t, 72, r.WidthBytes)
		assert.Equal(t, 50, r.Height)
		assert.Equal(t, bytes.Repeat([]byte{0xFF}, 72*50), r.Data)
	})

	t.Run("KeepsNarrowImages", func(t *testing.T) {
		r := Rasterize(filled(400, 200, color.White), 576, DefaultThreshold)
		assert.Equal(t, 50, r.WidthBytes)
		assert.Equal(t, 200, r.Height)
	})

	t.Run("Empty", func(t *testing.T) {
		r := Rasterize(image.NewGray(image.Rect(0, 0, 0, 0)), 576, DefaultThreshold)
		assert.Zero(t, r.Height)
	})
}

func TestRasterImageBands(t *testing.T) {
	r := Raster{WidthBytes: 2, Height: 300, Data: make([]byte, 600)}

	out := RasterImage(r)
	require.Len(t, out, 8+2*255+8+2*45)

	assert.Equal(t, []byte{0x1D, 'v', '0', 0, 2, 0, 255, 0}, out[:8])
	second := out[8+2*255:]
	assert.Equal(t, []byte{0x1D, 'v', '0', 0, 2, 0, 45, 0}, second[:8])

	assert.Nil(t, RasterImage(Raster{}))
}

type chunkWriter struct {
	chunks [][]byte
	err    error
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.chunks = append(w.chunks, append([]byte(nil), p...))
	return len(p), nil
}

func TestPrinterOperations(t *testing.T) {
	w := &chunkWriter{}
	p := NewPrinter(w, DefaultProfile)

	require.NoError(t, p.PrintImage(filled(16, 2, color.Black)))
	require.NoError(t, p.Cut())
	require.NoError(t, p.OpenCashDrawer())
	require.Len(t, w.chunks, 3)

	want := []byte{0x1B, 0x40, 0x1D, 'v', '0', 0, 2, 0, 2, 0, 0xFF, 0xFF, 0xFF, 0xFF, 0x0A}
	assert.Equal(t, want, w.chunks[0])
	assert.Equal(t, Cut(cutFeed), w.chunks[1])
	assert.Equal(t, []byte{0x1B, 0x70, 0x00, 0x19, 0xFA}, w.chunks[2])

	assert.Equal(t, 576, p.Profile().PrintableDots)
	assert.Equal(t, 48, p.Profile().CharsPerLine)
}

func TestPrinterErrors(t *testing.T) {
	ioErr := errors.New("pipe broken")
	p := NewPrinter(&chunkWriter{err: ioErr}, DefaultProfile)

	err := p.Cut()
	assert.ErrorIs(t, err, ioErr)
	assert.Contains(t, err.Error(), "cut")

	err = NewPrinter(&chunkWriter{}, DefaultProfile).PrintImage(image.NewGray(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, ErrEmptyImage)
}
