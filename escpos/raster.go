package escpos

import (
	"image"
	"image/color"
)

// DefaultThreshold is the luminance below which a pixel prints black
const DefaultThreshold = 128

// Raster is a 1-bit image, MSB first, rows padded to whole bytes.
type Raster struct {
	WidthBytes int
	Height     int
	Data       []byte
}

// Rasterize converts img to a monochrome raster no wider than maxWidth
// dots, scaling down with nearest-neighbour sampling when needed.
// Transparent pixels are treated as paper.
func Rasterize(img image.Image, maxWidth int, threshold uint8) Raster {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 || maxWidth <= 0 {
		return Raster{}
	}

	dstW, dstH := srcW, srcH
	if srcW > maxWidth {
		dstW = maxWidth
		dstH = srcH * maxWidth / srcW
		if dstH == 0 {
			dstH = 1
		}
	}

	widthBytes := (dstW + 7) / 8
	data := make([]byte, widthBytes*dstH)

	for y := 0; y < dstH; y++ {
		srcY := bounds.Min.Y + y*srcH/dstH
		for x := 0; x < dstW; x++ {
			srcX := bounds.Min.X + x*srcW/dstW
			if luminance(img.At(srcX, srcY)) < threshold {
				data[y*widthBytes+x/8] |= 0x80 >> (x % 8)
			}
		}
	}

	return Raster{WidthBytes: widthBytes, Height: dstH, Data: data}
}

// luminance composites c over white and returns its grey level
func luminance(c color.Color) uint8 {
	r, g, b, a := c.RGBA()
	// premultiplied: add the white showing through
	white := 0xffff - a
	r, g, b = r+white, g+white, b+white
	gray := (299*r + 587*g + 114*b) / 1000
	return uint8(gray >> 8)
}
