package core

import (
	"image"
	"image/color"
)

// Pack565 packs an RGB8 colour into a 16-bit 5-6-5 word.  The low 3 bits of
// red and blue and the low 2 bits of green are discarded.
func Pack565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// RGB8At samples the pixel at (x, y) as non-premultiplied RGB8.
func RGB8At(img image.Image, x, y int) (r, g, b uint8) {
	if src, ok := img.(*image.NRGBA); ok {
		i := src.PixOffset(x, y)
		return src.Pix[i], src.Pix[i+1], src.Pix[i+2]
	}
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return c.R, c.G, c.B
}

// Pixels565 returns the packed colour of every pixel of img in row-major
// order.
func Pixels565(img image.Image) []uint16 {
	b := img.Bounds()
	out := make([]uint16, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, Pack565(RGB8At(img, x, y)))
		}
	}
	return out
}
