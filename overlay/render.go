package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gopkg.in/go-playground/colors.v1"
)

// Style controls how labels are drawn.
type Style struct {
	Text       color.Color
	Background color.Color // nil draws no box behind the text
	Scale      int         // integer upscale of the 7x13 bitmap font
}

// ParseStyle builds a Style from colour strings such as "#fff",
// "rgb(0,0,0)" or "rgba(0,0,0,0.5)".  An empty background disables the box.
func ParseStyle(text, background string, scale int) (Style, error) {
	st := Style{Scale: scale}
	c, err := parseColor(text)
	if err != nil {
		return st, err
	}
	st.Text = c
	if background != "" {
		bg, err := parseColor(background)
		if err != nil {
			return st, err
		}
		st.Background = bg
	}
	if st.Scale < 1 {
		st.Scale = 1
	}
	return st, nil
}

func parseColor(s string) (color.Color, error) {
	c, err := colors.Parse(s)
	if err != nil {
		return nil, err
	}
	rgba := c.ToRGBA()
	return color.NRGBA{R: rgba.R, G: rgba.G, B: rgba.B, A: uint8(rgba.A*255 + 0.5)}, nil
}

// Render returns a copy of src with the non-empty labels drawn into its
// corners (top-left, top-right, bottom-left, bottom-right).  The bitmap font
// only covers ASCII, so the label symbols and other runes it lacks are
// dropped rather than drawn as replacement boxes.
func Render(src image.Image, labels [4]string, st Style) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if n, ok := src.(*image.NRGBA); ok {
		// Row copy keeps the colour of transparent pixels.
		for y := 0; y < b.Dy(); y++ {
			i := n.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+4*b.Dx()], n.Pix[i:i+4*b.Dx()])
		}
	} else {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	}

	scale := st.Scale
	if scale < 1 {
		scale = 1
	}
	margin := 2 * scale
	W, H := dst.Bounds().Dx(), dst.Bounds().Dy()

	for i, text := range labels {
		text = drawable(basicfont.Face7x13, text)
		if text == "" {
			continue
		}
		label := renderLabel(text, st)
		w, h := label.Bounds().Dx()*scale, label.Bounds().Dy()*scale
		x, y := margin, margin
		if i%2 == 1 {
			x = W - w - margin
		}
		if i >= 2 {
			y = H - h - margin
		}
		r := image.Rect(x, y, x+w, y+h)
		xdraw.NearestNeighbor.Scale(dst, r, label, label.Bounds(), xdraw.Over, nil)
	}
	return dst
}

// drawable drops the runes face has no glyph for and trims the spaces left
// around them.
func drawable(face *basicfont.Face, text string) string {
	out := strings.Map(func(r rune) rune {
		for _, rng := range face.Ranges {
			if rng.Low <= r && r < rng.High && r != '\ufffd' {
				return r
			}
		}
		return -1
	}, text)
	return strings.TrimSpace(out)
}

func renderLabel(text string, st Style) *image.RGBA {
	face := basicfont.Face7x13
	m := face.Metrics()
	w := font.MeasureString(face, text).Ceil() + 2
	h := m.Height.Ceil() + 2

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if st.Background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(st.Background), image.Point{}, draw.Src)
	}
	textColor := st.Text
	if textColor == nil {
		textColor = color.White
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(1, 1+m.Ascent.Ceil()),
	}
	d.DrawString(text)
	return img
}
