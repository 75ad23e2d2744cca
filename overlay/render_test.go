package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func changedIn(a, b image.Image, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			ar, ag, ab, aa := a.At(x, y).RGBA()
			br, bg, bb, ba := b.At(x, y).RGBA()
			if ar != br || ag != bg || ab != bb || aa != ba {
				return true
			}
		}
	}
	return false
}

func TestRender_Corners(t *testing.T) {
	src := solid(300, 300, color.RGBA{A: 255})
	st, err := ParseStyle("#ffffff", "", 2)
	require.NoError(t, err)

	out := Render(src, [4]string{"", "AB", "", "12"}, st)
	require.Equal(t, src.Bounds(), out.Bounds())

	assert.False(t, changedIn(src, out, image.Rect(0, 0, 100, 100)), "top-left must stay empty")
	assert.True(t, changedIn(src, out, image.Rect(200, 0, 300, 100)), "top-right label missing")
	assert.True(t, changedIn(src, out, image.Rect(200, 200, 300, 300)), "bottom-right label missing")
	assert.False(t, changedIn(src, out, image.Rect(100, 100, 200, 200)), "centre must stay untouched")
}

func TestRender_DoesNotModifySource(t *testing.T) {
	src := solid(64, 64, color.RGBA{R: 10, A: 255})
	before := solid(64, 64, color.RGBA{R: 10, A: 255})
	st, err := ParseStyle("#fff", "rgb(0,0,255)", 1)
	require.NoError(t, err)

	Render(src, [4]string{"x", "y", "z", "w"}, st)
	assert.Equal(t, before.Pix, src.Pix)
}

func TestDrawable(t *testing.T) {
	tcs := map[string]string{
		"⧖ 1:06h":  "1:06h",
		"⛁ 0.25€":  "0.25",
		"◯ 0.40mm": "0.40mm",
		"⧗ N/A":    "N/A",
		"⭱ 48.0mm": "48.0mm",
		"plain":    "plain",
		"⭗":        "",
	}
	for in, want := range tcs {
		assert.Equal(t, want, drawable(basicfont.Face7x13, in), in)
	}
}

func TestRender_SymbolOnlyLabelDrawsNothing(t *testing.T) {
	src := solid(64, 64, color.RGBA{A: 255})
	st, err := ParseStyle("#fff", "#f00", 1)
	require.NoError(t, err)

	out := Render(src, [4]string{"⭗", "", "", ""}, st)
	assert.False(t, changedIn(src, out, src.Bounds()))
}

func TestRender_KeepsTransparentColour(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	src.SetNRGBA(20, 20, color.NRGBA{R: 0x12, G: 0x34, B: 0x56})
	st, err := ParseStyle("#fff", "", 1)
	require.NoError(t, err)

	out := Render(src, [4]string{"A", "", "", ""}, st)
	assert.Equal(t, color.NRGBA{R: 0x12, G: 0x34, B: 0x56}, out.NRGBAAt(20, 20))
}

func TestParseStyle(t *testing.T) {
	st, err := ParseStyle("#ff0000", "rgba(0,0,0,0.5)", 0)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, st.Text)
	assert.Equal(t, color.NRGBA{A: 128}, st.Background)
	assert.Equal(t, 1, st.Scale)

	_, err = ParseStyle("not-a-colour", "", 1)
	assert.Error(t, err)
}
