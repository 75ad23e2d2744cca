package decoder

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
)

func sample() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 12, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 12; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 20), G: uint8(y * 30), B: 0x80, A: 0xff})
		}
	}
	return img
}

func TestPNG_Decode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, sample()))
	size := int64(buf.Len())

	out, err := NewPNG().Decode(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, core.FormatPNG, out.Format)
	assert.Equal(t, 12, out.Meta.Width)
	assert.Equal(t, 8, out.Meta.Height)
	assert.Equal(t, size, out.Meta.SizeBytes)
	assert.Equal(t, color.NRGBA{R: 40, G: 30, B: 0x80, A: 0xff}, color.NRGBAModel.Convert(out.Image.At(2, 1)))
}

func TestJPEG_Decode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, sample(), nil))

	out, err := NewJPEG().Decode(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, core.FormatJPEG, out.Format)
	assert.Equal(t, 12, out.Meta.Width)
	assert.False(t, out.Meta.HasAlpha)
}

func TestDecode_Invalid(t *testing.T) {
	decoders := map[string]core.Decoder{
		"png":  NewPNG(),
		"jpeg": NewJPEG(),
		"webp": NewWebP(),
	}
	for name, d := range decoders {
		t.Run(name, func(t *testing.T) {
			_, err := d.Decode(context.Background(), bytes.NewReader([]byte("not an image")))
			require.Error(t, err)
			assert.True(t, apperrors.IsCategory(err, apperrors.CategoryDecode))
		})
	}
}

func TestDecode_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPNG().Decode(ctx, bytes.NewReader(nil))
	require.ErrorIs(t, err, context.Canceled)
}

func TestCanDecode(t *testing.T) {
	assert.True(t, NewPNG().CanDecode(core.FormatPNG))
	assert.False(t, NewPNG().CanDecode(core.FormatJPEG))
	assert.True(t, NewJPEG().CanDecode(core.FormatJPEG))
	assert.True(t, NewWebP().CanDecode(core.FormatWebP))
}
