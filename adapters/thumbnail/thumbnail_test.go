package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/adapters/colpic"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/adapters/encoder"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/adapters/resize"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
)

// identity leaves images at their source size.
type identity struct{}

func (identity) Fit(_ context.Context, img image.Image, _ core.TargetBox) (image.Image, error) {
	return img, nil
}

// fakeCompressor writes a fixed text.
type fakeCompressor struct {
	text string
	err  error
}

func (f fakeCompressor) Encode(_ []uint16, _, _ int, dst []byte, _ int) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return copy(dst, f.text), nil
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// gradient is a 600x600 preview with enough colours to exercise palettes.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 0xff})
		}
	}
	return img
}

var red = color.NRGBA{R: 0xff, A: 0xff}

// stripTag removes the tag, optionally commented out, from a folded line.
func stripTag(line, tag string) (string, bool) {
	if body, ok := strings.CutPrefix(line, tag); ok {
		return body, true
	}
	return strings.CutPrefix(line, ";"+tag)
}

func TestFold(t *testing.T) {
	const tag = ";gimage:"
	tcs := map[string]struct {
		n      int
		layout int
		want   func(p string) string
	}{
		"short": {
			n:    10,
			want: func(p string) string { return tag + p },
		},
		"exactly one line": {
			n:    LineChars,
			want: func(p string) string { return tag + p },
		},
		"exactly two lines": {
			n: 2 * LineChars,
			want: func(p string) string {
				return tag + p[:LineChars] + "\r" + tag + p[LineChars:]
			},
		},
		"partial last line": {
			n: 2*LineChars + 5,
			want: func(p string) string {
				return tag + p[:LineChars] +
					"\r" + tag + p[LineChars:2*LineChars] +
					"\r;" + tag + p[2*LineChars:]
			},
		},
		"layout past the payload": {
			n:      2*LineChars + 1007,
			layout: 3 * LineChars,
			want: func(p string) string {
				return tag + p[:LineChars] +
					"\r" + tag + p[LineChars:2*LineChars] +
					"\r" + tag + p[2*LineChars:]
			},
		},
	}
	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			payload := strings.Repeat("abcdefg", tc.n/7+1)[:tc.n]
			layout := tc.layout
			if layout == 0 {
				layout = tc.n
			}
			var b strings.Builder
			fold(&b, tag, payload, layout)
			assert.Equal(t, tc.want(payload), b.String())
		})
	}
}

func TestLegacy_TwoRedPixels(t *testing.T) {
	blk, err := NewLegacy(identity{}).Encode(context.Background(), solid(2, 1, red), core.TargetBox{Width: 100, Height: 100}, ";simage:")
	require.NoError(t, err)
	assert.Equal(t, ";simage:00f800f8\rM10086 ;\r", blk.Text)
	assert.Equal(t, 2, blk.Width)
	assert.Equal(t, 1, blk.Height)
}

func TestLegacy_ByteOrder(t *testing.T) {
	// 0x1234 packs from r=0x10, g=0x44, b=0xa0: low byte "34" comes first.
	img := solid(1, 1, color.NRGBA{R: 0x10, G: 0x44, B: 0xa0, A: 0xff})
	require.Equal(t, uint16(0x1234), core.Pack565(0x10, 0x44, 0xa0))

	blk, err := NewLegacy(identity{}).Encode(context.Background(), img, core.TargetBox{Width: 1, Height: 1}, ";simage:")
	require.NoError(t, err)
	assert.Equal(t, ";simage:3412\rM10086 ;\r", blk.Text)
}

func TestLegacy_Scaled(t *testing.T) {
	blk, err := NewLegacy(resize.New("nearest")).Encode(context.Background(), gradient(600, 600),
		core.TargetBox{Width: 200, Height: 200}, ";;gimage:")
	require.NoError(t, err)
	assert.Equal(t, 200, blk.Width)
	assert.Equal(t, 200, blk.Height)
	assert.Equal(t, 200, strings.Count(blk.Text, RowTerminator))
	assert.True(t, strings.HasPrefix(blk.Text, ";;gimage:"))
	assert.True(t, strings.HasSuffix(blk.Text, RowTerminator+"\r"))

	lines := blk.Lines()
	require.Len(t, lines, 201)
	assert.Len(t, lines[0], len(";;gimage:")+200*4)
	for _, l := range lines[1:200] {
		assert.Len(t, l, len("M10086 ;")+200*4)
	}
}

func TestColPic_Framing(t *testing.T) {
	const tag = ";gimage:"
	tcs := map[string]struct {
		n         int
		commented int // index of the line starting ";;gimage:", -1 for none
		pad       int
	}{
		"single line":           {n: 3, commented: -1, pad: 1009},
		"commented last line":   {n: 5000, commented: 4, pad: 72},
		"slack spills the line": {n: 2*LineChars + 1007, commented: -1, pad: 1020},
	}
	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			payload := strings.Repeat("ABCDEFG", tc.n/7+1)[:tc.n]
			enc := NewColPic(identity{}, fakeCompressor{text: payload})
			blk, err := enc.Encode(context.Background(), solid(40, 40, red), core.TargetBox{Width: 200, Height: 200}, tag)
			require.NoError(t, err)

			var want strings.Builder
			for i, start := 0, 0; start < tc.n; i, start = i+1, start+LineChars {
				switch {
				case i == 0:
				case i == tc.commented:
					want.WriteString("\r;")
				default:
					want.WriteString("\r")
				}
				want.WriteString(tag + payload[start:min(start+LineChars, tc.n)])
			}
			want.WriteString("\r;" + strings.Repeat("0", tc.pad) + "\r")
			assert.Equal(t, want.String(), blk.Text)
		})
	}
}

func TestColPic_CompressionFailure(t *testing.T) {
	enc := NewColPic(identity{}, fakeCompressor{err: errors.New("boom")})
	_, err := enc.Encode(context.Background(), solid(4, 4, red), core.TargetBox{Width: 200, Height: 200}, ";gimage:")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryCompression))
}

func TestColPic_RealCodec(t *testing.T) {
	enc := NewColPic(resize.New("nearest"), colpic.New())
	blk, err := enc.Encode(context.Background(), gradient(600, 600), core.TargetBox{Width: 200, Height: 200}, ";gimage:")
	require.NoError(t, err)
	assert.Equal(t, 200, blk.Width)
	assert.Equal(t, 200, blk.Height)

	lines := blk.Lines()
	require.GreaterOrEqual(t, len(lines), 3)
	for i, l := range lines[:len(lines)-1] {
		body, ok := stripTag(l, ";gimage:")
		require.True(t, ok, "line %d", i)
		assert.LessOrEqual(t, len(body), LineChars, "line %d", i)
	}
	assert.Regexp(t, `^;0+$`, lines[len(lines)-1])
	assert.NotContains(t, blk.Text, "\x00")
}

func TestBase64JPEG(t *testing.T) {
	enc := NewBase64JPEG(resize.New("nearest"), encoder.NewJPEG(75), 75)
	blk, err := enc.Encode(context.Background(), gradient(600, 600), core.TargetBox{Width: 400, Height: 400}, ";gimage:")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(blk.Text, "\r"))

	var payload strings.Builder
	for _, l := range blk.Lines() {
		body, ok := stripTag(l, ";gimage:")
		require.True(t, ok)
		require.LessOrEqual(t, len(body), LineChars)
		payload.WriteString(body)
	}
	data, err := base64.StdEncoding.DecodeString(payload.String())
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 400, cfg.Height)
}

func TestEncoders_NoResizer(t *testing.T) {
	_, err := NewLegacy(nil).Encode(context.Background(), solid(1, 1, red), core.TargetBox{Width: 1, Height: 1}, ";simage:")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryPipeline))
}

func BenchmarkColPic(b *testing.B) {
	enc := NewColPic(resize.New("nearest"), colpic.New())
	img := gradient(600, 600)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := enc.Encode(ctx, img, core.TargetBox{Width: 200, Height: 200}, ";gimage:"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLegacy(b *testing.B) {
	enc := NewLegacy(resize.New("nearest"))
	img := gradient(600, 600)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := enc.Encode(ctx, img, core.TargetBox{Width: 200, Height: 200}, ";;gimage:"); err != nil {
			b.Fatal(err)
		}
	}
}
