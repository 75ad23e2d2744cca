package thumbnail

import (
	"context"
	"image"
	"strings"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
)

const (
	// DefaultMaxColors is the palette budget handed to the compressor.
	DefaultMaxColors = 1024
	// Output buffer bytes reserved per pixel.
	bytesPerPixel = 10
	minBuffer     = 1024
	// The line layout and tail padding firmware expects are computed from a
	// length 10 characters longer than the armoured text.
	layoutSlack = 10
)

// ColPic renders previews for Neptune 3 and 4 firmware: the compressor's
// armoured text folded into tagged lines, closed by a commented run of '0'
// padding.
type ColPic struct {
	Resizer    core.Resizer
	Compressor core.Compressor
	MaxColors  int
}

// NewColPic returns a ColPic encoder using the default palette budget.
func NewColPic(r core.Resizer, c core.Compressor) *ColPic {
	return &ColPic{Resizer: r, Compressor: c, MaxColors: DefaultMaxColors}
}

func (c *ColPic) Encode(ctx context.Context, img image.Image, box core.TargetBox, tag string) (*core.EncodedBlock, error) {
	scaled, err := fit(ctx, c.Resizer, img, box, "colpic.encode")
	if err != nil {
		return nil, err
	}
	if c.Compressor == nil {
		return nil, apperrors.New(apperrors.CategoryCompression, "colpic.encode", apperrors.ErrCompression)
	}

	bounds := scaled.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	maxColors := c.MaxColors
	if maxColors <= 0 {
		maxColors = DefaultMaxColors
	}

	dst := make([]byte, max(bytesPerPixel*w*h, minBuffer))
	n, err := c.Compressor.Encode(core.Pixels565(scaled), w, h, dst, maxColors)
	if err != nil {
		if apperrors.IsCategory(err, apperrors.CategoryCompression) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.CategoryCompression, "colpic.encode", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "colpic.encode", err)
	}

	payload := nonZero(dst[:n])
	layout := len(payload) + layoutSlack
	pad := LineChars - 3 - layout%LineChars + 10

	var b strings.Builder
	b.Grow(len(payload) + (len(payload)/LineChars+1)*(len(tag)+2) + pad + 3)
	fold(&b, tag, payload, layout)
	b.WriteString("\r;")
	b.WriteString(strings.Repeat("0", pad))
	b.WriteString("\r")

	return &core.EncodedBlock{Tag: tag, Width: w, Height: h, Text: b.String()}, nil
}

func nonZero(p []byte) string {
	var b strings.Builder
	b.Grow(len(p))
	for _, c := range p {
		if c != 0 {
			b.WriteByte(c)
		}
	}
	return b.String()
}
