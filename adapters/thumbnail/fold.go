// Package thumbnail holds the block encoders that turn a raster into the
// preview text Elegoo Neptune firmware reads from the start of a g-code file.
package thumbnail

import (
	"context"
	"image"
	"strings"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
)

// LineChars is the payload length of one folded block line.  Firmware reads
// lines into 1024 byte buffers that also hold the tag and terminators.
const LineChars = 1024 - 8 - 1

// fold writes payload to b in lines of LineChars characters, each starting
// with tag.  The line starting at offset lastLine(n) is commented out with a
// leading ';', unless it is the first line.  n is the length the line layout
// is computed from, which is not always len(payload).
func fold(b *strings.Builder, tag, payload string, n int) {
	last := lastLine(n)
	for start := 0; start < len(payload); start += LineChars {
		switch {
		case start == 0:
		case start == last:
			b.WriteString("\r;")
		default:
			b.WriteString("\r")
		}
		b.WriteString(tag)
		b.WriteString(payload[start:min(start+LineChars, len(payload))])
	}
}

// lastLine is the offset of the commented final line for a payload of
// length n.  It lies past the payload when n overshoots it.
func lastLine(n int) int { return n / LineChars * LineChars }

// fit scales img into box with r.
func fit(ctx context.Context, r core.Resizer, img image.Image, box core.TargetBox, op string) (image.Image, error) {
	if img == nil {
		return nil, apperrors.New(apperrors.CategoryEncode, op, apperrors.ErrEmptyInput)
	}
	if box.Width <= 0 || box.Height <= 0 {
		return nil, apperrors.New(apperrors.CategoryEncode, op, apperrors.ErrInvalidDimensions)
	}
	if r == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, op, errNoResizer)
	}
	return r.Fit(ctx, img, box)
}
