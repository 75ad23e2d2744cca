package thumbnail

import (
	"context"
	"errors"
	"image"
	"strings"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
)

var errNoResizer = errors.New("no resizer configured")

// RowTerminator ends every pixel row of a legacy block.
const RowTerminator = "\rM10086 ;"

const hexDigits = "0123456789abcdef"

// Legacy renders previews for Neptune 2 and X firmware: every pixel as a
// 5-6-5 word in four lowercase hex digits, low byte first, one image row
// per line.
type Legacy struct {
	Resizer core.Resizer
}

// NewLegacy returns a Legacy encoder scaling with r.
func NewLegacy(r core.Resizer) *Legacy { return &Legacy{Resizer: r} }

func (l *Legacy) Encode(ctx context.Context, img image.Image, box core.TargetBox, tag string) (*core.EncodedBlock, error) {
	scaled, err := fit(ctx, l.Resizer, img, box, "legacy.encode")
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "legacy.encode", err)
	}

	bounds := scaled.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var b strings.Builder
	b.Grow(len(tag) + h*(w*4+len(RowTerminator)) + 1)
	b.WriteString(tag)
	row := make([]byte, w*4)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		i := 0
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			word := core.Pack565(core.RGB8At(scaled, x, y))
			lo, hi := byte(word), byte(word>>8)
			row[i] = hexDigits[lo>>4]
			row[i+1] = hexDigits[lo&0x0f]
			row[i+2] = hexDigits[hi>>4]
			row[i+3] = hexDigits[hi&0x0f]
			i += 4
		}
		b.Write(row)
		b.WriteString(RowTerminator)
	}
	b.WriteString("\r")

	return &core.EncodedBlock{Tag: tag, Width: w, Height: h, Text: b.String()}, nil
}
