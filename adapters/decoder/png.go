package decoder

import (
	"context"
	"image/png"
	"io"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
)

// PNG decodes PNG previews, the format PrusaSlicer embeds by default.
type PNG struct{}

func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanDecode(format core.Format) bool {
	return format == core.FormatPNG
}

func (p *PNG) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	return decode(ctx, r, core.FormatPNG, "png.decode", png.Decode)
}
