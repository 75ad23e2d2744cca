package decoder

import (
	"context"
	"io"

	"golang.org/x/image/webp"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
)

// WebP decodes WebP previews using golang.org/x/image/webp.
type WebP struct{}

func NewWebP() *WebP { return &WebP{} }

func (w *WebP) CanDecode(format core.Format) bool {
	return format == core.FormatWebP
}

func (w *WebP) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	return decode(ctx, r, core.FormatWebP, "webp.decode", webp.Decode)
}
