package thumbnail

import (
	"context"
	"encoding/base64"
	"image"
	"strings"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
)

// Base64JPEG renders previews for firmware that reads base64 JPEG data,
// folded into tagged lines the same way as ColPic text.
type Base64JPEG struct {
	Resizer core.Resizer
	Encoder core.Encoder
	Quality int // 0 = encoder default
}

// NewBase64JPEG returns a Base64JPEG encoder.
func NewBase64JPEG(r core.Resizer, e core.Encoder, quality int) *Base64JPEG {
	return &Base64JPEG{Resizer: r, Encoder: e, Quality: quality}
}

func (j *Base64JPEG) Encode(ctx context.Context, img image.Image, box core.TargetBox, tag string) (*core.EncodedBlock, error) {
	scaled, err := fit(ctx, j.Resizer, img, box, "base64jpeg.encode")
	if err != nil {
		return nil, err
	}
	if j.Encoder == nil {
		return nil, apperrors.New(apperrors.CategoryEncode, "base64jpeg.encode", apperrors.ErrUnsupportedFormat)
	}

	bounds := scaled.Bounds()
	data, err := j.Encoder.Encode(ctx, &core.ImageData{
		Image:  scaled,
		Format: core.FormatJPEG,
		Meta:   core.Metadata{Width: bounds.Dx(), Height: bounds.Dy(), Format: core.FormatJPEG},
	}, core.EncodeOptions{Quality: j.Quality})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "base64jpeg.encode", err)
	}

	payload := base64.StdEncoding.EncodeToString(data)
	var b strings.Builder
	b.Grow(len(payload) + (len(payload)/LineChars+1)*(len(tag)+2) + 1)
	fold(&b, tag, payload, len(payload))
	b.WriteString("\r")

	return &core.EncodedBlock{Tag: tag, Width: bounds.Dx(), Height: bounds.Dy(), Text: b.String()}, nil
}
