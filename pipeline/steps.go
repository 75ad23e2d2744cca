package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/overlay"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/utils"
)

// ── Decode ────────────────────────────────────────────────────────────────────

// DecodeStep decodes the preview bytes in img.Data into an image.Image.  An
// unknown format is sniffed from the data.
type DecodeStep struct {
	Registry core.Registry
}

func (s *DecodeStep) Name() string { return "decode" }

func (s *DecodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if img.Image != nil {
		return img, nil // already decoded
	}
	if len(img.Data) == 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, s.Name(), apperrors.ErrEmptyInput)
	}
	format := img.Format
	if format == "" || format == core.FormatUnknown {
		format = core.Format(utils.DetectFormat(img.Data))
	}
	dec, ok := s.Registry.DecoderFor(format)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryDecode, s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format))
	}

	decoded, err := dec.Decode(ctx, bytes.NewReader(img.Data))
	if err != nil {
		return nil, err
	}

	// Preserve the raw data bytes alongside the decoded representation.
	decoded.Data = img.Data
	decoded.OriginalSize = img.OriginalSize
	return decoded, nil
}

// ── Overlay ───────────────────────────────────────────────────────────────────

// OverlayStep draws slicing statistics into the corners of the preview.
type OverlayStep struct {
	Labels [4]string
	Style  overlay.Style
}

func (s *OverlayStep) Name() string { return "overlay" }

func (s *OverlayStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	if img.Image == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), apperrors.ErrEmptyInput)
	}
	if s.Labels == [4]string{} {
		return img, nil
	}

	out := *img
	out.Image = overlay.Render(img.Image, s.Labels, s.Style)
	out.Meta.ColorSpace = core.ColorSpaceRGBA
	return &out, nil
}

// ── Block ─────────────────────────────────────────────────────────────────────

// BlockStep renders the preview as one firmware block with Encoder.
type BlockStep struct {
	Encoder core.BlockEncoder
	Box     core.TargetBox
	Tag     string
}

func (s *BlockStep) Name() string { return "block" }

func (s *BlockStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if img.Image == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), apperrors.ErrEmptyInput)
	}
	blk, err := s.Encoder.Encode(ctx, img.Image, s.Box, s.Tag)
	if err != nil {
		return nil, err
	}

	out := *img
	out.Block = blk
	out.Meta.Width = blk.Width
	out.Meta.Height = blk.Height
	out.Meta.SizeBytes = int64(len(blk.Text))
	return &out, nil
}
