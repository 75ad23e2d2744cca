// Package resize scales rasters into target boxes on golang.org/x/image/draw.
package resize

import (
	"context"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/config"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/utils"
)

// Fit is a core.Resizer keeping the aspect ratio of its input.
type Fit struct {
	Interpolator xdraw.Interpolator
}

// New returns a Fit resizer using the named resampler.  Unknown names fall
// back to nearest neighbour.
func New(resampler string) *Fit {
	return &Fit{Interpolator: Interpolator(resampler)}
}

// Interpolator maps a config resampler name to its x/image/draw kernel.
func Interpolator(name string) xdraw.Interpolator {
	switch name {
	case config.ResamplerBilinear:
		return xdraw.BiLinear
	case config.ResamplerApproxBilinear:
		return xdraw.ApproxBiLinear
	case config.ResamplerCatmullRom:
		return xdraw.CatmullRom
	}
	return xdraw.NearestNeighbor
}

// Fit returns img scaled to the largest size inside box with the same
// aspect ratio.  An image that already has that size is returned as is.
func (f *Fit) Fit(ctx context.Context, img image.Image, box core.TargetBox) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, "resize.fit", err)
	}
	src := img.Bounds()
	w, h := utils.FitDimensions(src.Dx(), src.Dy(), box.Width, box.Height)
	if w <= 0 || h <= 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, "resize.fit", apperrors.ErrInvalidDimensions)
	}
	if w == src.Dx() && h == src.Dy() {
		return img, nil
	}

	interp := f.Interpolator
	if interp == nil {
		interp = xdraw.NearestNeighbor
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if n, ok := img.(*image.NRGBA); ok && interp == xdraw.NearestNeighbor {
		// Sampling needs no arithmetic, so scale the non-premultiplied bytes
		// through RGBA views: the stored colour of (semi-)transparent
		// pixels survives unchanged.
		interp.Scale(rgbaView(dst), dst.Bounds(), rgbaView(n), src, xdraw.Src, nil)
		return dst, nil
	}
	interp.Scale(dst, dst.Bounds(), img, src, xdraw.Src, nil)
	return dst, nil
}

func rgbaView(n *image.NRGBA) *image.RGBA {
	return &image.RGBA{Pix: n.Pix, Stride: n.Stride, Rect: n.Rect}
}
