//go:build vips

package vips

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/config"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/utils"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	DefaultQuality int
	Resampler      string
	MaxCacheSize   int
	MaxWorkers     int
	ReportLeaks    bool
}

// Backend is a unified libvips-powered Decoder, Encoder and Resizer.
// Safe for concurrent use across goroutines.
type Backend struct {
	cfg    BackendConfig
	kernel govips.Kernel
}

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg BackendConfig) *Backend {
	if cfg.DefaultQuality <= 0 {
		cfg.DefaultQuality = 75
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	govips.Startup(&govips.Config{
		ConcurrencyLevel: cfg.MaxWorkers,
		MaxCacheSize:     cfg.MaxCacheSize,
		ReportLeaks:      cfg.ReportLeaks,
	})
	return &Backend{cfg: cfg, kernel: kernelFor(cfg.Resampler)}
}

// Shutdown releases all libvips resources. Call once at process exit.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

// Register makes b the decoder, JPEG encoder and resizer of reg.
func Register(reg core.Registry, b *Backend) {
	for _, f := range []core.Format{core.FormatJPEG, core.FormatPNG, core.FormatWebP} {
		reg.RegisterDecoder(f, b)
	}
	reg.RegisterEncoder(core.FormatJPEG, b)
	reg.SetResizer(b)
}

// ─── Decoder ──────────────────────────────────────────────────────────────────

func (b *Backend) CanDecode(f core.Format) bool {
	switch f {
	case core.FormatJPEG, core.FormatPNG, core.FormatWebP:
		return true
	}
	return false
}

func (b *Backend) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode", err)
	}

	buf, err := utils.DrainReader(ctx, r, 32*1024)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode.drain", err)
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	ref, err := govips.NewImageFromBuffer(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode", err)
	}
	vi, err := wrap(ref)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "vips.decode", err)
	}

	format := vipsFormatToCore(ref.Format())
	return &core.ImageData{
		Data:   raw,
		Format: format,
		Image:  vi,
		Meta: core.Metadata{
			Width:      ref.Width(),
			Height:     ref.Height(),
			Format:     format,
			ColorSpace: vipsInterpretationToColorSpace(ref.Interpretation()),
			HasAlpha:   ref.HasAlpha(),
			SizeBytes:  int64(len(raw)),
		},
		OriginalSize: int64(len(raw)),
	}, nil
}

// ─── Encoder ──────────────────────────────────────────────────────────────────

func (b *Backend) CanEncode(f core.Format) bool { return f == core.FormatJPEG }

func (b *Backend) Encode(ctx context.Context, img *core.ImageData, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode", err)
	}
	if img == nil || img.Image == nil {
		return nil, apperrors.New(apperrors.CategoryEncode, "vips.encode", apperrors.ErrEmptyInput)
	}
	vi, err := toVips(img.Image)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode", err)
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = b.cfg.DefaultQuality
	}
	ep := govips.NewJpegExportParams()
	ep.Quality = quality
	ep.StripMetadata = true
	data, _, err := vi.ref.ExportJpeg(ep)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode.jpeg", err)
	}
	return data, nil
}

// ─── Resizer ──────────────────────────────────────────────────────────────────

// Fit scales img into box with the aspect ratio kept, on a copy of the
// underlying vips image.
func (b *Backend) Fit(ctx context.Context, img image.Image, box core.TargetBox) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, "vips.fit", err)
	}
	src := img.Bounds()
	w, h := utils.FitDimensions(src.Dx(), src.Dy(), box.Width, box.Height)
	if w <= 0 || h <= 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, "vips.fit", apperrors.ErrInvalidDimensions)
	}
	if w == src.Dx() && h == src.Dy() {
		return img, nil
	}

	vi, err := toVips(img)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, "vips.fit", err)
	}
	ref, err := vi.ref.Copy()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, "vips.fit", err)
	}
	hscale := float64(w) / float64(src.Dx())
	vscale := float64(h) / float64(src.Dy())
	if err := ref.ResizeWithVScale(hscale, vscale, b.kernel); err != nil {
		ref.Close()
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, "vips.fit", err)
	}
	out, err := wrap(ref)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, "vips.fit", err)
	}
	return out, nil
}

// ─── VipsImage ────────────────────────────────────────────────────────────────

// VipsImage is an image.Image backed by a libvips image.  Pixel access goes
// through a Go copy made once when the image is wrapped.
type VipsImage struct {
	image.Image
	ref *govips.ImageRef
}

// Ref returns the underlying libvips image.
func (v *VipsImage) Ref() *govips.ImageRef { return v.ref }

func wrap(ref *govips.ImageRef) (*VipsImage, error) {
	pixels, err := ref.ToImage(govips.NewDefaultPNGExportParams())
	if err != nil {
		ref.Close()
		return nil, err
	}
	vi := &VipsImage{Image: pixels, ref: ref}
	runtime.SetFinalizer(vi, func(v *VipsImage) { v.ref.Close() })
	return vi, nil
}

// toVips returns img as a VipsImage, loading other rasters into libvips
// through a PNG encode.
func toVips(img image.Image) (*VipsImage, error) {
	if vi, ok := img.(*VipsImage); ok {
		return vi, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("load raster into libvips: %w", err)
	}
	ref, err := govips.NewImageFromBuffer(buf.Bytes())
	if err != nil {
		return nil, err
	}
	return &VipsImage{Image: img, ref: ref}, nil
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func kernelFor(resampler string) govips.Kernel {
	switch resampler {
	case config.ResamplerBilinear, config.ResamplerApproxBilinear:
		return govips.KernelLinear
	case config.ResamplerCatmullRom:
		return govips.KernelCubic
	}
	return govips.KernelNearest
}

func vipsFormatToCore(f govips.ImageType) core.Format {
	switch f {
	case govips.ImageTypeJPEG:
		return core.FormatJPEG
	case govips.ImageTypePNG:
		return core.FormatPNG
	case govips.ImageTypeWEBP:
		return core.FormatWebP
	default:
		return core.FormatUnknown
	}
}

func vipsInterpretationToColorSpace(i govips.Interpretation) core.ColorSpace {
	switch i {
	case govips.InterpretationBW:
		return core.ColorSpaceGray
	case govips.InterpretationCMYK:
		return core.ColorSpaceCMYK
	default:
		return core.ColorSpaceRGB
	}
}

// compile-time interface checks
var _ core.Decoder = (*Backend)(nil)
var _ core.Encoder = (*Backend)(nil)
var _ core.Resizer = (*Backend)(nil)
