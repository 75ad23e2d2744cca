// Package thumbnails adds Elegoo Neptune printer previews to PrusaSlicer
// g-code: it reads the embedded PNG thumbnail, re-encodes it in the format
// the target printer's firmware reads and prepends the result.
package thumbnails

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/adapters/decoder"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/adapters/encoder"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/adapters/resize"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/adapters/storage"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/config"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/overlay"
)

// DefaultConfig returns the configuration the printers expect.
func DefaultConfig() config.Config { return config.Default() }

// Injector is the primary entry point.
type Injector struct {
	inner   *core.Injector
	reg     *core.DefaultRegistry
	planner *planner
	store   core.StreamStore
	cfg     config.Config
}

// New creates a fully wired Injector with the PNG, JPEG and WebP decoders,
// the JPEG encoder and the x/image resizer registered.
func New(cfg config.Config) (*Injector, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryConfig, "new", err)
	}
	for _, name := range cfg.Overlay.Corners() {
		if _, ok := overlay.ParseOption(name); !ok {
			return nil, apperrors.New(apperrors.CategoryConfig, "new",
				fmt.Errorf("unknown overlay option %q", name))
		}
	}
	style, err := overlay.ParseStyle(cfg.Overlay.TextColor, cfg.Overlay.BackgroundColor, cfg.Overlay.Scale)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryConfig, "new", err)
	}

	reg := core.NewRegistry()
	reg.RegisterDecoder(core.FormatPNG, decoder.NewPNG())
	reg.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG())
	reg.RegisterDecoder(core.FormatWebP, decoder.NewWebP())
	reg.RegisterEncoder(core.FormatJPEG, encoder.NewJPEG(cfg.JPEGQuality))
	reg.SetResizer(resize.New(cfg.Resampler))

	pl := newPlanner(reg, cfg, style)
	return &Injector{
		inner:   core.NewInjector(cfg, reg, pl),
		reg:     reg,
		planner: pl,
		store:   storage.NewFile(cfg.MaxFileBytes, cfg.ChunkSize),
		cfg:     cfg,
	}, nil
}

// SetLogger attaches a structured logger.
func (i *Injector) SetLogger(l core.Logger) { i.inner.SetLogger(l) }

// AddHook registers an observer for pipeline step events.
func (i *Injector) AddHook(h core.Hook) { i.planner.addHook(h) }

// SetStore replaces the file store used by InjectFile, Batch and Restore.
func (i *Injector) SetStore(s core.StreamStore) { i.store = s }

// Inner returns the underlying core.Injector.
func (i *Injector) Inner() *core.Injector { return i.inner }

// Registry returns the codec registry, e.g. to install another backend.
func (i *Injector) Registry() core.Registry { return i.reg }

// Inject rewrites stream in memory.
func (i *Injector) Inject(ctx context.Context, stream []byte) (*core.InjectResult, error) {
	return i.inner.Inject(ctx, stream)
}

// InjectFile rewrites the g-code file at path in place.  The file is only
// written when previews were added; on any error it is left untouched.
func (i *Injector) InjectFile(ctx context.Context, path string) (*core.InjectResult, error) {
	data, err := i.store.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	res, err := i.inner.Inject(ctx, data)
	if err != nil {
		return nil, err
	}
	if res.Status != core.StatusInjected {
		return res, nil
	}
	if i.cfg.Backup {
		if err := i.store.Backup(ctx, path, data); err != nil {
			return nil, err
		}
	}
	if err := i.store.Replace(ctx, path, res.Output); err != nil {
		return nil, err
	}
	return res, nil
}

// Batch runs InjectFile over paths concurrently, at most WorkerCount at a
// time.  Results and errors are index-aligned with paths; one failing file
// does not stop the others.
func (i *Injector) Batch(ctx context.Context, paths []string) ([]*core.InjectResult, []error) {
	results := make([]*core.InjectResult, len(paths))
	errs := make([]error, len(paths))

	limit := i.cfg.WorkerCount
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for idx, path := range paths {
		idx, path := idx, path
		g.Go(func() error {
			results[idx], errs[idx] = i.InjectFile(ctx, path)
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}

// Restore puts back the content saved by a run with Backup enabled.
func (i *Injector) Restore(ctx context.Context, path string) error {
	return i.store.Restore(ctx, path)
}

// Stats returns lightweight processing statistics.
func (i *Injector) Stats() (injected, skipped, errors int64) {
	return i.inner.InjectedCount(), i.inner.SkippedCount(), i.inner.ErrorCount()
}
