package core

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/config"
	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/gcode"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/overlay"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/utils"
)

// Credit follows the preview blocks.  Firmware that only shows previews for
// Cura files looks for the Cura_SteamEngine mention.
const Credit = ";Thumbnail generated by the ElegooNeptuneThumbnails-Prusa post processing script (https://github.com/Molodos/ElegooNeptuneThumbnails-Prusa)\r" +
	";Just mentioning \"Cura_SteamEngine X.X\" to trick printer into thinking this is Cura and not Prusa gcode\r\r"

// Injector is the central orchestrator: it turns a g-code stream into the
// same stream with printer previews in front.  It is safe for concurrent use.
type Injector struct {
	cfg      config.Config
	registry Registry
	planner  Planner
	logger   Logger

	// Atomic counters for lightweight internal metrics.
	injectedCount int64
	skippedCount  int64
	errorCount    int64
}

// NewInjector creates an Injector building its pipelines with planner.
func NewInjector(cfg config.Config, reg Registry, planner Planner) *Injector {
	return &Injector{cfg: cfg, registry: reg, planner: planner, logger: nopLogger{}}
}

// SetLogger attaches a structured logger.
func (in *Injector) SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	in.logger = l
}

// Registry returns the underlying registry so callers can register
// decoders/encoders after construction.
func (in *Injector) Registry() Registry { return in.registry }

// Inject generates the preview blocks for stream's printer and returns the
// rewritten stream.  Streams for unsupported printers and streams that
// already carry previews are returned unchanged with the matching Status.
// On error no output is produced.
func (in *Injector) Inject(ctx context.Context, stream []byte) (*InjectResult, error) {
	res, err := in.inject(ctx, stream)
	if err != nil {
		atomic.AddInt64(&in.errorCount, 1)
		return nil, err
	}
	if res.Status == StatusInjected {
		atomic.AddInt64(&in.injectedCount, 1)
	} else {
		atomic.AddInt64(&in.skippedCount, 1)
	}
	return res, nil
}

func (in *Injector) inject(ctx context.Context, stream []byte) (*InjectResult, error) {
	start := time.Now()
	if len(stream) == 0 {
		return nil, apperrors.New(apperrors.CategoryInput, "inject", apperrors.ErrEmptyInput)
	}
	text := string(stream)

	// --- 1. Printer model ------------------------------------------------------
	model, err := ResolvePrinterModel(in.cfg.Printer, text)
	if err != nil {
		return nil, err
	}
	if !model.Supported() {
		in.logger.Info("inject.skip", "reason", StatusUnsupportedModel.String(), "model", model.ID)
		return in.unchanged(StatusUnsupportedModel, model, stream, start), nil
	}
	if gcode.HasThumbnailMarkers(text) {
		in.logger.Info("inject.skip", "reason", StatusAlreadyPresent.String(), "model", model.ID)
		return in.unchanged(StatusAlreadyPresent, model, stream, start), nil
	}

	// --- 2. Source preview -----------------------------------------------------
	data, err := gcode.ExtractThumbnail(text, in.cfg.ThumbnailSize)
	if err != nil {
		return nil, err
	}

	var labels [4]string
	if corners := in.cfg.Overlay.Corners(); overlay.Enabled(corners) {
		labels = overlay.Labels(corners, gcode.ParseSliceData(text), in.cfg.Overlay.Currency)
	}

	plan, err := in.planner.Plan(PlanRequest{Model: model, Labels: labels})
	if err != nil {
		return nil, err
	}

	// --- 3. Base pipeline ------------------------------------------------------
	src := &ImageData{
		Data:         data,
		Format:       Format(utils.DetectFormat(data)),
		OriginalSize: int64(len(data)),
	}
	base, timings, err := plan.Base.Run(ctx, src)
	if err != nil {
		return nil, err
	}

	// --- 4. One variant per block ----------------------------------------------
	blocks, variantTimings, err := in.runVariants(ctx, base, plan.Variants)
	if err != nil {
		return nil, err
	}
	for k, v := range variantTimings {
		timings[k] = v
	}

	// --- 5. Assemble -----------------------------------------------------------
	body := gcode.Censor(text, in.cfg.Censor.Slicer, in.cfg.Censor.Replacement)
	var out strings.Builder
	size := len(Credit) + len(body)
	for _, b := range blocks {
		size += len(b.Text)
	}
	out.Grow(size)
	for _, b := range blocks {
		out.WriteString(b.Text)
	}
	out.WriteString(Credit)
	out.WriteString(body)

	total := time.Since(start)
	in.logger.Info("inject.done",
		"model", model.ID,
		"group", model.Group.String(),
		"blocks", len(blocks),
		"duration_ms", total.Milliseconds(),
	)
	return &InjectResult{
		Status:         StatusInjected,
		Model:          model,
		Output:         []byte(out.String()),
		Blocks:         blocks,
		ProcessingTime: total,
		StepTimings:    timings,
	}, nil
}

// runVariants runs every variant, in order, against its own copy of base
// and returns their blocks.  Timings are keyed "<variant>.<step>".
func (in *Injector) runVariants(ctx context.Context, base *ImageData, variants []VariantDefinition) ([]EncodedBlock, map[string]time.Duration, error) {
	blocks := make([]EncodedBlock, 0, len(variants))
	timings := make(map[string]time.Duration)

	for _, vd := range variants {
		// Clone the base ImageData so variant steps don't see each other.
		clone := *base
		out, vt, err := vd.Runner.Run(ctx, &clone)
		for k, d := range vt {
			timings[vd.Name+"."+k] = d
		}
		if err != nil {
			return nil, timings, err
		}
		if out == nil || out.Block == nil {
			return nil, timings, apperrors.New(apperrors.CategoryPipeline, vd.Name,
				fmt.Errorf("variant produced no block"))
		}
		blocks = append(blocks, *out.Block)
	}
	return blocks, timings, nil
}

func (in *Injector) unchanged(status Status, model PrinterModel, stream []byte, start time.Time) *InjectResult {
	return &InjectResult{
		Status:         status,
		Model:          model,
		Output:         stream,
		ProcessingTime: time.Since(start),
		StepTimings:    map[string]time.Duration{},
	}
}

// InjectedCount returns the number of streams previews were added to.
func (in *Injector) InjectedCount() int64 { return atomic.LoadInt64(&in.injectedCount) }

// SkippedCount returns the number of streams returned unchanged.
func (in *Injector) SkippedCount() int64 { return atomic.LoadInt64(&in.skippedCount) }

// ErrorCount returns the total number of failed runs.
func (in *Injector) ErrorCount() int64 { return atomic.LoadInt64(&in.errorCount) }

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
