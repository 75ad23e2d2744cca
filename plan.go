package thumbnails

import (
	"fmt"
	"sync"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/adapters/colpic"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/adapters/thumbnail"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/config"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/core"
	apperrors "github.com/xZise/ElegooNeptuneThumbnails-Prusa/errors"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/overlay"
	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/pipeline"
)

// planner builds the pipelines of one run: decode (and overlay) into a
// shared base image, then one block step per preview of the model's group.
type planner struct {
	reg   core.Registry
	cfg   config.Config
	style overlay.Style

	mu    sync.RWMutex
	hooks []core.Hook
}

func newPlanner(reg core.Registry, cfg config.Config, style overlay.Style) *planner {
	return &planner{reg: reg, cfg: cfg, style: style}
}

func (p *planner) addHook(h core.Hook) {
	p.mu.Lock()
	p.hooks = append(p.hooks, h)
	p.mu.Unlock()
}

func (p *planner) Plan(req core.PlanRequest) (*core.Plan, error) {
	p.mu.RLock()
	hooks := append([]core.Hook(nil), p.hooks...)
	p.mu.RUnlock()

	enc, err := p.blockEncoder(req.Model.Group.Encoding())
	if err != nil {
		return nil, err
	}

	base := pipeline.New().Use(&pipeline.DecodeStep{Registry: p.reg}).AddHook(hooks...)
	if req.Labels != [4]string{} {
		base.Use(&pipeline.OverlayStep{Labels: req.Labels, Style: p.style})
	}

	plan := &core.Plan{Base: base}
	for _, b := range req.Model.Group.Blocks() {
		v := pipeline.New().
			Use(&pipeline.BlockStep{Encoder: enc, Box: b.Box, Tag: core.TagMarker(b.Name)}).
			AddHook(hooks...)
		plan.Variants = append(plan.Variants, core.VariantDefinition{Name: b.Name, Runner: v})
	}
	return plan, nil
}

func (p *planner) blockEncoder(e core.Encoding) (core.BlockEncoder, error) {
	resizer := p.reg.Resizer()
	switch e {
	case core.EncodingLegacyRaw:
		return thumbnail.NewLegacy(resizer), nil
	case core.EncodingColPic:
		return thumbnail.NewColPic(resizer, colpic.New()), nil
	case core.EncodingBase64JPEG:
		jpeg, ok := p.reg.EncoderFor(core.FormatJPEG)
		if !ok {
			return nil, apperrors.New(apperrors.CategoryEncode, "plan",
				fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, core.FormatJPEG))
		}
		return thumbnail.NewBase64JPEG(resizer, jpeg, p.cfg.JPEGQuality), nil
	}
	return nil, apperrors.New(apperrors.CategoryPipeline, "plan",
		fmt.Errorf("no block encoder for encoding %q", e))
}
