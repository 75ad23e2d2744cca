package config

import (
	"errors"
	"os"

	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/xZise/ElegooNeptuneThumbnails-Prusa/utils"
)

// Backend selects the image codec/resize implementation.
type Backend string

const (
	BackendStd  Backend = "std"
	BackendVips Backend = "vips"
)

// Resampler names accepted by the resize adapter.
const (
	ResamplerNearest        = "nearest"
	ResamplerBilinear       = "bilinear"
	ResamplerApproxBilinear = "approx_bilinear"
	ResamplerCatmullRom     = "catmull_rom"
)

// Config is the top-level configuration struct.  All fields have safe defaults
// so callers can start with Default() and override only what they need.
type Config struct {
	// Printer overrides the model declared in the g-code when it names a
	// known model.
	Printer string `yaml:"printer"`

	// ThumbnailSize is the "WxH" of the embedded preview to read.
	ThumbnailSize string `yaml:"thumbnail_size"`

	// Image handling.
	Resampler   string  `yaml:"resampler"`
	JPEGQuality int     `yaml:"jpeg_quality"` // 1-100; default 75
	Backend     Backend `yaml:"backend"`

	// Streaming / memory limits.
	MaxFileBytes int64 `yaml:"max_file_bytes"` // 0 = no limit
	ChunkSize    int   `yaml:"chunk_size"`     // read chunk size in bytes; default 32 KiB

	// Batch mode; 0 resolves to runtime.NumCPU().
	WorkerCount int `yaml:"worker_count"`

	// Backup keeps a zstd copy of the untouched file next to it.
	Backup bool `yaml:"backup"`

	Censor  CensorConfig  `yaml:"censor"`
	Overlay OverlayConfig `yaml:"overlay"`

	// Logging.
	LogLevel  string `yaml:"log_level"`  // "debug", "info", "warn", "error"
	LogFormat string `yaml:"log_format"` // "text" or "json"
}

// CensorConfig controls the slicer-name rewrite applied to injected files.
type CensorConfig struct {
	Slicer      string `yaml:"slicer"`
	Replacement string `yaml:"replacement"`
}

// OverlayConfig selects the labels drawn into the preview corners.
type OverlayConfig struct {
	TopLeft         string `yaml:"top_left"`
	TopRight        string `yaml:"top_right"`
	BottomLeft      string `yaml:"bottom_left"`
	BottomRight     string `yaml:"bottom_right"`
	TextColor       string `yaml:"text_color"`
	BackgroundColor string `yaml:"background_color"` // empty = no box behind labels
	Scale           int    `yaml:"scale"`
	Currency        string `yaml:"currency"`
}

// Corners returns the corner options in top-left, top-right, bottom-left,
// bottom-right order.
func (o OverlayConfig) Corners() [4]string {
	return [4]string{o.TopLeft, o.TopRight, o.BottomLeft, o.BottomRight}
}

// Default returns a Config populated with the defaults the printers expect.
func Default() Config {
	return Config{
		ThumbnailSize: "600x600",
		Resampler:     ResamplerNearest,
		JPEGQuality:   75,
		Backend:       BackendStd,
		ChunkSize:     32 * 1024,
		Censor: CensorConfig{
			Slicer:      "PrusaSlicer",
			Replacement: "CensoredSlicer",
		},
		Overlay: OverlayConfig{
			TopLeft:     "nothing",
			TopRight:    "nothing",
			BottomLeft:  "nothing",
			BottomRight: "nothing",
			TextColor:   "#ffffff",
			Scale:       3,
			Currency:    "€",
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads a YAML file over Default().  Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, pkgerrors.Wrapf(err, "unable to read config %s", path)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, pkgerrors.Wrapf(err, "unable to parse config %s", path)
	}
	return cfg, nil
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if _, _, err := utils.ParseSize(c.ThumbnailSize); err != nil {
		return pkgerrors.Wrap(err, "config: ThumbnailSize")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return errors.New("config: JPEGQuality must be between 1 and 100")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: ChunkSize must be positive")
	}
	if c.MaxFileBytes < 0 {
		return errors.New("config: MaxFileBytes must not be negative")
	}
	switch c.Resampler {
	case ResamplerNearest, ResamplerBilinear, ResamplerApproxBilinear, ResamplerCatmullRom:
	default:
		return errors.New("config: unknown Resampler " + c.Resampler)
	}
	switch c.Backend {
	case BackendStd, BackendVips:
	default:
		return errors.New("config: unknown Backend " + string(c.Backend))
	}
	if c.Overlay.Scale < 1 {
		return errors.New("config: Overlay.Scale must be at least 1")
	}
	if c.Censor.Slicer != "" && c.Censor.Replacement == "" {
		return errors.New("config: Censor.Replacement must be set when Censor.Slicer is")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.New("config: LogFormat must be text or json")
	}
	return nil
}
