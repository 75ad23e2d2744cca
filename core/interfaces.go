package core

import (
	"context"
	"image"
	"io"
	"time"
)

// Decoder converts raw bytes / a reader into an in-memory ImageData.
// Implementations live in adapters/decoder/.
type Decoder interface {
	// Decode reads from r and returns a decoded ImageData.
	Decode(ctx context.Context, r io.Reader) (*ImageData, error)
	// CanDecode reports whether this decoder handles the given format hint.
	CanDecode(format Format) bool
}

// Encoder serialises an ImageData to bytes in a target format.
// Implementations live in adapters/encoder/.
type Encoder interface {
	Encode(ctx context.Context, img *ImageData, opts EncodeOptions) ([]byte, error)
	CanEncode(format Format) bool
}

// EncodeOptions carries format-specific encoding parameters.
type EncodeOptions struct {
	Quality int // 1-100; 0 = use encoder default
}

// Resizer scales a raster to fit inside a box, preserving its aspect ratio.
type Resizer interface {
	Fit(ctx context.Context, img image.Image, box TargetBox) (image.Image, error)
}

// Compressor packs 5-6-5 pixels into the ColPic text representation.  It
// writes into dst and returns the number of bytes used; dst bounds the
// output size.
type Compressor interface {
	Encode(pixels []uint16, width, height int, dst []byte, maxColors int) (int, error)
}

// BlockEncoder renders a raster as one printer-specific preview block.
// Implementations live in adapters/thumbnail/.
type BlockEncoder interface {
	Encode(ctx context.Context, img image.Image, box TargetBox, tag string) (*EncodedBlock, error)
}

// StreamStore reads and atomically rewrites g-code files.
// Implementations live in adapters/storage/.
type StreamStore interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Replace(ctx context.Context, path string, data []byte) error
	Backup(ctx context.Context, path string, data []byte) error
	Restore(ctx context.Context, path string) error
}

// MetricsCollector receives performance observations from the pipeline.
type MetricsCollector interface {
	RecordProcessingTime(stepName string, d interface{ Seconds() float64 })
	RecordThroughput(bytes int64)
	RecordError(stepName string, category string)
}

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Registry maps Format values to Decoder/Encoder implementations and holds
// the Resizer block encoders scale with.
type Registry interface {
	DecoderFor(format Format) (Decoder, bool)
	EncoderFor(format Format) (Encoder, bool)
	RegisterDecoder(format Format, d Decoder)
	RegisterEncoder(format Format, e Encoder)
	SetResizer(r Resizer)
	Resizer() Resizer
}

// PipelineRunner is a minimal interface over pipeline.Pipeline so that core
// does not import the pipeline package (avoiding a circular dependency).
type PipelineRunner interface {
	Run(ctx context.Context, img *ImageData) (*ImageData, map[string]time.Duration, error)
}

// Planner assembles the pipelines for a resolved printer model.
type Planner interface {
	Plan(req PlanRequest) (*Plan, error)
}
