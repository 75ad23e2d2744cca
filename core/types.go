package core

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"
)

// Format identifies an image codec.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatWebP    Format = "webp"
	FormatUnknown Format = "unknown"
)

// ColorSpace represents the image colour model.
type ColorSpace string

const (
	ColorSpaceRGB  ColorSpace = "rgb"
	ColorSpaceRGBA ColorSpace = "rgba"
	ColorSpaceCMYK ColorSpace = "cmyk"
	ColorSpaceGray ColorSpace = "gray"
)

// Metadata holds image information gathered while decoding.
type Metadata struct {
	Width      int
	Height     int
	Format     Format
	ColorSpace ColorSpace
	HasAlpha   bool
	SizeBytes  int64
}

// ImageData is the in-memory representation passed through a pipeline.
// Data holds the encoded preview bytes; Image holds the decoded raster once a
// decode step has run.  Steps never mutate an ImageData they receive; they
// return a modified copy.
type ImageData struct {
	// Encoded bytes as extracted from the g-code.
	Data   []byte
	Format Format

	// Decoded pixel buffer.
	Image image.Image

	// Metadata extracted during decode.
	Meta Metadata

	// Size of the extracted preview in bytes.
	OriginalSize int64

	// Block is set by block steps to the text they produced.
	Block *EncodedBlock
}

// TargetBox is the output resolution requested from a block encoder.  The
// raster is fitted inside it with its aspect ratio preserved.
type TargetBox struct {
	Width, Height int
}

func (b TargetBox) String() string { return fmt.Sprintf("%dx%d", b.Width, b.Height) }

// EncodedBlock is one preview block ready to be prepended to the g-code.
type EncodedBlock struct {
	// Tag is the full marker, e.g. ";gimage:".
	Tag string
	// Width and Height of the raster that was encoded.
	Width, Height int
	// Text holds the exact bytes of the block including its terminators.
	Text string
}

// Lines splits the block on the carriage returns firmware treats as line
// breaks.  The final empty element produced by a trailing "\r" is dropped.
func (b EncodedBlock) Lines() []string {
	lines := strings.Split(b.Text, "\r")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// TagMarker builds the marker firmware scans for from a block name.
func TagMarker(name string) string { return ";" + name + ":" }

// Status reports what an injection run did to the stream.
type Status int

const (
	// StatusInjected means preview blocks were generated and prepended.
	StatusInjected Status = iota
	// StatusUnsupportedModel means the printer model belongs to no known
	// group; the stream is returned unchanged.
	StatusUnsupportedModel
	// StatusAlreadyPresent means the stream already carries preview markers.
	StatusAlreadyPresent
)

func (s Status) String() string {
	switch s {
	case StatusInjected:
		return "injected"
	case StatusUnsupportedModel:
		return "unsupported_model"
	case StatusAlreadyPresent:
		return "already_present"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// InjectResult is returned to the caller after an injection run completes.
type InjectResult struct {
	Status Status
	Model  PrinterModel

	// Output is the full rewritten stream.  When Status is not
	// StatusInjected it is the unchanged input.
	Output []byte
	Blocks []EncodedBlock

	// Observability.
	ProcessingTime time.Duration
	StepTimings    map[string]time.Duration
}

// PlanRequest carries what a Planner needs to assemble the pipelines of one
// run.
type PlanRequest struct {
	Model  PrinterModel
	Labels [4]string // corner labels: top-left, top-right, bottom-left, bottom-right
}

// VariantDefinition is a named pipeline run against the shared base image.
type VariantDefinition struct {
	Name   string
	Runner PipelineRunner
}

// Plan is the set of pipelines for one run: Base prepares the raster, and
// each variant turns it into one preview block, in output order.
type Plan struct {
	Base     PipelineRunner
	Variants []VariantDefinition
}

// Step is the fundamental pipeline building block.  Each Step transforms an
// *ImageData value and must not modify its input.
type Step interface {
	Name() string
	Execute(ctx context.Context, img *ImageData) (*ImageData, error)
}

// Hook is an optional observer invoked around pipeline steps.
type Hook interface {
	BeforeStep(ctx context.Context, stepName string, img *ImageData)
	AfterStep(ctx context.Context, stepName string, img *ImageData, d time.Duration, err error)
}
