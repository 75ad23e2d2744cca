package errors

import (
	"errors"
	"fmt"
)

// Category classifies error types for targeted handling and monitoring.
// The set is closed: every fatal failure of a run maps to exactly one.
type Category string

const (
	CategoryDecode       Category = "decode"
	CategoryEncode       Category = "encode"
	CategoryPipeline     Category = "pipeline"
	CategoryStorage      Category = "storage"
	CategoryConfig       Category = "config"
	CategoryInput        Category = "input"
	CategoryThumbnail    Category = "thumbnail"
	CategoryPrinterModel Category = "printer_model"
	CategoryCompression  Category = "compression"
)

// ProcessingError is the structured error type used throughout the module.
type ProcessingError struct {
	Category Category
	Op       string // operation name
	Err      error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// New creates a ProcessingError.
func New(category Category, op string, err error) *ProcessingError {
	return &ProcessingError{Category: category, Op: op, Err: err}
}

// Wrap wraps an existing error with context.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Category == cat
	}
	return false
}

// CategoryOf returns the category of the outermost ProcessingError in err's
// chain, or "" when err carries none.
func CategoryOf(err error) Category {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ""
}

// Sentinel errors for common failure modes.
var (
	ErrThumbnailNotFound    = errors.New("correct size thumbnail is not present")
	ErrPrinterModelNotFound = errors.New("printer model not found")
	ErrCompression          = errors.New("colpic compression failed")
	ErrUnsupportedFormat    = errors.New("unsupported image format")
	ErrInvalidDimensions    = errors.New("invalid dimensions")
	ErrEmptyInput           = errors.New("empty input")
	ErrFileTooLarge         = errors.New("file exceeds size limit")
	ErrBackupNotFound       = errors.New("backup not found")
)
