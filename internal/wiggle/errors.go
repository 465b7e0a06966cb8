package wiggle

import (
	"errors"
	"fmt"
)

var (
	ErrMissingInput           = errors.New("missing input")
	ErrInvalidFocalPointCount = errors.New("invalid focal point count")
	ErrInvalidFocalPointValue = errors.New("invalid focal point value")
	ErrInvalidAspectRatio     = errors.New("invalid aspect ratio")
	ErrInvalidVideoSpec       = errors.New("invalid video spec")
	ErrInvalidMode            = errors.New("invalid compositing mode")
	ErrEncodingFailure        = errors.New("encoding failure")
)

// FocalPointCountError reports how many focal points were supplied.
type FocalPointCountError struct {
	Got int
}

func (e *FocalPointCountError) Error() string {
	return fmt.Sprintf("exactly %d focal points are required, got %d", SectionCount, e.Got)
}

func (e *FocalPointCountError) Unwrap() error { return ErrInvalidFocalPointCount }

type FocalPointValueError struct {
	Index int
	Axis  string
	Value string
}

func (e *FocalPointValueError) Error() string {
	return fmt.Sprintf("focal point %d: %s must be an integer, got %s", e.Index, e.Axis, e.Value)
}

func (e *FocalPointValueError) Unwrap() error { return ErrInvalidFocalPointValue }

// AspectRatioError carries the measured and accepted ratios so callers can
// report the exact failing condition.
type AspectRatioError struct {
	Width     int
	Height    int
	Ratio     float64
	Expected  float64
	Tolerance float64
}

func (e *AspectRatioError) Error() string {
	if e.Tolerance == 0 {
		return fmt.Sprintf("image must have a %.1f aspect ratio, got %dx%d (%.4f)",
			e.Expected, e.Width, e.Height, e.Ratio)
	}
	return fmt.Sprintf("image aspect ratio must be within %.1f±%.3f, got %dx%d (%.4f)",
		e.Expected, e.Tolerance, e.Width, e.Height, e.Ratio)
}

func (e *AspectRatioError) Unwrap() error { return ErrInvalidAspectRatio }

// IsValidation reports whether err is a caller input error rather than an
// infrastructure failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingInput) ||
		errors.Is(err, ErrInvalidFocalPointCount) ||
		errors.Is(err, ErrInvalidFocalPointValue) ||
		errors.Is(err, ErrInvalidAspectRatio) ||
		errors.Is(err, ErrInvalidVideoSpec) ||
		errors.Is(err, ErrInvalidMode)
}

// ErrorCode is a stable snake_case name for the error class of err, or ""
// when err is not one of this package's errors.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingInput):
		return "missing_input"
	case errors.Is(err, ErrInvalidFocalPointCount):
		return "invalid_focal_point_count"
	case errors.Is(err, ErrInvalidFocalPointValue):
		return "invalid_focal_point_value"
	case errors.Is(err, ErrInvalidAspectRatio):
		return "invalid_aspect_ratio"
	case errors.Is(err, ErrInvalidVideoSpec):
		return "invalid_video_spec"
	case errors.Is(err, ErrInvalidMode):
		return "invalid_mode"
	case errors.Is(err, ErrEncodingFailure):
		return "encoding_failure"
	default:
		return ""
	}
}
