package wiggle

import (
	"image"
	"math"
)

const (
	// SectionCount is the number of viewports cut from every source image.
	SectionCount = 3

	// TargetAspectRatio is the width/height ratio a source image must have.
	TargetAspectRatio = 1.5
)

// FocalPoint is a pixel coordinate in the source image marking the center
// of one viewport. It may lie outside the image.
type FocalPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (fp FocalPoint) Point() image.Point {
	return image.Point{X: fp.X, Y: fp.Y}
}

// Geometry holds the fixed sizes derived from one source image.
type Geometry struct {
	Source       image.Rectangle
	SectionWidth int
	OutputWidth  int
	OutputHeight int
}

func NewGeometry(bounds image.Rectangle) Geometry {
	w := bounds.Dx() / SectionCount
	return Geometry{
		Source:       bounds,
		SectionWidth: w,
		OutputWidth:  w,
		OutputHeight: bounds.Dy(),
	}
}

// SectionSize is the size of every section and every output frame.
func (g Geometry) SectionSize() image.Point {
	return image.Point{X: g.SectionWidth, Y: g.OutputHeight}
}

// DesiredRect is the section-sized rectangle centered on fp, in source
// coordinates relative to the image origin. It is not clipped.
func (g Geometry) DesiredRect(fp FocalPoint) image.Rectangle {
	left := fp.X - g.SectionWidth/2
	top := fp.Y - g.OutputHeight/2
	return image.Rect(left, top, left+g.SectionWidth, top+g.OutputHeight)
}

// ValidateAspectRatio checks w/h against TargetAspectRatio. A zero tolerance
// demands the exact ratio.
func ValidateAspectRatio(width, height int, tolerance float64) error {
	ratio := 0.0
	if height > 0 {
		ratio = float64(width) / float64(height)
	}
	ok := false
	switch {
	case width <= 0 || height <= 0:
	case tolerance <= 0:
		ok = 2*width == 3*height
	default:
		ok = math.Abs(ratio-TargetAspectRatio) <= tolerance+1e-12
	}
	if !ok {
		return &AspectRatioError{
			Width:     width,
			Height:    height,
			Ratio:     ratio,
			Expected:  TargetAspectRatio,
			Tolerance: math.Max(tolerance, 0),
		}
	}
	return nil
}
