package wiggle

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// Section is one fixed-size viewport cut from the source image. Pixels that
// fall outside the source are fully transparent. A Section is never
// modified after extraction.
type Section struct {
	Image *image.NRGBA
	// Valid is the part of Image backed by source pixels, in section
	// coordinates. It is empty when the focal point misses the image.
	Valid image.Rectangle
	Focal FocalPoint
}

func (s *Section) Width() int  { return s.Image.Bounds().Dx() }
func (s *Section) Height() int { return s.Image.Bounds().Dy() }

// Content returns the source-backed part of the section.
func (s *Section) Content() image.Image {
	return s.Image.SubImage(s.Valid)
}

// Extractor cuts sections out of a source image. AspectTolerance of zero
// requires an exact 3:2 source.
type Extractor struct {
	AspectTolerance float64
}

// ExtractSections extracts with the strict aspect ratio check.
func ExtractSections(src image.Image, points [SectionCount]FocalPoint) ([SectionCount]*Section, error) {
	return Extractor{}.Extract(src, points)
}

func (e Extractor) Extract(src image.Image, points [SectionCount]FocalPoint) ([SectionCount]*Section, error) {
	var sections [SectionCount]*Section
	if src == nil {
		return sections, fmt.Errorf("%w: no image provided", ErrMissingInput)
	}

	bounds := src.Bounds()
	if err := ValidateAspectRatio(bounds.Dx(), bounds.Dy(), e.AspectTolerance); err != nil {
		return sections, err
	}

	g := NewGeometry(bounds)
	for i, fp := range points {
		sections[i] = extractSection(src, g, fp)
	}
	return sections, nil
}

func extractSection(src image.Image, g Geometry, fp FocalPoint) *Section {
	canvas := image.NewNRGBA(image.Rectangle{Max: g.SectionSize()})

	desired := g.DesiredRect(fp).Add(g.Source.Min)
	valid := desired.Intersect(g.Source)
	if valid.Empty() {
		return &Section{Image: canvas, Focal: fp}
	}

	dst := valid.Sub(desired.Min)
	xdraw.Draw(canvas, dst, src, valid.Min, xdraw.Src)
	return &Section{Image: canvas, Valid: dst, Focal: fp}
}
