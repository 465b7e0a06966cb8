package wiggle

import (
	"image"
	"image/color"
)

// gradient returns an opaque image whose pixels encode their own position,
// so copied regions can be traced back to the source.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x/256*64 + y/256), A: 255})
		}
	}
	return img
}

func opaqueFraction(s *Section) float64 {
	opaque := 0
	for i := 3; i < len(s.Image.Pix); i += 4 {
		if s.Image.Pix[i] != 0 {
			opaque++
		}
	}
	return float64(opaque) / float64(len(s.Image.Pix)/4)
}

func mustExtract(src image.Image, points [SectionCount]FocalPoint) [SectionCount]*Section {
	sections, err := ExtractSections(src, points)
	if err != nil {
		panic(err)
	}
	return sections
}

var centered = [SectionCount]FocalPoint{{X: 100, Y: 200}, {X: 300, Y: 200}, {X: 500, Y: 200}}
