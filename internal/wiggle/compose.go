package wiggle

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// underlayAlpha is the alpha every non-top layer is forced to in
// ModeAlphaBlend.
const underlayAlpha = 128

const (
	firstSection = 0
	lastSection  = SectionCount - 1
)

// ComposeFrame merges sections into one output frame with sections[top] in
// front. The sections must come from one Extract call. The result is a new
// opaque-format RGBA image of the section size; inputs are not modified.
func ComposeFrame(sections [SectionCount]*Section, top int, mode Mode, useSecondAsBackground bool) *image.RGBA {
	return newComposer(sections).compose(normalizeTop(top), mode, useSecondAsBackground)
}

// composer caches the forced-opaque copy of each section so that a
// sequence composes each one at most once.
type composer struct {
	sections [SectionCount]*Section
	opaque   [SectionCount]*image.RGBA
	bounds   image.Rectangle
}

func newComposer(sections [SectionCount]*Section) *composer {
	return &composer{
		sections: sections,
		bounds:   sections[0].Image.Bounds(),
	}
}

func (c *composer) compose(top int, mode Mode, useSecondAsBackground bool) *image.RGBA {
	switch mode {
	case ModeOffsetPlacement:
		return c.composeOffset(top, useSecondAsBackground)
	default:
		return c.composeAlphaBlend(top, useSecondAsBackground)
	}
}

func (c *composer) composeAlphaBlend(top int, useSecondAsBackground bool) *image.RGBA {
	frame := c.blackCanvas()
	if useSecondAsBackground {
		xdraw.Draw(frame, c.bounds, c.sections[1].Image, image.Point{}, xdraw.Src)
	}

	// Back to front: top+1, top+2, then top itself.
	for i := 1; i <= SectionCount; i++ {
		idx := (top + i) % SectionCount
		if idx == top {
			c.paint(frame, idx, 255)
			continue
		}
		if useSecondAsBackground && idx == 1 {
			continue
		}
		c.paint(frame, idx, underlayAlpha)
	}
	return frame
}

// paint pastes section idx with its alpha channel replaced by alpha, so
// transparent padding paints as black at that alpha.
func (c *composer) paint(frame *image.RGBA, idx int, alpha uint8) {
	src := c.opaqueSection(idx)
	if alpha == 255 {
		xdraw.Draw(frame, c.bounds, src, image.Point{}, xdraw.Src)
		return
	}
	mask := image.NewUniform(color.Alpha{A: alpha})
	xdraw.DrawMask(frame, c.bounds, src, image.Point{}, mask, image.Point{}, xdraw.Over)
}

func (c *composer) composeOffset(top int, useSecondAsBackground bool) *image.RGBA {
	frame := c.blackCanvas()
	w, h := c.bounds.Dx(), c.bounds.Dy()

	if useSecondAsBackground {
		bg := c.sections[1].Valid
		at := image.Pt((w-bg.Dx())/2, (h-bg.Dy())/2)
		c.place(frame, 1, at)
	}

	content := c.sections[top].Valid
	if content.Empty() {
		return frame
	}

	var x int
	switch top {
	case firstSection:
		x = w - content.Dx()
	case lastSection:
		x = 0
	default:
		x = (w - content.Dx()) / 2
	}
	c.place(frame, top, image.Pt(x, (h-content.Dy())/2))
	return frame
}

// place copies the valid content of section idx, fully opaque, with its
// top-left corner at at.
func (c *composer) place(frame *image.RGBA, idx int, at image.Point) {
	content := c.sections[idx].Valid
	if content.Empty() {
		return
	}
	r := image.Rectangle{Min: at, Max: at.Add(content.Size())}
	xdraw.Draw(frame, r, c.opaqueSection(idx), content.Min, xdraw.Src)
}

func (c *composer) blackCanvas() *image.RGBA {
	frame := image.NewRGBA(c.bounds)
	xdraw.Draw(frame, c.bounds, image.NewUniform(color.Black), image.Point{}, xdraw.Src)
	return frame
}

func (c *composer) opaqueSection(idx int) *image.RGBA {
	if c.opaque[idx] != nil {
		return c.opaque[idx]
	}
	src := c.sections[idx].Image
	// Straight and premultiplied values coincide once alpha is 255.
	dst := &image.RGBA{
		Pix:    make([]uint8, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 255
	}
	c.opaque[idx] = dst
	return dst
}

func normalizeTop(top int) int {
	top %= SectionCount
	if top < 0 {
		top += SectionCount
	}
	return top
}
