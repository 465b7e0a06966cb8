package wiggle

import "image"

// TopIndex is the section shown in front on the given frame: 0, 1, 2, 0, ...
func TopIndex(frameIndex int) int {
	return frameIndex % SectionCount
}

// Sequencer drives the round-robin over the three sections.
type Sequencer struct {
	Mode                  Mode
	UseSecondAsBackground bool
}

// FrameFunc receives frames in display order. Frames may be shared between
// indices with the same top section and must not be modified.
type FrameFunc func(index int, frame *image.RGBA) error

// Each composes spec.TotalFrames frames and hands them to fn in order. It
// stops at the first error returned by fn.
func (s Sequencer) Each(sections [SectionCount]*Section, spec VideoSpec, fn FrameFunc) error {
	c := newComposer(sections)
	var cache [SectionCount]*image.RGBA

	for i := 0; i < spec.TotalFrames; i++ {
		top := TopIndex(i)
		if cache[top] == nil {
			cache[top] = c.compose(top, s.Mode, s.UseSecondAsBackground)
		}
		if err := fn(i, cache[top]); err != nil {
			return err
		}
	}
	return nil
}

// Frames returns the whole sequence.
func (s Sequencer) Frames(sections [SectionCount]*Section, spec VideoSpec) []*image.RGBA {
	if spec.TotalFrames <= 0 {
		return nil
	}
	frames := make([]*image.RGBA, 0, spec.TotalFrames)
	_ = s.Each(sections, spec, func(_ int, frame *image.RGBA) error {
		frames = append(frames, frame)
		return nil
	})
	return frames
}

func SequenceFrames(sections [SectionCount]*Section, spec VideoSpec, mode Mode, useSecondAsBackground bool) []*image.RGBA {
	return Sequencer{Mode: mode, UseSecondAsBackground: useSecondAsBackground}.Frames(sections, spec)
}
