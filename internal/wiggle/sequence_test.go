package wiggle

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopIndexRoundRobin(t *testing.T) {
	var got []int
	for i := 0; i < 8; i++ {
		got = append(got, TopIndex(i))
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0, 1}, got)
}

func TestSequencerEachOrder(t *testing.T) {
	sections := mustExtract(gradient(600, 400), [SectionCount]FocalPoint{{50, 100}, {300, 200}, {550, 300}})
	seq := Sequencer{Mode: ModeAlphaBlend}

	var indices []int
	err := seq.Each(sections, VideoSpec{FPS: 10, TotalFrames: 7}, func(i int, frame *image.RGBA) error {
		indices = append(indices, i)
		want := ComposeFrame(sections, TopIndex(i), ModeAlphaBlend, false)
		assert.Equal(t, want.Pix, frame.Pix, "frame %d", i)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, indices)
}

func TestSequencerEachStopsOnError(t *testing.T) {
	sections := mustExtract(gradient(600, 400), centered)
	boom := errors.New("boom")

	calls := 0
	err := Sequencer{}.Each(sections, VideoSpec{FPS: 10, TotalFrames: 50}, func(i int, _ *image.RGBA) error {
		calls++
		if i == 4 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, calls)
}

func TestSequenceFramesExample(t *testing.T) {
	src := gradient(600, 400)
	sections, err := ExtractSections(src, centered)
	require.NoError(t, err)

	spec, err := NewVideoSpec(0.3, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, spec.FPS, 1e-9)
	assert.Equal(t, 3, spec.TotalFrames)

	frames := SequenceFrames(sections, spec, ModeAlphaBlend, false)
	require.Len(t, frames, 3)
	for i, f := range frames {
		assert.Equal(t, image.Rect(0, 0, 200, 400), f.Bounds())
		// Each section is fully inside the image, so frame i shows section i.
		assert.Equal(t, src.RGBAAt(i*200+10, 20), f.RGBAAt(10, 20), "frame %d", i)
	}
}

func TestSequenceFramesRotationCounts(t *testing.T) {
	sections := mustExtract(gradient(600, 400), centered)

	for _, n := range []int{1, 2, 3, 10, 50} {
		frames := SequenceFrames(sections, VideoSpec{FPS: 10, TotalFrames: n}, ModeOffsetPlacement, true)
		require.Len(t, frames, n)

		counts := map[*image.RGBA]int{}
		for i, f := range frames {
			counts[f]++
			assert.Same(t, frames[TopIndex(i)], f)
		}
		for _, c := range counts {
			assert.True(t, c == n/3 || c == (n+2)/3, "n=%d count=%d", n, c)
		}
	}
}

func TestSequenceFramesEmpty(t *testing.T) {
	sections := mustExtract(gradient(600, 400), centered)
	assert.Empty(t, SequenceFrames(sections, VideoSpec{FPS: 10}, ModeAlphaBlend, false))
}
