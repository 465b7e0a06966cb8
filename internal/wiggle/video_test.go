package wiggle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVideoSpec(t *testing.T) {
	tests := []struct {
		length, speed float64
		fps           float64
		frames        int
	}{
		{DefaultVideoLength, DefaultFrameSpeed, 10, 50},
		{0.3, 0.1, 10, 3},
		{1, 0.3, 1 / 0.3, 3},
		{0.7, 0.2, 5, 3},
		{0, 0.1, 10, 0},
		{0.05, 0.1, 10, 0},
	}
	for _, tt := range tests {
		spec, err := NewVideoSpec(tt.length, tt.speed)
		require.NoError(t, err)
		assert.InDelta(t, tt.fps, spec.FPS, 1e-9, "length=%v speed=%v", tt.length, tt.speed)
		assert.Equal(t, tt.frames, spec.TotalFrames, "length=%v speed=%v", tt.length, tt.speed)
	}
}

func TestNewVideoSpecInvalid(t *testing.T) {
	for _, tt := range []struct{ length, speed float64 }{
		{5, 0},
		{5, -0.1},
		{5, math.NaN()},
		{5, math.Inf(1)},
		{-1, 0.1},
		{math.Inf(1), 0.1},
		{1e12, 1e-9},
	} {
		_, err := NewVideoSpec(tt.length, tt.speed)
		assert.ErrorIs(t, err, ErrInvalidVideoSpec, "length=%v speed=%v", tt.length, tt.speed)
	}
}

func TestVideoSpecDuration(t *testing.T) {
	spec, err := NewVideoSpec(5, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, spec.Duration(), 1e-9)
	assert.Equal(t, 0.0, VideoSpec{}.Duration())
}
