package wiggle

import (
	"fmt"
	"math"
)

const (
	DefaultVideoLength = 5.0
	DefaultFrameSpeed  = 0.1
)

// frameCountEpsilon absorbs float error in videoLength/frameSpeed, e.g.
// 0.3/0.1 evaluates just below 3.
const frameCountEpsilon = 1e-9

// VideoSpec is the frame rate and frame count of one output video.
type VideoSpec struct {
	FPS         float64
	TotalFrames int
}

// NewVideoSpec derives a VideoSpec from a video length in seconds and a
// frame speed in seconds per frame.
func NewVideoSpec(videoLength, frameSpeed float64) (VideoSpec, error) {
	if math.IsNaN(frameSpeed) || math.IsInf(frameSpeed, 0) || frameSpeed <= 0 {
		return VideoSpec{}, fmt.Errorf("%w: frame speed must be a positive number of seconds, got %v",
			ErrInvalidVideoSpec, frameSpeed)
	}
	if math.IsNaN(videoLength) || math.IsInf(videoLength, 0) || videoLength < 0 {
		return VideoSpec{}, fmt.Errorf("%w: video length must be a non-negative number of seconds, got %v",
			ErrInvalidVideoSpec, videoLength)
	}

	frames := math.Floor(videoLength/frameSpeed + frameCountEpsilon)
	if frames > math.MaxInt32 {
		return VideoSpec{}, fmt.Errorf("%w: %v frames is too many", ErrInvalidVideoSpec, frames)
	}
	return VideoSpec{
		FPS:         1.0 / frameSpeed,
		TotalFrames: int(frames),
	}, nil
}

// Duration is the playback length in seconds.
func (v VideoSpec) Duration() float64 {
	if v.FPS <= 0 {
		return 0
	}
	return float64(v.TotalFrames) / v.FPS
}
