package port

import (
	"context"
	"image"
)

// FrameStream writes every frame of a video, in display order, to sink.
type FrameStream func(sink func(frame *image.RGBA) error) error

type EncodeRequest struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int
	Frames     FrameStream
}

// VideoEncoder turns composited frames into an encoded video container.
type VideoEncoder interface {
	Encode(ctx context.Context, req EncodeRequest) ([]byte, error)
}

// FramesFromSlice streams an already built frame list.
func FramesFromSlice(frames []*image.RGBA) FrameStream {
	return func(sink func(frame *image.RGBA) error) error {
		for _, f := range frames {
			if err := sink(f); err != nil {
				return err
			}
		}
		return nil
	}
}
