package ffmpeg

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionArchiver(t *testing.T) {
	images := []image.Image{
		image.NewNRGBA(image.Rect(0, 0, 20, 40)),
		image.NewNRGBA(image.Rect(0, 0, 20, 40)),
		image.NewNRGBA(image.Rect(0, 0, 20, 40)),
	}

	data, err := NewSectionArchiver().Archive(context.Background(), images)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)

	for i, f := range zr.File {
		assert.Equal(t, []string{"cropped_0.png", "cropped_1.png", "cropped_2.png"}[i], f.Name)

		rc, err := f.Open()
		require.NoError(t, err)
		cfg, err := png.DecodeConfig(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, 20, cfg.Width)
		assert.Equal(t, 40, cfg.Height)
	}
}

func TestSectionArchiverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSectionArchiver().Archive(ctx, []image.Image{image.NewNRGBA(image.Rect(0, 0, 1, 1))})
	assert.ErrorIs(t, err, context.Canceled)
}
