package ffmpeg

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"time"
)

// SectionArchiver zips cropped sections as cropped_<i>.png.
type SectionArchiver struct{}

func NewSectionArchiver() *SectionArchiver {
	return &SectionArchiver{}
}

func (a *SectionArchiver) Archive(ctx context.Context, images []image.Image) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i, img := range images {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := addImageToZip(zw, fmt.Sprintf("cropped_%d.png", i), img); err != nil {
			return nil, fmt.Errorf("add section %d to zip: %w", i, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

func addImageToZip(zw *zip.Writer, name string, img image.Image) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now().UTC(),
	}

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	return png.Encode(writer, img)
}
