package port

import (
	"context"
	"image"
)

// SectionArchiver bundles the cropped sections of one render for export.
type SectionArchiver interface {
	Archive(ctx context.Context, images []image.Image) ([]byte, error)
}
