package port

import (
	"context"
	"io"
)

type RenderStorage interface {
	DownloadSource(ctx context.Context, objectKey string, destPath string) error
	UploadVideo(ctx context.Context, objectKey string, reader io.Reader, size int64) error
	UploadSections(ctx context.Context, objectKey string, reader io.Reader, size int64) error
}
