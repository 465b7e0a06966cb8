package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/catleonidas/DispoWiggleLens/internal/wiggle"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedImage = errors.New("unsupported or corrupt image")
	ErrImageTooLarge    = errors.New("image too large")
)

// Decoder reads PNG, JPEG, GIF and WebP sources. Unless KeepAlpha is set the
// result is flattened to opaque RGB, matching what the renderer expects
// from a photograph.
type Decoder struct {
	KeepAlpha bool
	MaxPixels int
}

func NewDecoder(keepAlpha bool, maxPixels int) *Decoder {
	return &Decoder{KeepAlpha: keepAlpha, MaxPixels: maxPixels}
}

func (d *Decoder) Decode(r io.Reader) (image.Image, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no image provided", wiggle.ErrMissingInput)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	// The size check needs the real header wherever it sits in the file;
	// JPEG APPn/COM segments may push SOF far from the start.
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrUnsupportedImage, err)
	}
	if d.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(d.MaxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, d.MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnsupportedImage, format, err)
	}

	if d.KeepAlpha {
		return img, nil
	}
	return Opaque(img), nil
}

// Opaque copies img into a new NRGBA image with every alpha set to 255,
// keeping the color channels as stored.
func Opaque(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 255
	}
	return dst
}
