package port

import (
	"image"
	"io"
)

type ImageDecoder interface {
	Decode(r io.Reader) (image.Image, error)
}
