// Package decode turns page byte streams into images.
package decode

import (
	"fmt"
	"image"
	"io"

	// Stdlib formats plus the extended set from golang.org/x/image.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder turns a byte stream into an image.
type Decoder interface {
	Decode(r io.Reader) (image.Image, error)
}

// ImageDecoder decodes any format registered with the image package.
type ImageDecoder struct{}

var _ Decoder = ImageDecoder{}

// Decode reads and decodes a single image from r.
func (ImageDecoder) Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
