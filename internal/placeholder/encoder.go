// Package placeholder derives BlurHash strings used as progressive-loading
// placeholders for site images.
package placeholder

import (
	"bytes"
	"fmt"
	"image"

	// Register decoders for the raster formats admins upload.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/buckket/go-blurhash"

	"github.com/camillebr/photosite/internal/content"
)

// Component grid of the hash. 4x3 keeps the string short while preserving
// enough low-frequency detail for a recognizable blur.
const (
	xComponents = 4
	yComponents = 3
)

// Placeholder is the result of encoding one image.
type Placeholder struct {
	// Hash is a short opaque BlurHash string, deterministic for identical
	// pixel content.
	Hash string

	// Width and Height are the ORIGINAL pixel dimensions of the decoded
	// image, before any transcoding.
	Width  int
	Height int
}

// Encode decodes data and produces its placeholder. It fails with
// content.ErrDecode when the bytes cannot be rasterized.
func Encode(data []byte) (Placeholder, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Placeholder{}, fmt.Errorf("%w: %s", content.ErrDecode, err)
	}

	hash, err := blurhash.Encode(xComponents, yComponents, img)
	if err != nil {
		return Placeholder{}, fmt.Errorf("%w: encode blurhash: %s", content.ErrDecode, err)
	}

	bounds := img.Bounds()
	return Placeholder{
		Hash:   hash,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
