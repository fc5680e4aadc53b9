// Package transcode normalizes uploaded raster images to JPEG at a bounded
// quality so stored blobs stay small and the site serves one format.
package transcode

import (
	"bytes"
	"fmt"
	"image"
	"math"

	// Register decoders so the format sniff recognizes common uploads.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"

	"github.com/camillebr/photosite/internal/content"
)

// Output format constants for path construction and content negotiation.
const (
	Extension   = "jpg"
	ContentType = "image/jpeg"
)

// DefaultQuality is the encoder quality target in [0,1].
const DefaultQuality = 0.8

// Transcode re-encodes data as JPEG at the given quality. When the input is
// already JPEG (detected by format sniff, not file extension) the original
// bytes are returned untouched, unless force is set. Fails with
// content.ErrTranscode on unsupported input or encoder failure.
//
// The size reduction is best effort: output is expected to be smaller than or
// comparable to input for photographic content, never guaranteed.
func Transcode(data []byte, quality float64, force bool) ([]byte, error) {
	if quality <= 0 || quality > 1 {
		quality = DefaultQuality
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: sniff format: %s", content.ErrTranscode, err)
	}
	if format == "jpeg" && !force {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %s", content.ErrTranscode, format, err)
	}

	var buf bytes.Buffer
	jpegQuality := int(math.Round(quality * 100))
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("%w: encode jpeg: %s", content.ErrTranscode, err)
	}
	return buf.Bytes(), nil
}
