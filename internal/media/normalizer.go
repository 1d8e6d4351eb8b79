package media

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	DefaultTargetHeight = 900
	DefaultQuality      = 50

	// NormalizedExt is the extension of every normalized image.
	NormalizedExt = ".jpg"
)

var ErrUnsupportedImageFormat = errors.New("unsupported image format")

// Normalizer rescales uploaded images to a fixed height and re-encodes them
// as JPEG.
type Normalizer struct {
	targetHeight int
	quality      int
}

func NewNormalizer(targetHeight, quality int) *Normalizer {
	if targetHeight <= 0 {
		targetHeight = DefaultTargetHeight
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Normalizer{targetHeight: targetHeight, quality: quality}
}

// Normalize decodes data, resizes it to the target height preserving the
// aspect ratio and returns the JPEG encoding.
func (n *Normalizer) Normalize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImageFormat, err)
	}

	resized := imaging.Resize(img, 0, n.targetHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(n.quality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
