// Package encoder turns rendered cards into file bytes.
package encoder

import (
	"image"
	"math"
)

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the format name ("png", "jpeg", "webp").
	Format() string

	// MIME returns the media type of the encoded bytes.
	MIME() string

	// Encode converts the image to bytes. quality is 1-100 for lossy
	// formats; lossless encoders ignore it.
	Encode(img image.Image, quality int) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// External encoders (cwebp) may not be installed.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string
}

// QualityPercent maps a 0..1 quality onto the 1-100 scale.
func QualityPercent(q float64) int {
	p := int(math.Round(q * 100))
	if p < 1 {
		return 1
	}
	if p > 100 {
		return 100
	}
	return p
}
