package preview

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/squarecards/internal/encoder"
	"github.com/AnyUserName/squarecards/internal/render"
)

// ErrReleased is returned when a released handle is read.
var ErrReleased = errors.New("preview handle released")

// Handle is a display-sized preview raster. PNG bytes are produced on
// first request and cached.
type Handle struct {
	ID          string
	Side        int
	Placeholder bool

	mu       sync.Mutex
	img      *image.NRGBA
	png      []byte
	released bool
}

func newHandle(id string, img *image.NRGBA, placeholder bool) *Handle {
	return &Handle{ID: id, Side: img.Bounds().Dx(), Placeholder: placeholder, img: img}
}

// Image returns the preview raster, or nil once released.
func (h *Handle) Image() image.Image {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	return h.img
}

// PNG returns the preview encoded as PNG.
func (h *Handle) PNG() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, ErrReleased
	}
	if h.png == nil {
		data, err := (&encoder.PNGEncoder{Fast: true}).Encode(h.img, 0)
		if err != nil {
			return nil, &render.EncodingError{Format: "png", Err: err}
		}
		h.png = data
	}
	return h.png, nil
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release drops the raster. Safe to call more than once.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.released = true
	h.img = nil
	h.png = nil
	h.mu.Unlock()
}

// Placeholder returns a side×side square in the average color of src, or
// neutral grey when src is nil. It stands in for a preview that failed.
func Placeholder(id string, src image.Image, side int) *Handle {
	if side <= 0 {
		side = 1
	}
	c := color.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	if src != nil && !src.Bounds().Empty() {
		avg := AverageColor(src)
		c = color.NRGBA{R: avg[0], G: avg[1], B: avg[2], A: 0xff}
	}
	return newHandle(id, imaging.New(side, side, c), true)
}

// AverageColor returns the mean RGB of img, sampled from a 32×32
// box-filtered thumbnail.
func AverageColor(img image.Image) [3]uint8 {
	small := imaging.Resize(img, 32, 32, imaging.Box)
	b := small.Bounds()
	count := uint64(b.Dx() * b.Dy())
	if count == 0 {
		return [3]uint8{}
	}
	var rSum, gSum, bSum uint64
	for i := 0; i < len(small.Pix); i += 4 {
		rSum += uint64(small.Pix[i])
		gSum += uint64(small.Pix[i+1])
		bSum += uint64(small.Pix[i+2])
	}
	return [3]uint8{
		uint8(rSum / count),
		uint8(gSum / count),
		uint8(bSum / count),
	}
}
