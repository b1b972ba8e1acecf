package render

import (
	"errors"
	"image"
	"sync"
)

// MaxSide bounds the card side a surface may be allocated for.
const MaxSide = 8192

// Surfaces are pooled per side. A 2048 card is 16 MB of RGBA; previews
// re-render the same card many times during an edit session.
var (
	poolMu sync.Mutex
	pools  = map[int]*sync.Pool{}
)

func poolFor(side int) *sync.Pool {
	poolMu.Lock()
	defer poolMu.Unlock()
	p, ok := pools[side]
	if !ok {
		p = &sync.Pool{New: func() any {
			b := make([]uint8, side*side*4)
			return &b
		}}
		pools[side] = p
	}
	return p
}

// Card is a rendered side×side raster. Its owner must call Release once the
// pixels are no longer needed; after that Image returns nil.
type Card struct {
	mu   sync.Mutex
	img  *image.RGBA
	buf  *[]uint8
	side int
}

func allocate(side int) (c *Card, err error) {
	if side <= 0 || side > MaxSide {
		return nil, &SurfaceAllocationError{Side: side, Err: errors.New("side out of range")}
	}
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, &SurfaceAllocationError{Side: side, Err: errors.New("out of memory")}
		}
	}()
	buf := poolFor(side).Get().(*[]uint8)
	clear(*buf)
	return &Card{
		img: &image.RGBA{
			Pix:    *buf,
			Stride: side * 4,
			Rect:   image.Rect(0, 0, side, side),
		},
		buf:  buf,
		side: side,
	}, nil
}

// Image returns the pixels, or nil after Release.
func (c *Card) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.img
}

// Side returns the card side in pixels.
func (c *Card) Side() int { return c.side }

// Release returns the buffer to the pool. It is safe to call more than
// once.
func (c *Card) Release() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buf == nil {
		return
	}
	poolFor(c.side).Put(c.buf)
	c.buf = nil
	c.img = nil
}
