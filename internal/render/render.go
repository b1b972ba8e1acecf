// Package render rasterizes cards. Every output in the tool, from grid
// thumbnails to PDF pages, is Rasterize at some side followed by an
// encoder, so identical inputs give identical pixels everywhere.
//
// Layers, bottom to top: background fill, the photo placed by the geometry
// engine, the caption bar and its text.
package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/AnyUserName/squarecards/internal/caption"
	"github.com/AnyUserName/squarecards/internal/fonts"
	"github.com/AnyUserName/squarecards/internal/geometry"
	"github.com/AnyUserName/squarecards/internal/store"
)

// Loader opens the image behind a photo.
type Loader interface {
	Open(p store.PhotoItem) (image.Image, error)
}

// Rasterizer draws cards with one font manager.
type Rasterizer struct {
	fonts *fonts.Manager
}

// NewRasterizer returns a rasterizer using fm for captions.
// A nil manager uses the embedded font.
func NewRasterizer(fm *fonts.Manager) *Rasterizer {
	if fm == nil {
		fm = fonts.Default()
	}
	return &Rasterizer{fonts: fm}
}

// Fonts returns the font manager, for callers that lay out captions.
func (r *Rasterizer) Fonts() *fonts.Manager { return r.fonts }

// RasterizeCard loads the card's photo through l and rasterizes it.
func (r *Rasterizer) RasterizeCard(l Loader, c store.Card, side int, style Style) (*Card, error) {
	src, err := l.Open(c.Photo)
	if err != nil {
		var le *ImageLoadError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, &ImageLoadError{Source: c.Photo.Path, Err: err}
	}
	return r.Rasterize(src, c.Caption, side, c.Transform, style)
}

// Rasterize draws src with its caption into a new side×side card.
// The caller owns the result and must Release it.
func (r *Rasterizer) Rasterize(src image.Image, text string, side int, t geometry.Transform, style Style) (*Card, error) {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &ImageLoadError{Source: "image", Err: fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())}
	}
	style = style.WithDefaults()

	layout, err := caption.Layout(text, side, r.fonts)
	if err != nil {
		return nil, err
	}

	card, err := allocate(side)
	if err != nil {
		return nil, err
	}
	dst := card.img

	if style.Background != nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(style.Background), image.Point{}, draw.Src)
	}

	drawPhoto(dst, src, geometry.ComputeDrawRect(b.Dx(), b.Dy(), side, t.Clamp()))

	if layout.Bar {
		if err := r.drawCaption(dst, layout, style); err != nil {
			card.Release()
			return nil, err
		}
	}
	return card, nil
}

// drawPhoto composites src into rect. Shrinking goes through a Lanczos
// resize of the whole source; enlarging samples Catmull-Rom per
// destination pixel so only the visible part of the card is computed.
func drawPhoto(dst *image.RGBA, src image.Image, rect geometry.Rect) {
	if rect.DW <= 0 || rect.DH <= 0 {
		return
	}
	dr := image.Rect(rect.DX, rect.DY, rect.DX+rect.DW, rect.DY+rect.DH)
	if dr.Intersect(dst.Bounds()).Empty() {
		return
	}

	b := src.Bounds()
	if rect.DW <= b.Dx() && rect.DH <= b.Dy() {
		scaled := imaging.Resize(src, rect.DW, rect.DH, imaging.Lanczos)
		draw.Draw(dst, dr, scaled, image.Point{}, draw.Over)
		return
	}

	sx := float64(rect.DW) / float64(b.Dx())
	sy := float64(rect.DH) / float64(b.Dy())
	s2d := f64.Aff3{
		sx, 0, float64(rect.DX) - sx*float64(b.Min.X),
		0, sy, float64(rect.DY) - sy*float64(b.Min.Y),
	}
	draw.CatmullRom.Transform(dst, s2d, src, b, draw.Over, nil)
}

func (r *Rasterizer) drawCaption(dst *image.RGBA, l caption.LineLayout, style Style) error {
	side := dst.Bounds().Dx()
	bar := image.Rect(0, side-l.BarHeight, side, side)
	draw.Draw(dst, bar, image.NewUniform(style.CaptionBackground), image.Point{}, draw.Over)

	face, err := r.fonts.Face(l.FontSize)
	if err != nil {
		return fmt.Errorf("caption face: %w", err)
	}

	r.fonts.Lock()
	defer r.fonts.Unlock()

	m := face.Metrics()
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(style.TextColor), Face: face}
	x := fixed.I(l.Padding)

	if l.SingleLine {
		// Middle of the glyph box on the bar's midline.
		mid := fixed.I(side) - fixed.Int26_6(l.BarHeight*32)
		d.Dot = fixed.Point26_6{X: x, Y: mid + (m.Ascent-m.Descent)/2}
		d.DrawString(l.Lines[0])
		return nil
	}

	y := side - l.BarHeight + l.Padding
	for _, line := range l.Lines {
		d.Dot = fixed.Point26_6{X: x, Y: fixed.I(y) + m.Ascent}
		d.DrawString(line)
		y += l.LineHeight
	}
	return nil
}
