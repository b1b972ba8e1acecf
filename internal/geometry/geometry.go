// Package geometry places a source image inside a square card.
//
// The same formula drives every render path: full exports, document pages,
// downscaled thumbnails and the editor overlay. Integer outputs are
// deterministic for identical inputs.
package geometry

import "math"

// Transform bounds.
const (
	MinScale  = 0.5
	MaxScale  = 4.0
	MinOffset = -100.0
	MaxOffset = 100.0
)

// Transform is the user zoom/offset applied on top of the cover fit.
// TX and TY are percentages of the card side.
type Transform struct {
	Scale float64 `json:"scale" yaml:"scale"`
	TX    float64 `json:"tx" yaml:"tx"`
	TY    float64 `json:"ty" yaml:"ty"`
}

// DefaultTransform is the identity placement.
var DefaultTransform = Transform{Scale: 1, TX: 0, TY: 0}

// Clamp returns t with every field forced into its domain.
// NaN falls back to the default for that field.
func (t Transform) Clamp() Transform {
	return Transform{
		Scale: clamp(t.Scale, MinScale, MaxScale, DefaultTransform.Scale),
		TX:    clamp(t.TX, MinOffset, MaxOffset, DefaultTransform.TX),
		TY:    clamp(t.TY, MinOffset, MaxOffset, DefaultTransform.TY),
	}
}

// IsDefault reports whether t is the identity placement.
func (t Transform) IsDefault() bool {
	return t == DefaultTransform
}

func clamp(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return math.Max(lo, math.Min(hi, v))
}

// Rect is the destination rectangle of the scaled source inside the card.
// DX/DY may be negative; the card clips the overflow.
type Rect struct {
	DX, DY int
	DW, DH int
}

// Round is the single rounding rule shared by all call sites:
// half away from zero.
func Round(v float64) int {
	return int(math.Round(v))
}

// ComputeDrawRect returns the cover-fit rectangle for a srcW×srcH image in
// a side×side card, zoomed and offset by t.
//
// srcW and srcH must be positive. Offsets are derived from the rounded
// width and height so that the image edges land on whole pixels.
func ComputeDrawRect(srcW, srcH, side int, t Transform) Rect {
	s := float64(side)
	base := math.Max(s/float64(srcW), s/float64(srcH))
	scale := base * t.Scale

	dw := Round(float64(srcW) * scale)
	dh := Round(float64(srcH) * scale)

	return Rect{
		DX: Round((s-float64(dw))/2 + t.TX/100*s),
		DY: Round((s-float64(dh))/2 + t.TY/100*s),
		DW: dw,
		DH: dh,
	}
}

// DrawRect is ComputeDrawRect with input validation. ok is false when any
// dimension is not positive.
func DrawRect(srcW, srcH, side int, t Transform) (r Rect, ok bool) {
	if srcW <= 0 || srcH <= 0 || side <= 0 {
		return Rect{}, false
	}
	return ComputeDrawRect(srcW, srcH, side, t), true
}

// Covers reports whether r fully covers a side×side square.
func (r Rect) Covers(side int) bool {
	return r.DX <= 0 && r.DY <= 0 && r.DX+r.DW >= side && r.DY+r.DH >= side
}
