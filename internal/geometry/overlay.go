package geometry

import (
	"fmt"
	"strconv"
)

// Directive is a declarative position for the editor's live overlay: an
// image element sized and translated with CSS instead of rasterized.
type Directive struct {
	// Exact is true once the frame has been measured and the natural size
	// of the image is known. Until then the directive is an approximation.
	Exact bool
	Rect  Rect
	CSS   string
}

// Overlay derives the overlay directive for an image of natural size
// natW×natH inside a measured square frame of frameSide pixels.
//
// A frameSide of zero means the frame has not been measured yet; the
// result is then the object-fit fallback which must be replaced by the
// rasterized preview once a measurement arrives.
func Overlay(natW, natH, frameSide int, t Transform) Directive {
	t = t.Clamp()
	r, ok := DrawRect(natW, natH, frameSide, t)
	if !ok {
		return Directive{
			CSS: fmt.Sprintf(
				"width: 100%%; height: 100%%; object-fit: cover; transform-origin: center; transform: translate(%s%%, %s%%) scale(%s);",
				fmtNum(t.TX), fmtNum(t.TY), fmtNum(t.Scale),
			),
		}
	}
	return Directive{
		Exact: true,
		Rect:  r,
		CSS: fmt.Sprintf(
			"position: absolute; top: 0; left: 0; max-width: none; width: %dpx; height: %dpx; transform: translate3d(%dpx, %dpx, 0);",
			r.DW, r.DH, r.DX, r.DY,
		),
	}
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
