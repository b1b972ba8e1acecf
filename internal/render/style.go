package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Style holds the three colors a card is drawn with.
// A nil Background leaves the surface transparent.
type Style struct {
	Background        color.Color
	CaptionBackground color.Color
	TextColor         color.Color
}

// DefaultStyle is a transparent card with a translucent white caption bar
// and near-black text.
func DefaultStyle() Style {
	return Style{
		Background:        nil,
		CaptionBackground: color.NRGBA{R: 255, G: 255, B: 255, A: 209},
		TextColor:         color.NRGBA{R: 0x11, G: 0x11, B: 0x11, A: 255},
	}
}

// WithDefaults fills unset caption colors from DefaultStyle.
func (s Style) WithDefaults() Style {
	d := DefaultStyle()
	if s.CaptionBackground == nil {
		s.CaptionBackground = d.CaptionBackground
	}
	if s.TextColor == nil {
		s.TextColor = d.TextColor
	}
	return s
}

// Key is a stable textual form of the style, used in fingerprints.
func (s Style) Key() string {
	return colorKey(s.Background) + "|" + colorKey(s.CaptionBackground) + "|" + colorKey(s.TextColor)
}

func colorKey(c color.Color) string {
	if c == nil {
		return "none"
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

// ParseColor accepts "transparent", "", "#rgb", "#rrggbb" and "#rrggbbaa".
// Transparent and empty yield nil.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "transparent" || s == "none" {
		return nil, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
