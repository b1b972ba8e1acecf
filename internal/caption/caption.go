// Package caption decides how a caption is laid out in the bar at the
// bottom of a card. It never draws; the rasterizer and the editor consume
// the same LineLayout so bar sizing matches everywhere.
package caption

import (
	"fmt"
	"strings"

	"github.com/AnyUserName/squarecards/internal/geometry"
)

// Bar sizing, as fractions of the card side.
const (
	MinBarFloor  = 72
	BarFraction  = 0.06
	PadFraction  = 0.22
	FontFraction = 0.34
	LineSpacing  = 1.25
)

// Ellipsis is appended to single-line captions cut to fit.
const Ellipsis = "…"

// Measurer returns the advance width of s in pixels.
type Measurer interface {
	Measure(s string) float64
}

// MeasurerFactory yields a Measurer for a font of the given pixel size.
type MeasurerFactory interface {
	ForSize(px int) (Measurer, error)
}

// Metrics are the bar dimensions derived from the card side.
type Metrics struct {
	MinBarHeight int
	Padding      int
	FontSize     int
	LineHeight   int
}

// MetricsFor computes bar metrics for a card of the given side.
func MetricsFor(side int) Metrics {
	minBar := max(MinBarFloor, geometry.Round(float64(side)*BarFraction))
	font := geometry.Round(float64(minBar) * FontFraction)
	return Metrics{
		MinBarHeight: minBar,
		Padding:      geometry.Round(float64(minBar) * PadFraction),
		FontSize:     font,
		LineHeight:   geometry.Round(float64(font) * LineSpacing),
	}
}

// MaxTextWidth is the horizontal room for text inside the bar.
func (m Metrics) MaxTextWidth(side int) int {
	return side - 2*m.Padding
}

// LineLayout is the decided caption layout.
type LineLayout struct {
	Metrics
	// Bar is false for empty captions; nothing is drawn then.
	Bar bool
	// SingleLine captions are vertically centered in the bar.
	SingleLine bool
	BarHeight  int
	Lines      []string
}

// Normalize converts line endings to \n and trims surrounding whitespace.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}

// Layout lays out text for a card of the given side.
func Layout(text string, side int, fonts MeasurerFactory) (LineLayout, error) {
	m := MetricsFor(side)
	text = Normalize(text)
	if text == "" {
		return LineLayout{Metrics: m}, nil
	}

	meas, err := fonts.ForSize(m.FontSize)
	if err != nil {
		return LineLayout{}, fmt.Errorf("caption font %dpx: %w", m.FontSize, err)
	}
	maxW := float64(m.MaxTextWidth(side))

	if !strings.Contains(text, "\n") && meas.Measure(text) <= maxW {
		return LineLayout{
			Metrics:    m,
			Bar:        true,
			SingleLine: true,
			BarHeight:  m.MinBarHeight,
			Lines:      []string{Ellipsize(meas, text, maxW)},
		}, nil
	}

	lines := Wrap(meas, text, maxW)
	textH := max(1, len(lines)) * m.LineHeight
	return LineLayout{
		Metrics:   m,
		Bar:       true,
		BarHeight: max(m.MinBarHeight, 2*m.Padding+textH),
		Lines:     lines,
	}, nil
}

// Ellipsize cuts text rune by rune until text+"…" fits in maxW.
// Text that already fits is returned unchanged.
func Ellipsize(meas Measurer, text string, maxW float64) string {
	if meas.Measure(text) <= maxW {
		return text
	}
	r := []rune(text)
	for len(r) > 0 && meas.Measure(string(r)+Ellipsis) > maxW {
		r = r[:len(r)-1]
	}
	return string(r) + Ellipsis
}

// Wrap breaks text greedily into lines no wider than maxW. Existing
// newlines start new paragraphs; an empty paragraph yields an empty line.
// Words wider than maxW on their own are broken between characters.
func Wrap(meas Measurer, text string, maxW float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		cur := ""
		for _, w := range strings.Fields(para) {
			test := w
			if cur != "" {
				test = cur + " " + w
			}
			if meas.Measure(test) <= maxW {
				cur = test
				continue
			}
			if cur != "" {
				lines = append(lines, cur)
			}
			if meas.Measure(w) <= maxW {
				cur = w
				continue
			}
			chunk := ""
			for _, ch := range w {
				t := chunk + string(ch)
				if meas.Measure(t) <= maxW || chunk == "" {
					chunk = t
					continue
				}
				lines = append(lines, chunk)
				chunk = string(ch)
			}
			cur = chunk
		}
		lines = append(lines, cur)
	}
	return lines
}
