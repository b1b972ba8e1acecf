package profile

import (
	"math"
	"sort"
)

// Limits and sizes shared by every output path.
const (
	MaxCards        = 16
	ExportSide      = 2048 // single-image export, document pages, preview source
	PreviewSide     = 768  // exact-preview render side
	FastPreviewSide = 1024
	MaxSide         = 8192

	MinDisplaySide = 384
	MaxDisplaySide = 1024

	DefaultJPEGQuality = 0.80
	MinQuality         = 0.5
	MaxQuality         = 0.95

	DocumentName = "story-squares.pdf"
)

// Profile bundles export parameters for a target use.
type Profile struct {
	Name      string
	Side      int     // card side in pixels
	DocFormat string  // page encoding inside the document: jpeg or png
	Quality   float64 // jpeg page quality, 0..1
}

// Built-in profiles.
var profiles = map[string]Profile{
	"default": {
		Name:      "default",
		Side:      ExportSide,
		DocFormat: "jpeg",
		Quality:   DefaultJPEGQuality,
	},
	"print": {
		Name:      "print",
		Side:      3072,
		DocFormat: "png",
		Quality:   MaxQuality,
	},
	"web": {
		Name:      "web",
		Side:      1080,
		DocFormat: "jpeg",
		Quality:   0.72,
	},
}

// Get returns a profile by name. Falls back to default if unknown.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles["default"]
	p.Name = name // preserve requested name
	return p
}

// Names lists the built-in profiles, sorted.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ClampQuality bounds a jpeg quality to [MinQuality, MaxQuality].
// NaN yields the default.
func ClampQuality(q float64) float64 {
	if math.IsNaN(q) {
		return DefaultJPEGQuality
	}
	return math.Min(MaxQuality, math.Max(MinQuality, q))
}

// WithOverrides applies non-zero side, format and quality overrides.
func (p Profile) WithOverrides(side int, docFormat string, quality float64) Profile {
	if side > 0 {
		p.Side = side
	}
	if docFormat != "" {
		p.DocFormat = docFormat
	}
	if quality > 0 {
		p.Quality = quality
	}
	p.Quality = ClampQuality(p.Quality)
	return p
}
