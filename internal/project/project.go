// Package project reads a card project description: the photos to use, in
// order, with their captions, placement and the card style.
package project

import (
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AnyUserName/squarecards/internal/geometry"
	"github.com/AnyUserName/squarecards/internal/profile"
	"github.com/AnyUserName/squarecards/internal/render"
	"github.com/AnyUserName/squarecards/internal/source"
	"github.com/AnyUserName/squarecards/internal/store"
)

// SupportedVersion is the current project schema version.
const SupportedVersion = 1

// Project is the on-disk description.
type Project struct {
	Version int        `json:"version" yaml:"version"`
	Dir     string     `json:"dir,omitempty" yaml:"dir,omitempty"` // scanned when Cards is empty
	Style   StyleSpec  `json:"style" yaml:"style"`
	Cards   []CardSpec `json:"cards" yaml:"cards"`

	base string // directory of the project file
}

// StyleSpec holds CSS-like color strings; empty keeps the default.
type StyleSpec struct {
	Background        string `json:"background,omitempty" yaml:"background,omitempty"`
	CaptionBackground string `json:"caption_background,omitempty" yaml:"caption_background,omitempty"`
	TextColor         string `json:"text_color,omitempty" yaml:"text_color,omitempty"`
}

// CardSpec is one card. Missing transform fields keep their defaults.
type CardSpec struct {
	Path      string         `json:"path" yaml:"path"`
	Caption   string         `json:"caption,omitempty" yaml:"caption,omitempty"`
	Transform *TransformSpec `json:"transform,omitempty" yaml:"transform,omitempty"`
}

// TransformSpec mirrors geometry.Transform with optional fields.
type TransformSpec struct {
	Scale *float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	TX    *float64 `json:"tx,omitempty" yaml:"tx,omitempty"`
	TY    *float64 `json:"ty,omitempty" yaml:"ty,omitempty"`
}

// Patch converts the spec into a store patch.
func (t *TransformSpec) Patch() store.TransformPatch {
	if t == nil {
		return store.TransformPatch{}
	}
	return store.TransformPatch{Scale: t.Scale, TX: t.TX, TY: t.TY}
}

// Load reads a project from a .json, .yaml or .yml file. Relative card
// paths resolve against the file's directory.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	var p Project
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("parse project %s: %w", path, err)
	}
	if p.Version == 0 {
		p.Version = SupportedVersion
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	p.base = abs
	return &p, nil
}

// Resolve returns p's path made absolute against the project directory.
func (p *Project) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.base, path)
}

// Expand fills Cards from Dir when no cards are listed. Like adding photos
// to a full store, only the first MaxCards images in scan order are kept.
func (p *Project) Expand() error {
	if len(p.Cards) > 0 || p.Dir == "" {
		return nil
	}
	paths, err := source.Scan(p.Resolve(p.Dir))
	if err != nil {
		return fmt.Errorf("scan %s: %w", p.Dir, err)
	}
	if len(paths) > profile.MaxCards {
		slog.Info("directory has more images than cards allowed, keeping the first",
			"dir", p.Dir, "found", len(paths), "kept", profile.MaxCards)
		paths = paths[:profile.MaxCards]
	}
	for _, path := range paths {
		p.Cards = append(p.Cards, CardSpec{Path: path})
	}
	return nil
}

// RenderStyle parses the style colors. Unset caption colors take the
// defaults; an explicit "transparent" is kept.
func (p *Project) RenderStyle() (render.Style, error) {
	var s render.Style
	var err error
	if s.Background, err = render.ParseColor(p.Style.Background); err != nil {
		return s, fmt.Errorf("style.background: %w", err)
	}
	if s.CaptionBackground, err = parseCaptionColor(p.Style.CaptionBackground); err != nil {
		return s, fmt.Errorf("style.caption_background: %w", err)
	}
	if s.TextColor, err = parseCaptionColor(p.Style.TextColor); err != nil {
		return s, fmt.Errorf("style.text_color: %w", err)
	}
	return s.WithDefaults(), nil
}

func parseCaptionColor(v string) (color.Color, error) {
	c, err := render.ParseColor(v)
	if err != nil || c != nil || strings.TrimSpace(v) == "" {
		return c, err
	}
	return color.Transparent, nil
}

// Validate lists every problem found in p. Transform values outside their
// range are reported even though the store would clamp them.
func Validate(p *Project) []string {
	var errs []string

	if p.Version != SupportedVersion {
		errs = append(errs, fmt.Sprintf("unsupported project version: %d", p.Version))
	}
	if _, err := p.RenderStyle(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(p.Cards) == 0 {
		errs = append(errs, "no cards")
	}
	if len(p.Cards) > profile.MaxCards {
		errs = append(errs, fmt.Sprintf("%d cards, at most %d allowed", len(p.Cards), profile.MaxCards))
	}

	seen := map[string]bool{}
	for i, c := range p.Cards {
		if c.Path == "" {
			errs = append(errs, fmt.Sprintf("card[%d]: missing path", i))
			continue
		}
		full := p.Resolve(c.Path)
		if seen[full] {
			errs = append(errs, fmt.Sprintf("card[%d]: duplicate path %q", i, c.Path))
		}
		seen[full] = true

		if !source.IsImage(source.MIMEType(full)) {
			errs = append(errs, fmt.Sprintf("card[%d]: unsupported image type: %s", i, c.Path))
		}
		if info, err := os.Stat(full); err != nil {
			errs = append(errs, fmt.Sprintf("card[%d]: file not found: %s", i, c.Path))
		} else if info.IsDir() {
			errs = append(errs, fmt.Sprintf("card[%d]: is a directory: %s", i, c.Path))
		}
		if t := c.Transform; t != nil {
			errs = append(errs, checkRange(i, "scale", t.Scale, geometry.MinScale, geometry.MaxScale)...)
			errs = append(errs, checkRange(i, "tx", t.TX, geometry.MinOffset, geometry.MaxOffset)...)
			errs = append(errs, checkRange(i, "ty", t.TY, geometry.MinOffset, geometry.MaxOffset)...)
		}
	}
	return errs
}

func checkRange(i int, name string, v *float64, lo, hi float64) []string {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || *v < lo || *v > hi {
		return []string{fmt.Sprintf("card[%d]: %s %v outside [%v, %v]", i, name, *v, lo, hi)}
	}
	return nil
}

// Apply adds the project's cards to st in order, stopping when the store is
// full, and sets captions and transforms through the store setters. It
// returns the accepted photos.
func Apply(p *Project, st *store.Store) ([]store.PhotoItem, error) {
	var added []store.PhotoItem
	for i, c := range p.Cards {
		if st.Remaining() == 0 {
			break
		}
		items, err := source.NewPhotoItems([]string{p.Resolve(c.Path)}, 1)
		if err != nil {
			return added, fmt.Errorf("card[%d]: %w", i, err)
		}
		if len(items) == 0 {
			return added, fmt.Errorf("card[%d]: unsupported image type: %s", i, c.Path)
		}
		accepted := st.Add(items[0])
		if len(accepted) == 0 {
			break
		}
		it := accepted[0]
		st.SetCaption(it.ID, c.Caption)
		if c.Transform != nil {
			st.SetTransform(it.ID, c.Transform.Patch())
		}
		added = append(added, it)
	}
	return added, nil
}
