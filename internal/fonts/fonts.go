// Package fonts loads the caption typeface and hands out cached faces.
// Uses golang.org/x/image/font for OpenType rendering and falls back to
// the embedded Go Regular font when no custom font is given.
package fonts

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/AnyUserName/squarecards/internal/caption"
)

// EnvFont names a TTF/OTF file to use instead of the embedded font.
const EnvFont = "SQUARECARDS_FONT"

// Manager parses one typeface and caches a face per pixel size.
// Faces are unhinted at 72 DPI, so a size of N points is N pixels.
type Manager struct {
	parsed *opentype.Font

	mu    sync.Mutex
	faces map[int]font.Face
}

// New creates a manager for the font at customPath. An empty or unreadable
// path falls back to Go Regular.
func New(customPath string) (*Manager, error) {
	var data []byte
	if customPath != "" {
		b, err := os.ReadFile(customPath)
		if err != nil {
			slog.Warn("could not load custom font, using default", "path", customPath, "error", err)
		} else {
			data = b
		}
	}
	if data == nil {
		data = goregular.TTF
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Manager{parsed: parsed, faces: make(map[int]font.Face)}, nil
}

// Default returns a manager for the embedded font.
func Default() *Manager {
	m, err := New("")
	if err != nil {
		panic(fmt.Errorf("embedded font: %w", err))
	}
	return m
}

// Face returns the face for px, creating it on first use.
func (m *Manager) Face(px int) (font.Face, error) {
	if px <= 0 {
		return nil, fmt.Errorf("invalid font size %d", px)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.faces[px]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(m.parsed, &opentype.FaceOptions{
		Size:    float64(px),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	m.faces[px] = f
	return f, nil
}

// ForSize implements caption.MeasurerFactory.
func (m *Manager) ForSize(px int) (caption.Measurer, error) {
	f, err := m.Face(px)
	if err != nil {
		return nil, err
	}
	return &Measurer{face: f, mu: &m.mu}, nil
}

// Measurer measures strings with a single face. Faces from opentype are
// not safe for concurrent use, so measurement shares the manager's lock.
type Measurer struct {
	face font.Face
	mu   *sync.Mutex
}

// Measure returns the advance of s in pixels.
func (ms *Measurer) Measure(s string) float64 {
	ms.mu.Lock()
	adv := font.MeasureString(ms.face, s)
	ms.mu.Unlock()
	return float64(adv) / 64
}

// Lock serializes drawing with a face handed out by Face.
func (m *Manager) Lock() { m.mu.Lock() }

// Unlock releases the lock taken by Lock.
func (m *Manager) Unlock() { m.mu.Unlock() }
