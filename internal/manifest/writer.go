package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// New creates an empty manifest with defaults.
func New(profileName string) *Manifest {
	return &Manifest{
		Version:     SupportedManifestVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Profile:     profileName,
		Cards:       []Card{},
	}
}

// ComputeStats recalculates aggregate statistics from cards.
func (m *Manifest) ComputeStats() {
	var s Stats
	s.TotalCards = len(m.Cards)
	for _, c := range m.Cards {
		s.TotalInputBytes += c.Source.Size
		switch {
		case c.Error != "":
			s.Failed++
		case c.File != nil:
			s.Exported++
			s.TotalOutputBytes += c.File.Size
		case c.Page > 0:
			s.Exported++
		}
	}
	if m.Document != nil {
		s.TotalOutputBytes += m.Document.Size
	}
	m.Stats = s
}

// WriteJSON serializes the manifest to a JSON file.
func WriteJSON(m *Manifest, path string) error {
	m.ComputeStats()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a manifest. A directory is searched for FileName.
func ReadJSON(path string) (*Manifest, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Validate checks m against the files under baseDir and returns every
// problem found.
func Validate(m *Manifest, baseDir string) []string {
	var errs []string

	if m.Version != SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}
	if m.Side <= 0 {
		errs = append(errs, fmt.Sprintf("invalid side %d", m.Side))
	}

	seenIDs := map[string]bool{}
	seenPaths := map[string]bool{}
	pages := 0
	for i, c := range m.Cards {
		if c.ID == "" {
			errs = append(errs, fmt.Sprintf("card[%d]: missing id", i))
		} else if seenIDs[c.ID] {
			errs = append(errs, fmt.Sprintf("card[%d]: duplicate id %q", i, c.ID))
		}
		seenIDs[c.ID] = true

		if c.Page > 0 {
			pages++
		}
		if c.File == nil {
			continue
		}
		f := c.File
		if f.Hash == "" {
			errs = append(errs, fmt.Sprintf("card[%d]: missing hash", i))
		}
		if f.Side != m.Side {
			errs = append(errs, fmt.Sprintf("card[%d]: side %d != manifest side %d", i, f.Side, m.Side))
		}
		if seenPaths[f.Path] {
			errs = append(errs, fmt.Sprintf("card[%d]: duplicate path %q", i, f.Path))
		}
		seenPaths[f.Path] = true
		errs = append(errs, checkFile(fmt.Sprintf("card[%d]", i), baseDir, f.Path, f.Size)...)
	}

	if d := m.Document; d != nil {
		if d.Pages != pages {
			errs = append(errs, fmt.Sprintf("document.pages mismatch: %d != %d", d.Pages, pages))
		}
		errs = append(errs, checkFile("document", baseDir, d.Path, d.Size)...)
	}

	// Verify stats consistency.
	want := *m
	want.ComputeStats()
	if m.Stats.TotalCards != want.Stats.TotalCards {
		errs = append(errs, fmt.Sprintf("stats.total_cards mismatch: %d != %d", m.Stats.TotalCards, want.Stats.TotalCards))
	}
	if m.Stats.TotalOutputBytes != want.Stats.TotalOutputBytes {
		errs = append(errs, fmt.Sprintf("stats.total_output_bytes mismatch: %d != %d", m.Stats.TotalOutputBytes, want.Stats.TotalOutputBytes))
	}
	return errs
}

func checkFile(what, baseDir, rel string, size int64) []string {
	if rel == "" {
		return []string{what + ": missing path"}
	}
	info, err := os.Stat(filepath.Join(baseDir, rel))
	if err != nil {
		return []string{fmt.Sprintf("%s: file not found: %s", what, rel)}
	}
	if size > 0 && info.Size() != size {
		return []string{fmt.Sprintf("%s: size mismatch: manifest=%d, disk=%d", what, size, info.Size())}
	}
	return nil
}
