package manifest

import "github.com/AnyUserName/squarecards/internal/geometry"

// FileName is the manifest written next to exported files.
const FileName = "squarecards.manifest.json"

// Manifest reports one export run.
type Manifest struct {
	Version     int        `json:"version"`
	GeneratedAt string     `json:"generated_at"`
	Profile     string     `json:"profile"`
	Side        int        `json:"side"`
	Format      string     `json:"format"`                // "png", "webp" or "pdf"
	PageFormat  string     `json:"page_format,omitempty"` // pdf only: "jpeg" or "png"
	Quality     float64    `json:"quality,omitempty"`     // pdf jpeg pages only
	Style       string     `json:"style"`                 // style key
	BuildInfo   *BuildInfo `json:"build_info,omitempty"`
	Document    *Document  `json:"document,omitempty"`
	Cards       []Card     `json:"cards"`
	Stats       Stats      `json:"stats"`
}

// BuildInfo captures run parameters for diagnostics.
type BuildInfo struct {
	Workers   int   `json:"workers,omitempty"`
	ElapsedMS int64 `json:"elapsed_ms"`
}

// Document describes the multi-page output of a pdf export.
type Document struct {
	Path  string `json:"path"` // relative to the manifest
	Size  int64  `json:"size"`
	Hash  string `json:"hash"` // first 16 hex chars of xxhash64
	Pages int    `json:"pages"`
}

// Card is one card of the run, in project order.
type Card struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Caption   string             `json:"caption,omitempty"`
	Transform geometry.Transform `json:"transform"`
	Source    Source             `json:"source"`
	Key       string             `json:"key,omitempty"`  // fingerprint of the render inputs
	File      *File              `json:"file,omitempty"` // single-image export
	Page      int                `json:"page,omitempty"` // 1-based document page
	Error     string             `json:"error,omitempty"`
}

// Source holds metadata about the photo behind a card.
type Source struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
	MIME string `json:"mime"`
	Hash string `json:"hash,omitempty"`
}

// File is one written card image.
type File struct {
	Path   string `json:"path"` // relative to the manifest
	Format string `json:"format"`
	Side   int    `json:"side"`
	Size   int64  `json:"size"`
	Hash   string `json:"hash"`
}

// Stats aggregates run metrics.
type Stats struct {
	TotalCards       int   `json:"total_cards"`
	Exported         int   `json:"exported"`
	Failed           int   `json:"failed"`
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1
