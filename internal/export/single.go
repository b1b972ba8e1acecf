// Package export writes rendered cards out: one image file per card, or
// all cards as pages of a single document.
package export

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/AnyUserName/squarecards/internal/encoder"
	"github.com/AnyUserName/squarecards/internal/hasher"
	"github.com/AnyUserName/squarecards/internal/profile"
	"github.com/AnyUserName/squarecards/internal/render"
	"github.com/AnyUserName/squarecards/internal/store"
)

// Options configure single-image export.
type Options struct {
	Side    int             // default profile.ExportSide
	Style   render.Style
	Encoder encoder.Encoder // default lossless PNG
	Workers int             // ExportAll only; default NumCPU
}

func (o Options) withDefaults() Options {
	if o.Side <= 0 {
		o.Side = profile.ExportSide
	}
	if o.Encoder == nil {
		o.Encoder = &encoder.PNGEncoder{}
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// File describes one written output.
type File struct {
	ID     string
	Path   string
	Side   int
	Size   int
	Hash   string // xxhash of the written bytes
	Key    string // fingerprint of the render inputs
	Format string
}

// ExportCard renders one card at full resolution and saves it as
// "<sanitized caption or card>.<ext>". Nothing is saved on failure.
func ExportCard(l render.Loader, r *render.Rasterizer, sink Sink, c store.Card, opts Options) (File, error) {
	opts = opts.withDefaults()
	style := opts.Style.WithDefaults()

	card, err := r.RasterizeCard(l, c, opts.Side, style)
	if err != nil {
		return File{}, err
	}
	data, err := opts.Encoder.Encode(card.Image(), 0)
	card.Release()
	if err != nil {
		return File{}, &render.EncodingError{Format: opts.Encoder.Format(), Err: err}
	}

	name := SanitizeFilename(c.Caption, "card") + "." + opts.Encoder.Extension()
	path, err := sink.Save(name, data)
	if err != nil {
		return File{}, fmt.Errorf("save %s: %w", name, err)
	}
	slog.Debug("exported card", "id", c.Photo.ID, "path", path, "bytes", len(data))

	return File{
		ID:     c.Photo.ID,
		Path:   path,
		Side:   opts.Side,
		Size:   len(data),
		Hash:   hasher.ContentHash(data, 16),
		Key:    fmt.Sprintf("%016x", hasher.CardKey(c, opts.Side, style.Key())),
		Format: opts.Encoder.Format(),
	}, nil
}

// Failure pairs a card with the error that stopped its export.
type Failure struct {
	ID  string
	Err error
}

// ExportAll exports every card independently on a bounded worker pool.
// A failing card does not stop the others; results keep card order and
// failed cards are reported separately. It errors only when every card
// failed.
func ExportAll(l render.Loader, r *render.Rasterizer, sink Sink, cards []store.Card, opts Options) ([]File, []Failure, error) {
	opts = opts.withDefaults()

	type result struct {
		file File
		err  error
	}
	results := make([]result, len(cards))
	var wg sync.WaitGroup
	sem := make(chan struct{}, opts.Workers)

	for i, c := range cards {
		wg.Add(1)
		go func(idx int, c store.Card) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			f, err := ExportCard(l, r, sink, c, opts)
			results[idx] = result{file: f, err: err}
		}(i, c)
	}
	wg.Wait()

	var files []File
	var failures []Failure
	for i, res := range results {
		if res.err != nil {
			failures = append(failures, Failure{ID: cards[i].Photo.ID, Err: res.err})
			continue
		}
		files = append(files, res.file)
	}
	if len(cards) > 0 && len(failures) == len(cards) {
		return nil, failures, fmt.Errorf("all %d cards failed to export", len(cards))
	}
	return files, failures, nil
}
