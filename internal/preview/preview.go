// Package preview produces display-sized card thumbnails. A preview is the
// full export render downsampled, so what is shown matches what is
// exported. Requests for the same card coalesce: only the newest result is
// kept, older in-flight renders are cancelled and their output discarded.
package preview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/squarecards/internal/geometry"
	"github.com/AnyUserName/squarecards/internal/hasher"
	"github.com/AnyUserName/squarecards/internal/profile"
	"github.com/AnyUserName/squarecards/internal/render"
	"github.com/AnyUserName/squarecards/internal/store"
)

// ErrSuperseded is returned by a render that lost to a newer request for
// the same card. Callers drop it silently.
var ErrSuperseded = errors.New("preview superseded")

// DisplaySide converts a layout width and device pixel ratio into the
// preview side, clamped to [MinDisplaySide, MaxDisplaySide].
func DisplaySide(width, dpr float64) int {
	if dpr <= 0 {
		dpr = 1
	}
	s := geometry.Round(width * dpr)
	if s < profile.MinDisplaySide {
		return profile.MinDisplaySide
	}
	if s > profile.MaxDisplaySide {
		return profile.MaxDisplaySide
	}
	return s
}

type entry struct {
	gen    uint64
	cancel context.CancelFunc
	shown  *Handle
	key    uint64
}

// Generator renders and tracks the displayed preview of each card.
type Generator struct {
	Loader     render.Loader
	Rasterizer *render.Rasterizer
	SourceSide int // render side before downsampling

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

// refresher is implemented by loaders that can re-read a photo's size and
// modification time, so edits on disk invalidate the displayed preview.
type refresher interface {
	Refresh(p store.PhotoItem) store.PhotoItem
}

// New returns a generator rendering at profile.ExportSide.
func New(l render.Loader, r *render.Rasterizer) *Generator {
	if r == nil {
		r = render.NewRasterizer(nil)
	}
	return &Generator{
		Loader:     l,
		Rasterizer: r,
		SourceSide: profile.ExportSide,
		entries:    make(map[string]*entry),
	}
}

// Render produces the preview for c at displaySide. If the displayed
// preview already has the same inputs it is returned as is. Otherwise a
// new render starts and cancels any older one for the same card.
//
// The returned handle is owned by the generator and stays valid until it
// is replaced by a newer preview, or until Forget or Close.
func (g *Generator) Render(ctx context.Context, c store.Card, displaySide int, style render.Style) (*Handle, error) {
	style = style.WithDefaults()
	srcSide := g.SourceSide
	if srcSide <= 0 {
		srcSide = profile.ExportSide
	}
	if displaySide <= 0 {
		return nil, fmt.Errorf("invalid preview side %d", displaySide)
	}
	if r, ok := g.Loader.(refresher); ok {
		c.Photo = r.Refresh(c.Photo)
	}
	key := hasher.CardKey(c, displaySide, style.Key()+"@"+strconv.Itoa(srcSide))
	id := c.Photo.ID

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, errors.New("preview generator closed")
	}
	e := g.entries[id]
	if e == nil {
		e = &entry{}
		g.entries[id] = e
	}
	if e.shown != nil && e.key == key {
		// An older request still rendering must not replace what is shown.
		if e.cancel != nil {
			e.gen++
			e.cancel()
			e.cancel = nil
		}
		h := e.shown
		g.mu.Unlock()
		return h, nil
	}
	e.gen++
	gen := e.gen
	if e.cancel != nil {
		e.cancel()
	}
	rctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	g.mu.Unlock()
	defer cancel()

	img, err := g.render(rctx, c, srcSide, displaySide, style)

	g.mu.Lock()
	defer g.mu.Unlock()
	cur := g.entries[id]
	if cur != e || e.gen != gen || g.closed {
		slog.Debug("preview superseded", "id", id, "gen", gen)
		return nil, ErrSuperseded
	}
	e.cancel = nil
	if err != nil {
		return nil, err
	}

	h := newHandle(id, img, false)
	old := e.shown
	e.shown, e.key = h, key
	old.Release()
	return h, nil
}

func (g *Generator) render(ctx context.Context, c store.Card, srcSide, displaySide int, style render.Style) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := g.Rasterizer.RasterizeCard(g.Loader, c, srcSide, style)
	if err != nil {
		return nil, err
	}
	defer full.Release()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imaging.Resize(full.Image(), displaySide, displaySide, imaging.Lanczos), nil
}

// Shown returns the displayed preview for id, if any.
func (g *Generator) Shown(id string) (*Handle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e := g.entries[id]; e != nil && e.shown != nil {
		return e.shown, true
	}
	return nil, false
}

// Forget cancels any render for id and releases its displayed preview.
func (g *Generator) Forget(id string) {
	g.mu.Lock()
	e := g.entries[id]
	delete(g.entries, id)
	if e != nil && e.cancel != nil {
		e.cancel()
	}
	g.mu.Unlock()
	if e != nil {
		e.shown.Release()
	}
}

// Close forgets every card. Renders still in flight return ErrSuperseded.
func (g *Generator) Close() {
	g.mu.Lock()
	entries := g.entries
	g.entries = make(map[string]*entry)
	g.closed = true
	for _, e := range entries {
		if e.cancel != nil {
			e.cancel()
		}
	}
	g.mu.Unlock()
	for _, e := range entries {
		e.shown.Release()
	}
}
