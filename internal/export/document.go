package export

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/AnyUserName/squarecards/internal/document"
	"github.com/AnyUserName/squarecards/internal/encoder"
	"github.com/AnyUserName/squarecards/internal/hasher"
	"github.com/AnyUserName/squarecards/internal/profile"
	"github.com/AnyUserName/squarecards/internal/render"
	"github.com/AnyUserName/squarecards/internal/store"
)

// ErrNoCards is returned when asked to export an empty collection.
var ErrNoCards = errors.New("no cards to export")

// State of a DocumentExporter.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Progress is reported once before the first page and after every page.
type Progress struct {
	Done     int
	Total    int
	Elapsed  time.Duration
	ETA      time.Duration // valid only when ETAKnown
	ETAKnown bool
	Pct      int
}

// String renders a status line such as
// "Rendering 2/5 • 40% • elapsed 3.1s • ETA 4.6s".
func (p Progress) String() string {
	s := fmt.Sprintf("Rendering %d/%d • %d%% • elapsed %s", p.Done, p.Total, p.Pct, FormatDuration(p.Elapsed))
	if p.Done < p.Total {
		eta := time.Duration(0)
		if p.ETAKnown {
			eta = p.ETA
		}
		s += " • ETA " + FormatDuration(eta)
	}
	return s
}

// FormatDuration prints d as "12.3s" under a minute and "2m 5s" above.
func FormatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	total := int(math.Round(secs))
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

func newProgress(done, total int, elapsed time.Duration) Progress {
	p := Progress{
		Done:    done,
		Total:   total,
		Elapsed: elapsed,
		Pct:     int(math.Round(float64(done) / float64(total) * 100)),
	}
	if done > 0 {
		p.ETA = time.Duration(float64(elapsed) / float64(done) * float64(total-done))
		p.ETAKnown = true
	}
	return p
}

// DocOptions configure a document export.
type DocOptions struct {
	Side       int     // default profile.ExportSide
	Format     string  // page encoding: "jpeg" (default) or "png"
	Quality    float64 // jpeg only, clamped to [0.5, 0.95]
	Style      render.Style
	Name       string // default profile.DocumentName
	OnProgress func(Progress)
}

// PageInfo describes one page of a finished document.
type PageInfo struct {
	ID     string
	Width  int
	Height int
	MIME   string
	Size   int // encoded page bytes
	Key    string
}

// Result of a document export. Started is false when the call was
// ignored because another export was running.
type Result struct {
	Started bool
	Path    string
	Size    int
	Hash    string
	Pages   []PageInfo
	Elapsed time.Duration
}

// DocumentExporter renders cards into one multi-page document. At most
// one export runs at a time per exporter.
type DocumentExporter struct {
	Loader     render.Loader
	Rasterizer *render.Rasterizer
	Writer     document.Writer
	Sink       Sink
	Now        func() time.Time

	state atomic.Int32
}

// NewDocumentExporter returns an idle exporter writing PDFs.
func NewDocumentExporter(l render.Loader, r *render.Rasterizer, sink Sink) *DocumentExporter {
	return &DocumentExporter{
		Loader:     l,
		Rasterizer: r,
		Writer:     &document.PDFWriter{Title: "Story squares", Creator: "squarecards"},
		Sink:       sink,
		Now:        time.Now,
	}
}

// State reports the exporter state.
func (e *DocumentExporter) State() State { return State(e.state.Load()) }

func (e *DocumentExporter) begin() bool {
	for {
		cur := e.state.Load()
		if State(cur) == StateRunning {
			return false
		}
		if e.state.CompareAndSwap(cur, int32(StateRunning)) {
			return true
		}
	}
}

// Export renders cards in order, one page each, and saves the document.
// Any failure aborts the whole export: no document is saved and the first
// error is returned. A call made while another export is running returns
// a Result with Started false and does nothing.
func (e *DocumentExporter) Export(cards []store.Card, opts DocOptions) (Result, error) {
	if len(cards) == 0 {
		return Result{}, ErrNoCards
	}
	enc, quality, err := pageEncoder(opts.Format, opts.Quality)
	if err != nil {
		return Result{}, err
	}
	if !e.begin() {
		slog.Debug("document export already running, ignoring request")
		return Result{}, nil
	}

	res, err := e.run(cards, opts, enc, quality)
	if err != nil {
		e.state.Store(int32(StateFailed))
		return res, err
	}
	e.state.Store(int32(StateCompleted))
	return res, nil
}

func (e *DocumentExporter) run(cards []store.Card, opts DocOptions, enc encoder.Encoder, quality int) (Result, error) {
	now := e.Now
	if now == nil {
		now = time.Now
	}
	side := opts.Side
	if side <= 0 {
		side = profile.ExportSide
	}
	name := opts.Name
	if name == "" {
		name = profile.DocumentName
	}
	style := opts.Style.WithDefaults()
	styleKey := style.Key()

	total := len(cards)
	t0 := now()
	tick := func(done int) {
		if opts.OnProgress != nil {
			opts.OnProgress(newProgress(done, total, now().Sub(t0)))
		}
	}

	res := Result{Started: true}
	pages := make([]document.Page, 0, total)
	tick(0)

	for i, c := range cards {
		card, err := e.Rasterizer.RasterizeCard(e.Loader, c, side, style)
		if err != nil {
			return res, fmt.Errorf("page %d: %w", i+1, err)
		}
		data, err := enc.Encode(card.Image(), quality)
		w, h := card.Side(), card.Side()
		card.Release()
		if err != nil {
			return res, fmt.Errorf("page %d: %w", i+1, &render.EncodingError{Format: enc.Format(), Err: err})
		}

		pages = append(pages, document.Page{Data: data, MIME: enc.MIME(), Width: w, Height: h})
		res.Pages = append(res.Pages, PageInfo{
			ID:     c.Photo.ID,
			Width:  w,
			Height: h,
			MIME:   enc.MIME(),
			Size:   len(data),
			Key:    fmt.Sprintf("%016x", hasher.CardKey(c, side, styleKey)),
		})

		tick(i + 1)
		runtime.Gosched()
	}

	doc, err := e.Writer.Write(pages)
	if err != nil {
		return res, fmt.Errorf("assemble document: %w", err)
	}
	path, err := e.Sink.Save(name, doc)
	if err != nil {
		return res, fmt.Errorf("save %s: %w", name, err)
	}

	res.Path = path
	res.Size = len(doc)
	res.Hash = hasher.ContentHash(doc, 16)
	res.Elapsed = now().Sub(t0)
	slog.Debug("document exported", "path", path, "pages", total, "bytes", len(doc))
	return res, nil
}

// pageEncoder picks the page encoder and its integer quality.
func pageEncoder(format string, q float64) (encoder.Encoder, int, error) {
	switch format {
	case "", "jpeg", "jpg":
		if q == 0 {
			q = profile.DefaultJPEGQuality
		}
		return &encoder.JPEGEncoder{}, encoder.QualityPercent(profile.ClampQuality(q)), nil
	case "png":
		return &encoder.PNGEncoder{}, 0, nil
	default:
		return nil, 0, fmt.Errorf("unsupported page format %q (want jpeg or png)", format)
	}
}
