package preview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/AnyUserName/squarecards/internal/geometry"
	"github.com/AnyUserName/squarecards/internal/render"
	"github.com/AnyUserName/squarecards/internal/store"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 100, A: 255})
		}
	}
	return img
}

// countingLoader returns the same gradient and counts opens.
type countingLoader struct {
	img   image.Image
	opens atomic.Int32
}

func (l *countingLoader) Open(store.PhotoItem) (image.Image, error) {
	l.opens.Add(1)
	return l.img, nil
}

// gateLoader blocks its first Open until release is closed.
type gateLoader struct {
	img     image.Image
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (l *gateLoader) Open(store.PhotoItem) (image.Image, error) {
	first := false
	l.once.Do(func() { first = true })
	if first {
		close(l.started)
		<-l.release
	}
	return l.img, nil
}

func card(id, caption string) store.Card {
	return store.Card{
		Photo:     store.PhotoItem{ID: id, Path: id + ".png"},
		Caption:   caption,
		Transform: geometry.DefaultTransform,
	}
}

func newGen(l render.Loader) *Generator {
	g := New(l, nil)
	g.SourceSide = 256
	return g
}

func TestDisplaySide(t *testing.T) {
	tests := []struct {
		w, dpr float64
		want   int
	}{
		{300, 2, 600},
		{100, 1, 384},
		{800, 2, 1024},
		{300.25, 2, 601},
		{500, 0, 500},
	}
	for _, tt := range tests {
		if got := DisplaySide(tt.w, tt.dpr); got != tt.want {
			t.Errorf("DisplaySide(%v, %v) = %d, want %d", tt.w, tt.dpr, got, tt.want)
		}
	}
}

func TestRenderDownsamples(t *testing.T) {
	g := newGen(&countingLoader{img: gradient(300, 200)})
	defer g.Close()
	h, err := g.Render(context.Background(), card("a", "hi"), 64, render.DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	if h.Side != 64 || h.Image().Bounds().Dx() != 64 || h.Placeholder {
		t.Errorf("handle side %d placeholder=%v", h.Side, h.Placeholder)
	}
	data, err := h.PNG()
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width != 64 {
		t.Errorf("png config %+v err=%v", cfg, err)
	}
}

func TestRenderDedupesIdenticalRequests(t *testing.T) {
	l := &countingLoader{img: gradient(100, 100)}
	g := newGen(l)
	defer g.Close()
	ctx := context.Background()

	h1, err := g.Render(ctx, card("a", "x"), 64, render.DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	h2, err := g.Render(ctx, card("a", "x"), 64, render.DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 || l.opens.Load() != 1 {
		t.Errorf("same inputs re-rendered: opens=%d", l.opens.Load())
	}

	h3, err := g.Render(ctx, card("a", "y"), 64, render.DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	if h3 == h1 || !h1.Released() {
		t.Error("replaced preview should be released")
	}
	if shown, _ := g.Shown("a"); shown != h3 {
		t.Error("newest preview not shown")
	}
}

func TestRenderSupersededByNewerRequest(t *testing.T) {
	l := &gateLoader{img: gradient(120, 80), started: make(chan struct{}), release: make(chan struct{})}
	g := newGen(l)
	defer g.Close()
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() {
		_, err := g.Render(ctx, card("a", "old"), 64, render.DefaultStyle())
		errc <- err
	}()
	<-l.started

	h, err := g.Render(ctx, card("a", "new"), 64, render.DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	close(l.release)

	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("old render: %v, want ErrSuperseded", err)
	}
	if shown, _ := g.Shown("a"); shown != h || h.Released() {
		t.Error("newer preview must stay displayed")
	}
}

// holdLoader blocks Open while hold is set, until release is closed.
type holdLoader struct {
	img     image.Image
	hold    atomic.Bool
	started chan struct{}
	release chan struct{}
}

func (l *holdLoader) Open(store.PhotoItem) (image.Image, error) {
	if l.hold.Load() {
		close(l.started)
		<-l.release
	}
	return l.img, nil
}

func TestRenderShownRequestSupersedesPending(t *testing.T) {
	l := &holdLoader{img: gradient(120, 80), started: make(chan struct{}), release: make(chan struct{})}
	g := newGen(l)
	defer g.Close()
	ctx := context.Background()

	v1, err := g.Render(ctx, card("a", "v1"), 64, render.DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}

	l.hold.Store(true)
	errc := make(chan error, 1)
	go func() {
		_, err := g.Render(ctx, card("a", "v2"), 64, render.DefaultStyle())
		errc <- err
	}()
	<-l.started
	l.hold.Store(false)

	latest, err := g.Render(ctx, card("a", "v1"), 64, render.DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	if latest != v1 {
		t.Fatal("identical request should return the shown preview")
	}
	close(l.release)

	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("pending render: %v, want ErrSuperseded", err)
	}
	if shown, _ := g.Shown("a"); shown != latest || latest.Released() {
		t.Error("newest request's preview must stay displayed")
	}
}

// editedLoader reports a modification time that tests can bump.
type editedLoader struct {
	countingLoader
	mtime atomic.Int64
}

func (l *editedLoader) Refresh(p store.PhotoItem) store.PhotoItem {
	p.ModTime = l.mtime.Load()
	return p
}

func TestRenderPicksUpEditedSource(t *testing.T) {
	l := &editedLoader{countingLoader: countingLoader{img: gradient(100, 100)}}
	g := newGen(l)
	defer g.Close()
	ctx := context.Background()

	h1, err := g.Render(ctx, card("a", "x"), 64, render.DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	if h, _ := g.Render(ctx, card("a", "x"), 64, render.DefaultStyle()); h != h1 {
		t.Fatal("unchanged source re-rendered")
	}

	l.mtime.Store(42)
	h2, err := g.Render(ctx, card("a", "x"), 64, render.DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	if h2 == h1 || !h1.Released() || l.opens.Load() != 2 {
		t.Errorf("edited source not re-rendered: opens=%d", l.opens.Load())
	}
}

func TestRenderParentCancel(t *testing.T) {
	g := newGen(&countingLoader{img: gradient(50, 50)})
	defer g.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Render(ctx, card("a", ""), 64, render.DefaultStyle()); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if _, ok := g.Shown("a"); ok {
		t.Error("cancelled render must not be shown")
	}
}

func TestForgetAndClose(t *testing.T) {
	g := newGen(&countingLoader{img: gradient(50, 50)})
	ctx := context.Background()
	a, _ := g.Render(ctx, card("a", ""), 32, render.DefaultStyle())
	b, _ := g.Render(ctx, card("b", ""), 32, render.DefaultStyle())

	g.Forget("a")
	if !a.Released() || b.Released() {
		t.Error("Forget released the wrong handle")
	}
	g.Close()
	if !b.Released() {
		t.Error("Close must release every preview")
	}
	if _, err := g.Render(ctx, card("c", ""), 32, render.DefaultStyle()); err == nil {
		t.Error("render after Close should fail")
	}
}

func TestPreviewMatchesDirectRender(t *testing.T) {
	src := gradient(400, 300)
	g := newGen(&countingLoader{img: src})
	g.SourceSide = 512
	defer g.Close()

	tr := geometry.Transform{Scale: 1.5, TX: 10, TY: -5}
	c := card("a", "")
	c.Transform = tr
	h, err := g.Render(context.Background(), c, 128, render.DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}

	direct, err := render.NewRasterizer(nil).Rasterize(src, "", 128, tr, render.DefaultStyle())
	if err != nil {
		t.Fatal(err)
	}
	defer direct.Release()

	prev := h.Image().(*image.NRGBA)
	var sum, n int
	for y := 4; y < 124; y++ {
		for x := 4; x < 124; x++ {
			p := prev.NRGBAAt(x, y)
			d := direct.Image().RGBAAt(x, y)
			sum += abs(int(p.R)-int(d.R)) + abs(int(p.G)-int(d.G)) + abs(int(p.B)-int(d.B))
			n += 3
		}
	}
	if mean := float64(sum) / float64(n); mean > 4 {
		t.Errorf("mean channel difference %.2f", mean)
	}
}

func TestPlaceholder(t *testing.T) {
	solid := image.NewUniform(color.RGBA{R: 200, G: 40, B: 10, A: 255})
	src := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			src.Set(x, y, solid.C)
		}
	}
	h := Placeholder("a", src, 48)
	got := h.Image().(*image.NRGBA).NRGBAAt(10, 10)
	if got != (color.NRGBA{R: 200, G: 40, B: 10, A: 255}) || !h.Placeholder || h.Side != 48 {
		t.Errorf("placeholder color %v side %d", got, h.Side)
	}

	grey := Placeholder("b", nil, 16)
	if c := grey.Image().(*image.NRGBA).NRGBAAt(0, 0); c.R != 0xcc {
		t.Errorf("nil source placeholder %v", c)
	}
	grey.Release()
	grey.Release()
	if _, err := grey.PNG(); !errors.Is(err, ErrReleased) {
		t.Errorf("PNG after release: %v", err)
	}
	if grey.Image() != nil {
		t.Error("Image after release should be nil")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
