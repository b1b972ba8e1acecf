package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AnyUserName/squarecards/internal/document"
	"github.com/AnyUserName/squarecards/internal/geometry"
	"github.com/AnyUserName/squarecards/internal/render"
	"github.com/AnyUserName/squarecards/internal/store"
)

// fakeLoader serves solid images by photo ID; IDs in fail return an error.
type fakeLoader struct {
	fail map[string]bool
}

func (l fakeLoader) Open(p store.PhotoItem) (image.Image, error) {
	if l.fail[p.ID] {
		return nil, fmt.Errorf("decode %s: corrupt", p.ID)
	}
	img := image.NewRGBA(image.Rect(0, 0, 80, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 80; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 4), B: 40, A: 255})
		}
	}
	return img, nil
}

// memSink records saves in memory.
type memSink struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (s *memSink) Save(name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[name] = data
	return name, nil
}

func cards(ids ...string) []store.Card {
	out := make([]store.Card, len(ids))
	for i, id := range ids {
		out[i] = store.Card{
			Photo:     store.PhotoItem{ID: id, Path: id + ".jpg"},
			Transform: geometry.DefaultTransform,
		}
	}
	return out
}

// fakeClock advances one second per call.
func fakeClock() func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newExporter(l render.Loader, sink Sink) *DocumentExporter {
	e := NewDocumentExporter(l, render.NewRasterizer(nil), sink)
	e.Now = fakeClock()
	return e
}

func TestDocumentExportProgress(t *testing.T) {
	sink := &memSink{}
	e := newExporter(fakeLoader{}, sink)

	var events []Progress
	res, err := e.Export(cards("a", "b", "c"), DocOptions{
		Side:       128,
		OnProgress: func(p Progress) { events = append(events, p) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Started || e.State() != StateCompleted {
		t.Fatalf("started=%v state=%v", res.Started, e.State())
	}
	if len(events) != 4 {
		t.Fatalf("got %d progress events, want 4", len(events))
	}
	if events[0].Done != 0 || events[0].ETAKnown {
		t.Errorf("first event %+v", events[0])
	}
	for i := 1; i < len(events); i++ {
		if events[i].Done != events[i-1].Done+1 {
			t.Errorf("event %d done=%d, want %d", i, events[i].Done, events[i-1].Done+1)
		}
		if events[i].Elapsed < events[i-1].Elapsed {
			t.Errorf("elapsed went backwards at %d", i)
		}
		if events[i].Total != 3 || !events[i].ETAKnown {
			t.Errorf("event %d: %+v", i, events[i])
		}
	}
	last := events[3]
	if last.Pct != 100 || last.ETA != 0 {
		t.Errorf("last event %+v", last)
	}
	if events[1].Pct != 33 || events[2].Pct != 67 {
		t.Errorf("pct %d %d", events[1].Pct, events[2].Pct)
	}

	if _, ok := sink.files["story-squares.pdf"]; !ok || len(sink.files) != 1 {
		t.Fatalf("saved %v", keys(sink.files))
	}
	if len(res.Pages) != 3 || res.Pages[0].Width != 128 || res.Pages[0].MIME != "image/jpeg" {
		t.Errorf("pages %+v", res.Pages)
	}
}

func TestDocumentExportAbortsOnFailure(t *testing.T) {
	sink := &memSink{}
	e := newExporter(fakeLoader{fail: map[string]bool{"b": true}}, sink)

	var last Progress
	res, err := e.Export(cards("a", "b", "c"), DocOptions{
		Side:       128,
		OnProgress: func(p Progress) { last = p },
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var le *render.ImageLoadError
	if !errors.As(err, &le) {
		t.Errorf("error %v is not an ImageLoadError", err)
	}
	if len(sink.files) != 0 {
		t.Errorf("saved %v after failure", keys(sink.files))
	}
	if e.State() != StateFailed {
		t.Errorf("state %v", e.State())
	}
	if last.Done != 1 || len(res.Pages) != 1 {
		t.Errorf("stopped at done=%d pages=%d, want 1", last.Done, len(res.Pages))
	}

	// A failed exporter can run again.
	e.Loader = fakeLoader{}
	if _, err := e.Export(cards("a"), DocOptions{Side: 64}); err != nil {
		t.Fatal(err)
	}
	if e.State() != StateCompleted {
		t.Errorf("state %v", e.State())
	}
}

func TestDocumentExportReentrancy(t *testing.T) {
	sink := &memSink{}
	e := newExporter(fakeLoader{}, sink)

	var inner Result
	var innerErr error
	calls := 0
	_, err := e.Export(cards("a", "b"), DocOptions{
		Side: 64,
		OnProgress: func(p Progress) {
			if p.Done == 1 {
				calls++
				inner, innerErr = e.Export(cards("x"), DocOptions{Side: 64})
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 || inner.Started || innerErr != nil {
		t.Errorf("nested export: calls=%d started=%v err=%v", calls, inner.Started, innerErr)
	}
	if len(sink.files) != 1 {
		t.Errorf("saved %v", keys(sink.files))
	}
}

func TestDocumentExportWriteFailure(t *testing.T) {
	sink := &memSink{err: errors.New("disk full")}
	e := newExporter(fakeLoader{}, sink)
	if _, err := e.Export(cards("a"), DocOptions{Side: 64}); err == nil {
		t.Fatal("expected save error")
	}
	if e.State() != StateFailed {
		t.Errorf("state %v", e.State())
	}
}

func TestDocumentExportRejectsInput(t *testing.T) {
	e := newExporter(fakeLoader{}, &memSink{})
	if _, err := e.Export(nil, DocOptions{}); !errors.Is(err, ErrNoCards) {
		t.Errorf("empty: %v", err)
	}
	if _, err := e.Export(cards("a"), DocOptions{Format: "gif"}); err == nil {
		t.Error("expected error for gif pages")
	}
	if e.State() != StateIdle {
		t.Errorf("rejected calls changed state to %v", e.State())
	}
}

func TestDocumentExportPNGPages(t *testing.T) {
	sink := &memSink{}
	e := newExporter(fakeLoader{}, sink)
	e.Writer = &document.PDFWriter{}
	res, err := e.Export(cards("a"), DocOptions{Side: 64, Format: "png", Name: "out.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != "out.pdf" || res.Pages[0].MIME != "image/png" {
		t.Errorf("result %+v", res)
	}
}

func TestPageEncoderQualityClamp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 80},
		{0.1, 50},
		{0.8, 80},
		{1, 95},
	}
	for _, tt := range tests {
		_, q, err := pageEncoder("jpeg", tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if q != tt.want {
			t.Errorf("quality(%v) = %d, want %d", tt.in, q, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		0:                        "0.0s",
		12340 * time.Millisecond: "12.3s",
		125 * time.Second:        "2m 5s",
		3600 * time.Second:       "60m 0s",
	}
	for in, want := range tests {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestProgressString(t *testing.T) {
	p := newProgress(2, 5, 4*time.Second)
	want := "Rendering 2/5 • 40% • elapsed 4.0s • ETA 6.0s"
	if got := p.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	done := newProgress(5, 5, 10*time.Second)
	if got := done.String(); got != "Rendering 5/5 • 100% • elapsed 10.0s" {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello world!", "Hello_world"},
		{"  __a b__  ", "a_b"},
		{"привет", "card"},
		{"", "card"},
		{"a-b_c", "a-b_c"},
		{"Café 2024/05", "Caf_2024_05"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in, "card"); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	long := SanitizeFilename(strings.Repeat("x", 250), "card")
	if len(long) != MaxFilenameLen {
		t.Errorf("long name length %d", len(long))
	}
}

func TestExportCard(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDirSink(dir)
	if err != nil {
		t.Fatal(err)
	}
	c := cards("a")[0]
	c.Caption = "Summer trip"

	f1, err := ExportCard(fakeLoader{}, render.NewRasterizer(nil), sink, c, Options{Side: 256})
	if err != nil {
		t.Fatal(err)
	}
	f2, err := ExportCard(fakeLoader{}, render.NewRasterizer(nil), sink, c, Options{Side: 256})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(f1.Path) != "Summer_trip.png" || filepath.Base(f2.Path) != "Summer_trip (1).png" {
		t.Errorf("paths %q %q", f1.Path, f2.Path)
	}
	if f1.Hash != f2.Hash || f1.Key != f2.Key {
		t.Error("identical cards produced different output")
	}

	if _, err := ExportCard(fakeLoader{fail: map[string]bool{"a": true}}, render.NewRasterizer(nil), sink, c, Options{Side: 256}); err == nil {
		t.Fatal("expected load error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("dir has %d entries, want 2 (no temp files)", len(entries))
	}
}

func TestExportAllPartialFailure(t *testing.T) {
	sink := &memSink{}
	cs := cards("a", "b", "c")
	for i := range cs {
		cs[i].Caption = cs[i].Photo.ID
	}
	files, failures, err := ExportAll(fakeLoader{fail: map[string]bool{"b": true}}, render.NewRasterizer(nil), sink, cs, Options{Side: 96, Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0].ID != "a" || files[1].ID != "c" {
		t.Errorf("files %+v", files)
	}
	if len(failures) != 1 || failures[0].ID != "b" {
		t.Errorf("failures %+v", failures)
	}

	_, _, err = ExportAll(fakeLoader{fail: map[string]bool{"a": true}}, render.NewRasterizer(nil), sink, cards("a"), Options{Side: 96})
	if err == nil {
		t.Error("expected error when every card fails")
	}
}

func keys(m map[string][]byte) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
