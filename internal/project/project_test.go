package project

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AnyUserName/squarecards/internal/profile"
	"github.com/AnyUserName/squarecards/internal/render"
	"github.com/AnyUserName/squarecards/internal/store"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const yamlProject = `
version: 1
style:
  background: "#000"
  caption_background: transparent
cards:
  - path: photos/a.png
    caption: "  Beach  "
    transform: {scale: 9, tx: -20}
  - path: photos/b.png
  - path: photos/c.png
    caption: Hills
`

func TestLoadYAMLAndApply(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a", "b", "c"} {
		writePNG(t, filepath.Join(dir, "photos", n+".png"))
	}
	path := filepath.Join(dir, "cards.yaml")
	writeFile(t, path, yamlProject)

	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if errs := Validate(p); len(errs) != 1 || !strings.Contains(errs[0], "scale") {
		t.Errorf("validate: %v", errs)
	}

	st := store.New(2, nil)
	added, err := Apply(p, st)
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 2 || st.Len() != 2 {
		t.Fatalf("added %d, store has %d; want 2", len(added), st.Len())
	}
	a, b := added[0], added[1]
	if a.Path != filepath.Join(dir, "photos", "a.png") || a.MIME != "image/png" {
		t.Errorf("photo a: %+v", a)
	}
	if st.Caption(a.ID) != "Beach" || st.HasCaption(b.ID) {
		t.Errorf("captions: %q / has b=%v", st.Caption(a.ID), st.HasCaption(b.ID))
	}
	tr := st.Transform(a.ID)
	if tr.Scale != 4 || tr.TX != -20 || tr.TY != 0 {
		t.Errorf("transform a: %+v", tr)
	}

	style, err := p.RenderStyle()
	if err != nil {
		t.Fatal(err)
	}
	if style.Key() != "000000ff|00000000|111111ff" {
		t.Errorf("style key %q", style.Key())
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "x.png"))
	path := filepath.Join(dir, "p.json")
	writeFile(t, path, `{"cards":[{"path":"x.png","caption":"X","transform":{"ty":12.5}}]}`)

	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Version != SupportedVersion {
		t.Errorf("version %d", p.Version)
	}
	if errs := Validate(p); len(errs) != 0 {
		t.Errorf("validate: %v", errs)
	}
	style, err := p.RenderStyle()
	if err != nil {
		t.Fatal(err)
	}
	if style.Key() != render.DefaultStyle().Key() {
		t.Errorf("default style expected, got %q", style.Key())
	}
	st := store.New(16, nil)
	if _, err := Apply(p, st); err != nil {
		t.Fatal(err)
	}
	c := st.Cards()[0]
	if c.Caption != "X" || c.Transform.TY != 12.5 || c.Transform.Scale != 1 {
		t.Errorf("card %+v", c)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.yml")
	writeFile(t, bad, "cards: [unterminated")
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidateReportsProblems(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")

	p := &Project{
		Version: 2,
		Style:   StyleSpec{TextColor: "#zzz"},
		Cards: []CardSpec{
			{Path: "a.png"},
			{Path: "a.png"},
			{Path: "gone.png"},
			{Path: "notes.txt"},
			{Path: ""},
		},
		base: dir,
	}
	errs := Validate(p)
	want := []string{"version", "text_color", "duplicate", "file not found", "unsupported image type", "missing path"}
	joined := strings.Join(errs, "\n")
	for _, w := range want {
		if !strings.Contains(joined, w) {
			t.Errorf("missing %q in:\n%s", w, joined)
		}
	}

	empty := &Project{Version: 1}
	if errs := Validate(empty); len(errs) != 1 || errs[0] != "no cards" {
		t.Errorf("empty project: %v", errs)
	}
}

func TestExpandScansDir(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "in", "2.png"))
	writePNG(t, filepath.Join(dir, "in", "1.png"))
	writePNG(t, filepath.Join(dir, "in", ".hidden", "3.png"))
	path := filepath.Join(dir, "p.yaml")
	writeFile(t, path, "dir: in\n")

	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Expand(); err != nil {
		t.Fatal(err)
	}
	if len(p.Cards) != 2 || filepath.Base(p.Cards[0].Path) != "1.png" {
		t.Errorf("cards %+v", p.Cards)
	}
}

func TestExpandKeepsFirstMaxCards(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < profile.MaxCards+4; i++ {
		writePNG(t, filepath.Join(dir, "in", fmt.Sprintf("photo-%02d.png", i)))
	}
	path := filepath.Join(dir, "p.yaml")
	writeFile(t, path, "dir: in\n")

	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Expand(); err != nil {
		t.Fatal(err)
	}
	if len(p.Cards) != profile.MaxCards {
		t.Fatalf("got %d cards, want %d", len(p.Cards), profile.MaxCards)
	}
	if last := filepath.Base(p.Cards[len(p.Cards)-1].Path); last != "photo-15.png" {
		t.Errorf("last card %s, want photo-15.png", last)
	}
	if errs := Validate(p); len(errs) != 0 {
		t.Errorf("expanded project invalid: %v", errs)
	}
	st := store.New(profile.MaxCards, nil)
	if added, err := Apply(p, st); err != nil || len(added) != profile.MaxCards {
		t.Errorf("applied %d cards, err=%v", len(added), err)
	}
}

func TestApplyRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "x")
	p := &Project{Cards: []CardSpec{{Path: "a.txt"}}, base: dir}
	if _, err := Apply(p, store.New(4, nil)); err == nil {
		t.Error("expected error for non-image card")
	}
}
