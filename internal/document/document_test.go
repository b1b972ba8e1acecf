package document

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodedPage(t *testing.T, side int, mime string) Page {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	var err error
	if mime == "image/png" {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80})
	}
	if err != nil {
		t.Fatal(err)
	}
	return Page{Data: buf.Bytes(), MIME: mime, Width: side, Height: side}
}

func TestPDFWriterPages(t *testing.T) {
	pages := []Page{
		encodedPage(t, 64, "image/jpeg"),
		encodedPage(t, 64, "image/png"),
		encodedPage(t, 32, "image/jpeg"),
	}
	w := &PDFWriter{Title: "cards", Creator: "squarecards"}
	data, err := w.Write(pages)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("missing PDF header: %q", data[:8])
	}
	if !bytes.Contains(data, []byte("/Count 3")) {
		t.Error("expected three pages in page tree")
	}
}

func TestPDFWriterEmpty(t *testing.T) {
	_, err := (&PDFWriter{}).Write(nil)
	if !errors.Is(err, ErrNoPages) {
		t.Errorf("got %v, want ErrNoPages", err)
	}
}

func TestPDFWriterRejectsBadPages(t *testing.T) {
	p := encodedPage(t, 16, "image/jpeg")
	bad := p
	bad.MIME = "image/gif"
	if _, err := (&PDFWriter{}).Write([]Page{p, bad}); err == nil {
		t.Error("expected error for unsupported mime")
	}
	bad = p
	bad.Width = 0
	if _, err := (&PDFWriter{}).Write([]Page{bad}); err == nil {
		t.Error("expected error for zero width")
	}
}
