package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testCard(side int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 90, A: 255})
		}
	}
	return img
}

func TestPNGRoundtripIsLossless(t *testing.T) {
	src := testCard(32)
	for _, enc := range []*PNGEncoder{{}, {Fast: true}} {
		data, err := enc.Encode(src, 0)
		if err != nil {
			t.Fatal(err)
		}
		got, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatal(err)
		}
		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				r1, g1, b1, a1 := src.At(x, y).RGBA()
				r2, g2, b2, a2 := got.At(x, y).RGBA()
				if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
					t.Fatalf("pixel %d,%d differs", x, y)
				}
			}
		}
	}
}

func TestJPEGQualityAffectsSize(t *testing.T) {
	src := testCard(64)
	enc := &JPEGEncoder{}
	low, err := enc.Encode(src, 50)
	if err != nil {
		t.Fatal(err)
	}
	high, err := enc.Encode(src, 95)
	if err != nil {
		t.Fatal(err)
	}
	if len(low) >= len(high) {
		t.Errorf("q50 %d bytes >= q95 %d bytes", len(low), len(high))
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(low))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 64 || cfg.Height != 64 {
		t.Errorf("dims %dx%d", cfg.Width, cfg.Height)
	}
}

func TestQualityPercent(t *testing.T) {
	cases := map[float64]int{0.5: 50, 0.8: 80, 0.95: 95, 0: 1, 2: 100}
	for in, want := range cases {
		if got := QualityPercent(in); got != want {
			t.Errorf("QualityPercent(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if r.Get("png") == nil || r.Get("JPG") == nil || r.Get("jpeg") == nil {
		t.Fatal("stdlib encoders must always be available")
	}
	if _, err := r.Lookup("bmp"); err == nil {
		t.Error("expected error for unknown format")
	}
	avail := r.Available()
	if len(avail) < 2 || avail[0] != "png" || avail[1] != "jpeg" {
		t.Errorf("available: %v", avail)
	}
	if r.Get("png").MIME() != "image/png" || r.Get("jpeg").Extension() != "jpg" {
		t.Error("metadata mismatch")
	}
}
