//go:build ignore

// gen_fixtures writes sample photos and a project file for a smoke test.
// Usage: go run gen_fixtures.go <output_dir>
//
//	squarecards export <output_dir>/project.yaml --out <output_dir>/out
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
)

const project = `version: 1
style:
  background: "#1b1b1f"
cards:
  - path: photos/landscape.jpg
    caption: Sunset over the bay
  - path: photos/portrait.jpg
    caption: |-
      Old town
      second line of the caption
    transform: {scale: 1.4, ty: -12}
  - path: photos/square-1.png
  - path: photos/square-2.png
    caption: A very long caption that will need to wrap across several lines of the bar to fit inside the card
    transform: {tx: 25}
  - path: photos/logo.png
    caption: Alpha
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	photos := filepath.Join(dir, "photos")
	if err := os.MkdirAll(photos, 0o755); err != nil {
		panic(err)
	}

	writeJPEG(filepath.Join(photos, "landscape.jpg"), gradient(1600, 800))
	writeJPEG(filepath.Join(photos, "portrait.jpg"), gradient(600, 1000))
	for i := 1; i <= 2; i++ {
		writePNG(filepath.Join(photos, fmt.Sprintf("square-%d.png", i)), framed(500, uint8(i*70)))
	}
	writePNG(filepath.Join(photos, "logo.png"), alphaGradient(300, 300))

	if err := os.WriteFile(filepath.Join(dir, "project.yaml"), []byte(project), 0o644); err != nil {
		panic(err)
	}
	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 5 photos and project.yaml in %s\n", dir)
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// framed is a solid square with a white border, so crops are easy to see.
func framed(side int, base uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			c := color.NRGBA{R: base, G: base + 40, B: base + 80, A: 255}
			if x < 12 || x >= side-12 || y < 12 || y >= side-12 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func alphaGradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 220, G: 60, B: 30, A: uint8(x * 255 / w)})
		}
	}
	return img
}

func writePNG(path string, img image.Image) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		panic(err)
	}
}

func writeJPEG(path string, img image.Image) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
}
