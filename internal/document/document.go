// Package document assembles encoded card rasters into a multi-page
// container file.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// ErrNoPages is returned when a document would have no pages.
var ErrNoPages = errors.New("document has no pages")

// Page is one encoded raster placed full-bleed on its own page.
type Page struct {
	Data   []byte
	MIME   string // image/jpeg or image/png
	Width  int    // page width in points, equal to raster pixels
	Height int
}

// Writer serializes pages into a single document.
type Writer interface {
	Write(pages []Page) ([]byte, error)
	Extension() string
}

// Epoch is the creation date stamped on every document so identical
// inputs serialize identically.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// PDFWriter writes one PDF page per card.
type PDFWriter struct {
	Title   string
	Creator string
}

func (w *PDFWriter) Extension() string { return "pdf" }

func (w *PDFWriter) Write(pages []Page) ([]byte, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	first := fpdf.SizeType{Wd: float64(pages[0].Width), Ht: float64(pages[0].Height)}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           first,
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(Epoch)
	if w.Title != "" {
		pdf.SetTitle(w.Title, true)
	}
	if w.Creator != "" {
		pdf.SetCreator(w.Creator, true)
	}

	for i, p := range pages {
		if p.Width <= 0 || p.Height <= 0 {
			return nil, fmt.Errorf("page %d: invalid size %dx%d", i+1, p.Width, p.Height)
		}
		imgType, err := imageType(p.MIME)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}

		size := fpdf.SizeType{Wd: float64(p.Width), Ht: float64(p.Height)}
		pdf.AddPageFormat("P", size)

		name := fmt.Sprintf("page-%d", i+1)
		opt := fpdf.ImageOptions{ImageType: imgType}
		pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(p.Data))
		pdf.ImageOptions(name, 0, 0, size.Wd, size.Ht, false, opt, 0, "")
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("serialize pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func imageType(mime string) (string, error) {
	switch mime {
	case "image/jpeg":
		return "JPG", nil
	case "image/png":
		return "PNG", nil
	default:
		return "", fmt.Errorf("unsupported page image type %q", mime)
	}
}
