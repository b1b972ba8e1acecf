package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/squarecards/internal/encoder"
	"github.com/AnyUserName/squarecards/internal/export"
	"github.com/AnyUserName/squarecards/internal/hasher"
	"github.com/AnyUserName/squarecards/internal/manifest"
	"github.com/AnyUserName/squarecards/internal/profile"
	"github.com/AnyUserName/squarecards/internal/render"
	"github.com/AnyUserName/squarecards/internal/source"
	"github.com/AnyUserName/squarecards/internal/store"
)

var (
	exportOutDir      string
	exportPDF         bool
	exportPNG         bool
	exportImageFormat string
	exportProfile     string
	exportSide        int
	exportDocFormat   string
	exportQuality     float64
	exportWorkers     int
)

var exportCmd = &cobra.Command{
	Use:   "export <project>",
	Short: "Render cards and export them as a PDF or as one image per card",
	Long: `Renders every card of the project at full resolution.

With --pdf (default) all cards become pages of one PDF, story-squares.pdf,
one square page per card. Any failing card aborts the export and no PDF is
written.

With --png every card is written as <caption>.png (lossless). Cards are
independent: a failing card is reported and the others are still written.

A manifest describing the run is written next to the output.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutDir, "out", "o", "./squarecards_out", "output directory")
	exportCmd.Flags().BoolVar(&exportPDF, "pdf", false, "export one multi-page PDF (default)")
	exportCmd.Flags().BoolVar(&exportPNG, "png", false, "export one image per card")
	exportCmd.Flags().StringVar(&exportImageFormat, "image-format", "png", "per-card image format with --png: png or webp (lossless)")
	exportCmd.Flags().StringVarP(&exportProfile, "profile", "p", "default", "export profile: "+fmt.Sprint(profile.Names()))
	exportCmd.Flags().IntVar(&exportSide, "side", 0, "card side in pixels (0 = profile default)")
	exportCmd.Flags().StringVar(&exportDocFormat, "doc-format", "", "PDF page encoding: jpeg or png (empty = profile default)")
	exportCmd.Flags().Float64VarP(&exportQuality, "quality", "q", 0, "PDF jpeg quality 0.5-0.95 (0 = profile default)")
	exportCmd.Flags().IntVarP(&exportWorkers, "workers", "w", 0, "parallel workers for --png (0 = NumCPU)")
	exportCmd.MarkFlagsMutuallyExclusive("pdf", "png")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	start := time.Now()

	prof := profile.Get(exportProfile).WithOverrides(exportSide, exportDocFormat, exportQuality)
	if prof.Side > profile.MaxSide {
		return fmt.Errorf("side %d exceeds maximum %d", prof.Side, profile.MaxSide)
	}

	lp, err := loadProject(args[0])
	if err != nil {
		return err
	}
	absOutput, err := filepath.Abs(exportOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	sink, err := export.NewDirSink(absOutput)
	if err != nil {
		return err
	}
	fm, err := loadFonts()
	if err != nil {
		return err
	}
	r := render.NewRasterizer(fm)
	resolver := source.FileResolver{}

	logVerbose("output:  %s", absOutput)
	logVerbose("profile: %s (side=%d, pages=%s, quality=%.2f)", prof.Name, prof.Side, prof.DocFormat, prof.Quality)

	cards := lp.store.Cards()
	m := manifest.New(prof.Name)
	m.Side = prof.Side
	m.Style = lp.style.Key()
	m.Cards = manifestCards(cards)

	if exportPNG {
		err = exportImages(m, cards, resolver, r, sink, lp.style, prof, absOutput)
	} else {
		err = exportDocument(m, cards, resolver, r, sink, lp.style, prof, absOutput)
	}
	if err != nil {
		return err
	}

	m.BuildInfo.ElapsedMS = time.Since(start).Milliseconds()
	manifestPath := filepath.Join(absOutput, manifest.FileName)
	if err := manifest.WriteJSON(m, manifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	printExportReport(m, time.Since(start))
	return nil
}

func exportDocument(m *manifest.Manifest, cards []store.Card, l render.Loader, r *render.Rasterizer, sink export.Sink, style render.Style, prof profile.Profile, outDir string) error {
	exp := export.NewDocumentExporter(l, r, sink)
	res, err := exp.Export(cards, export.DocOptions{
		Side:    prof.Side,
		Format:  prof.DocFormat,
		Quality: prof.Quality,
		Style:   style,
		OnProgress: func(p export.Progress) {
			fmt.Fprintf(os.Stderr, "  %s\n", p)
		},
	})
	if err != nil {
		return fmt.Errorf("export pdf: %w", err)
	}
	if !res.Started {
		return fmt.Errorf("export pdf: another export is running")
	}

	m.Format = "pdf"
	m.PageFormat = prof.DocFormat
	if prof.DocFormat != "png" {
		m.Quality = prof.Quality
	}
	m.BuildInfo = &manifest.BuildInfo{}
	m.Document = &manifest.Document{
		Path:  relPath(outDir, res.Path),
		Size:  int64(res.Size),
		Hash:  res.Hash,
		Pages: len(res.Pages),
	}
	for i, pg := range res.Pages {
		m.Cards[i].Page = i + 1
		m.Cards[i].Key = pg.Key
	}
	return nil
}

func exportImages(m *manifest.Manifest, cards []store.Card, l render.Loader, r *render.Rasterizer, sink export.Sink, style render.Style, prof profile.Profile, outDir string) error {
	reg := encoder.NewRegistry()
	logVerbose("%s", reg)
	enc, err := reg.Lookup(exportImageFormat)
	if err != nil {
		return err
	}
	if enc.Format() == "jpeg" {
		return fmt.Errorf("per-card export is lossless; use png or webp")
	}

	workers := exportWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	opts := export.Options{Side: prof.Side, Style: style, Encoder: enc, Workers: workers}
	files, failures, err := export.ExportAll(l, r, sink, cards, opts)

	index := map[string]int{}
	for i, c := range m.Cards {
		index[c.ID] = i
	}
	for _, f := range files {
		mc := &m.Cards[index[f.ID]]
		mc.Key = f.Key
		mc.File = &manifest.File{
			Path:   relPath(outDir, f.Path),
			Format: f.Format,
			Side:   f.Side,
			Size:   int64(f.Size),
			Hash:   f.Hash,
		}
		logVerbose("done: %s", mc.File.Path)
	}
	for _, fl := range failures {
		m.Cards[index[fl.ID]].Error = fl.Err.Error()
		fmt.Fprintf(os.Stderr, "[squarecards] error: %v\n", fl.Err)
	}
	if err != nil {
		return err
	}
	if len(failures) > 0 {
		fmt.Fprintf(os.Stderr, "[squarecards] warning: %d of %d cards had errors\n", len(failures), len(cards))
	}

	m.Format = enc.Format()
	m.BuildInfo = &manifest.BuildInfo{Workers: opts.Workers}
	return nil
}

// manifestCards describes each card's inputs. Source hashes are best
// effort: an unreadable file is reported when it is rendered.
func manifestCards(cards []store.Card) []manifest.Card {
	out := make([]manifest.Card, len(cards))
	for i, c := range cards {
		h, err := hasher.FileHash(c.Photo.Path, 16)
		if err != nil {
			logVerbose("hash %s: %v", c.Photo.Path, err)
		}
		out[i] = manifest.Card{
			ID:        c.Photo.ID,
			Name:      c.Photo.Name,
			Caption:   c.Caption,
			Transform: c.Transform,
			Source: manifest.Source{
				Path: c.Photo.Path,
				Size: c.Photo.Size,
				MIME: c.Photo.MIME,
				Hash: h,
			},
		}
	}
	return out
}

func relPath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}

func printExportReport(m *manifest.Manifest, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║             squarecards export complete          ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Cards:       %d (%d exported, %d failed)\n", s.TotalCards, s.Exported, s.Failed)
	fmt.Printf("  Side:        %dpx\n", m.Side)
	fmt.Printf("  Input size:  %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(s.TotalOutputBytes))
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Println()

	if m.Document != nil {
		fmt.Printf("  Document:    %s (%d pages, %s pages)\n", m.Document.Path, m.Document.Pages, m.PageFormat)
	} else {
		for _, c := range m.Cards {
			if c.File != nil {
				fmt.Printf("    %-40s %8s\n", truncKey(c.File.Path, 40), formatBytes(c.File.Size))
			}
		}
	}
	fmt.Printf("  Manifest:    %s\n", manifest.FileName)
	fmt.Println()
}
