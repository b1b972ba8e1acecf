package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/squarecards/internal/export"
	"github.com/AnyUserName/squarecards/internal/preview"
	"github.com/AnyUserName/squarecards/internal/render"
	"github.com/AnyUserName/squarecards/internal/source"
)

var (
	previewOutDir string
	previewWidth  float64
	previewDPR    float64
)

var previewCmd = &cobra.Command{
	Use:   "preview <project>",
	Short: "Write display-sized preview thumbnails for every card",
	Long: `Renders each card exactly as it would be exported, then downsamples it
to the display size: width × dpr, clamped to 384-1024 px.

A card whose preview fails gets a placeholder in the photo's average color.
Files are named <NN>-<caption>.preview.png in project order.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVarP(&previewOutDir, "out", "o", "./squarecards_preview", "output directory")
	previewCmd.Flags().Float64Var(&previewWidth, "width", 300, "displayed card width in CSS pixels")
	previewCmd.Flags().Float64Var(&previewDPR, "dpr", 2, "device pixel ratio")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	lp, err := loadProject(args[0])
	if err != nil {
		return err
	}
	sink, err := export.NewDirSink(previewOutDir)
	if err != nil {
		return err
	}
	fm, err := loadFonts()
	if err != nil {
		return err
	}

	resolver := source.FileResolver{}
	gen := preview.New(resolver, render.NewRasterizer(fm))
	defer gen.Close()

	side := preview.DisplaySide(previewWidth, previewDPR)
	logVerbose("preview side: %dpx (width=%v, dpr=%v)", side, previewWidth, previewDPR)

	cards := lp.store.Cards()
	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())
	var mu sync.Mutex
	var failed int

	for i := range cards {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			c := cards[idx]
			h, err := gen.Render(cmd.Context(), c, side, lp.style)
			if errors.Is(err, preview.ErrSuperseded) {
				return
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "[squarecards] preview %s: %v\n", c.Photo.Name, err)
				img, _ := resolver.Open(c.Photo)
				h = preview.Placeholder(c.Photo.ID, img, side)
				defer h.Release()
				mu.Lock()
				failed++
				mu.Unlock()
			}

			data, err := h.PNG()
			if err != nil {
				fmt.Fprintf(os.Stderr, "[squarecards] encode preview %s: %v\n", c.Photo.Name, err)
				return
			}
			name := fmt.Sprintf("%02d-%s.preview.png", idx+1, export.SanitizeFilename(c.Caption, "card"))
			path, err := sink.Save(name, data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[squarecards] %v\n", err)
				return
			}
			logVerbose("wrote %s", filepath.Base(path))
		}(i)
	}
	wg.Wait()

	fmt.Printf("  ✓ %d previews at %dpx in %s\n", len(cards), side, previewOutDir)
	if failed > 0 {
		fmt.Printf("  ⚠ %d placeholder(s) for cards that failed to render\n", failed)
	}
	return nil
}
