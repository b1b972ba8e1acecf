package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/squarecards/internal/caption"
	"github.com/AnyUserName/squarecards/internal/geometry"
	"github.com/AnyUserName/squarecards/internal/profile"
	"github.com/AnyUserName/squarecards/internal/source"
)

var (
	inspectFrame int
	inspectSide  int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <project>",
	Short: "Print placement, caption layout and editor overlay for each card",
	Long: `For every card prints the photo's draw rectangle at the export side, the
caption bar layout, and the CSS directive an editor would apply to a frame
of --frame pixels to show the same placement live.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectFrame, "frame", 480, "editor frame side in pixels (0 = unmeasured)")
	inspectCmd.Flags().IntVar(&inspectSide, "side", profile.ExportSide, "card side in pixels")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(_ *cobra.Command, args []string) error {
	if inspectSide <= 0 || inspectSide > profile.MaxSide {
		return fmt.Errorf("side %d outside 1..%d", inspectSide, profile.MaxSide)
	}
	lp, err := loadProject(args[0])
	if err != nil {
		return err
	}
	fm, err := loadFonts()
	if err != nil {
		return err
	}
	resolver := source.FileResolver{}

	fmt.Println()
	for i, c := range lp.store.Cards() {
		fmt.Printf("  [%d] %s\n", i+1, c.Photo.Name)
		t := c.Transform
		fmt.Printf("      transform: scale=%.2f tx=%.1f%% ty=%.1f%%\n", t.Scale, t.TX, t.TY)

		natW, natH := 0, 0
		if img, err := resolver.Open(c.Photo); err != nil {
			fmt.Printf("      ✗ %v\n", err)
		} else {
			b := img.Bounds()
			natW, natH = b.Dx(), b.Dy()
			r, ok := geometry.DrawRect(natW, natH, inspectSide, t)
			fmt.Printf("      source:    %dx%d\n", natW, natH)
			if !ok {
				fmt.Printf("      draw:      ✗ no drawable area\n")
			} else {
				fmt.Printf("      draw:      dx=%d dy=%d dw=%d dh=%d at %dpx (covers: %v)\n",
					r.DX, r.DY, r.DW, r.DH, inspectSide, r.Covers(inspectSide))
			}
		}

		l, err := caption.Layout(c.Caption, inspectSide, fm)
		switch {
		case err != nil:
			fmt.Printf("      caption:   ✗ %v\n", err)
		case !l.Bar:
			fmt.Printf("      caption:   none\n")
		default:
			mode := "wrapped"
			if l.SingleLine {
				mode = "single line"
			}
			fmt.Printf("      caption:   %d line(s), %s, bar %dpx, font %dpx\n",
				len(l.Lines), mode, l.BarHeight, l.FontSize)
			for _, line := range l.Lines {
				fmt.Printf("                 │ %s\n", line)
			}
		}

		d := geometry.Overlay(natW, natH, inspectFrame, t)
		kind := "approximate"
		if d.Exact {
			kind = "exact"
		}
		fmt.Printf("      overlay:   %s\n", kind)
		fmt.Printf("                 %s\n", d.CSS)
		fmt.Println()
	}
	return nil
}
