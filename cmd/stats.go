package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/squarecards/internal/manifest"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_manifest>",
	Short: "Display statistics for an export directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	m, err := manifest.ReadJSON(args[0])
	if err != nil {
		return err
	}
	printStats(m)
	return nil
}

func printStats(m *manifest.Manifest) {
	fmt.Println()
	fmt.Printf("  Manifest version: %d\n", m.Version)
	fmt.Printf("  Generated:        %s\n", m.GeneratedAt)
	fmt.Printf("  Profile:          %s\n", m.Profile)
	fmt.Printf("  Output:           %s at %dpx\n", m.Format, m.Side)
	if m.PageFormat != "" {
		fmt.Printf("  Pages:            %s", m.PageFormat)
		if m.Quality > 0 {
			fmt.Printf(" (quality %.2f)", m.Quality)
		}
		fmt.Println()
	}
	if m.BuildInfo != nil {
		if m.BuildInfo.Workers > 0 {
			fmt.Printf("  Workers:          %d\n", m.BuildInfo.Workers)
		}
		fmt.Printf("  Elapsed:          %d ms\n", m.BuildInfo.ElapsedMS)
	}
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Total cards:      %d\n", s.TotalCards)
	fmt.Printf("  Exported:         %d\n", s.Exported)
	fmt.Printf("  Failed:           %d\n", s.Failed)
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Printf("  Ratio:            %.1f%% of original\n", ratio)
	}
	fmt.Println()

	// Per-card breakdown.
	captioned, adjusted := 0, 0
	fmt.Println("  Cards:")
	for i, c := range m.Cards {
		out := "-"
		switch {
		case c.Error != "":
			out = "failed"
		case c.File != nil:
			out = fmt.Sprintf("%s %s", c.File.Path, formatBytes(c.File.Size))
		case c.Page > 0:
			out = fmt.Sprintf("page %d", c.Page)
		}
		fmt.Printf("    %2d  %-30s %s\n", i+1, truncKey(c.Name, 30), out)
		if c.Caption != "" {
			captioned++
		}
		if !c.Transform.IsDefault() {
			adjusted++
		}
	}
	fmt.Println()
	fmt.Printf("  Captioned: %d / %d cards\n", captioned, len(m.Cards))
	fmt.Printf("  Adjusted:  %d / %d cards\n", adjusted, len(m.Cards))

	// Warnings.
	var warnings []string
	for _, c := range m.Cards {
		if c.Error != "" {
			warnings = append(warnings, fmt.Sprintf("card %q: %s", c.Name, c.Error))
		}
		if c.Source.Hash == "" {
			warnings = append(warnings, fmt.Sprintf("card %q missing source hash", c.Name))
		}
	}
	if len(warnings) > 0 {
		fmt.Println()
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
	}
	fmt.Println()
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
