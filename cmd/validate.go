package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/squarecards/internal/manifest"
	"github.com/AnyUserName/squarecards/internal/project"
)

var validateCmd = &cobra.Command{
	Use:   "validate <project|manifest>",
	Short: "Validate a project file, or an export manifest and its files",
	Long: `Validates a project file (.json, .yaml, .yml): card count, that every
photo exists and is a supported image, colors and transform ranges.

Given an export manifest (*.manifest.json), checks that every referenced
file exists with the recorded size and that the stats are consistent.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	path := args[0]
	if strings.HasSuffix(path, ".manifest.json") {
		return validateManifestFile(path)
	}

	p, err := project.Load(path)
	if err != nil {
		return err
	}
	if err := p.Expand(); err != nil {
		return err
	}
	errs := project.Validate(p)
	if len(errs) == 0 {
		fmt.Println("  ✓ Project is valid")
		fmt.Printf("  ✓ %d cards, all photos present\n", len(p.Cards))
		return nil
	}
	return reportErrors("Project", errs)
}

func validateManifestFile(path string) error {
	m, err := manifest.ReadJSON(path)
	if err != nil {
		return err
	}
	errs := manifest.Validate(m, filepath.Dir(path))
	if len(errs) == 0 {
		fmt.Println("  ✓ Manifest is valid")
		fmt.Printf("  ✓ %d cards, all files present\n", m.Stats.TotalCards)
		return nil
	}
	return reportErrors("Manifest", errs)
}

func reportErrors(what string, errs []string) error {
	fmt.Printf("  ✗ %s has %d error(s):\n", what, len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}
