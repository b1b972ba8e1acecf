package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/squarecards/internal/fonts"
)

var (
	// Version is reported by --version.
	Version = "0.1.0"

	verbose  bool
	fontPath string
)

var rootCmd = &cobra.Command{
	Use:   "squarecards",
	Short: "Turn photos into square captioned cards",
	Long: `squarecards renders up to 16 photos into square cards with an optional
caption bar, and exports them as one PNG per card or as a single PDF with
one square page per card.

Cards are described by a project file (JSON or YAML) listing photos,
captions and placement. Every output, from previews to PDF pages, is drawn
by the same renderer, so what you preview is what you export.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env file if present (ignore errors)
		_ = godotenv.Load()

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Root returns the root command with every subcommand attached.
func Root() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&fontPath, "font", "", "caption font (TTF/OTF); defaults to $"+fonts.EnvFont+" or Go Regular")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"squarecards %s (%s/%s, %s)\n",
		Version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[squarecards] "+format+"\n", args...)
	}
}

// loadFonts resolves --font, then the environment, then the embedded font.
func loadFonts() (*fonts.Manager, error) {
	path := fontPath
	if path == "" {
		path = os.Getenv(fonts.EnvFont)
	}
	if path != "" {
		logVerbose("font: %s", path)
	}
	return fonts.New(path)
}
