package export

import (
	"regexp"
	"strings"
)

// MaxFilenameLen bounds the stem of generated file names.
const MaxFilenameLen = 100

var unsafeRun = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)

// SanitizeFilename turns a caption into a file name stem: every run of
// characters outside [A-Za-z0-9_-] becomes one underscore, edge
// underscores are trimmed, and an empty result yields fallback ("card"
// when fallback is empty). The result is cut to MaxFilenameLen bytes.
func SanitizeFilename(name, fallback string) string {
	s := strings.Trim(unsafeRun.ReplaceAllString(name, "_"), "_")
	if s == "" {
		s = fallback
	}
	if s == "" {
		s = "card"
	}
	if len(s) > MaxFilenameLen {
		s = s[:MaxFilenameLen]
	}
	return s
}
