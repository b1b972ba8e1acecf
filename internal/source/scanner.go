package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/AnyUserName/squarecards/internal/store"
)

// mimeByExt lists recognized image file extensions.
var mimeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".avif": "image/avif",
}

// acceptedMIME are the MIME types a photo may have.
var acceptedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/avif": true,
	"image/bmp":  true,
	"image/tiff": true,
}

// MIMEType returns the image MIME type for path, or "" if unrecognized.
func MIMEType(path string) string {
	return mimeByExt[strings.ToLower(filepath.Ext(path))]
}

// IsImage reports whether a MIME type is accepted as a photo.
func IsImage(mime string) bool {
	return acceptedMIME[strings.ToLower(mime)]
}

// Scan walks dir and returns image file paths in lexical order.
// Hidden directories are skipped.
func Scan(dir string) ([]string, error) {
	var paths []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if MIMEType(path) != "" {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)
	return paths, err
}

// NewPhotoItems builds photo items for paths, skipping anything that is not
// an accepted image and stopping once max items were made.
func NewPhotoItems(paths []string, max int) ([]store.PhotoItem, error) {
	var items []store.PhotoItem
	for _, p := range paths {
		if len(items) >= max {
			break
		}
		mime := MIMEType(p)
		if !IsImage(mime) {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		items = append(items, store.PhotoItem{
			ID:   uuid.NewString(),
			Path: abs,
			Name: filepath.Base(abs),
			Size:    info.Size(),
			MIME:    mime,
			ModTime: info.ModTime().UnixNano(),
		})
	}
	return items, nil
}
