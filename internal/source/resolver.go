// Package source turns photo items into decoded images.
package source

import (
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/AnyUserName/squarecards/internal/render"
	"github.com/AnyUserName/squarecards/internal/store"
)

// Resolver yields a loadable image for a photo.
type Resolver interface {
	Open(p store.PhotoItem) (image.Image, error)
}

// FileResolver decodes photos from the local filesystem, applying EXIF
// orientation so the card matches what a browser would display.
type FileResolver struct{}

// Open decodes p.Path. Failures are *render.ImageLoadError.
func (FileResolver) Open(p store.PhotoItem) (image.Image, error) {
	if p.Path == "" {
		return nil, &render.ImageLoadError{Source: p.Name, Err: errors.New("no path")}
	}
	img, err := imaging.Open(p.Path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &render.ImageLoadError{Source: p.Path, Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &render.ImageLoadError{Source: p.Path, Err: errors.New("zero-sized image")}
	}
	return img, nil
}

// Refresh returns p with Size and ModTime read from disk again, so a photo
// edited in place gets a new fingerprint. On a stat error p is returned
// unchanged and the next Open reports the problem.
func (FileResolver) Refresh(p store.PhotoItem) store.PhotoItem {
	if p.Path == "" {
		return p
	}
	info, err := os.Stat(p.Path)
	if err != nil {
		return p
	}
	p.Size = info.Size()
	p.ModTime = info.ModTime().UnixNano()
	return p
}

// Release is a store.ReleaseFunc for file-backed photos. Files are owned by
// the user, so nothing is deleted; decoded images are not cached.
func Release(store.PhotoItem) {}
