package render

import "fmt"

// ImageLoadError reports a source image that could not be read or decoded.
type ImageLoadError struct {
	Source string
	Err    error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("load image %s: %v", e.Source, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

// SurfaceAllocationError reports a raster surface that could not be made.
type SurfaceAllocationError struct {
	Side int
	Err  error
}

func (e *SurfaceAllocationError) Error() string {
	return fmt.Sprintf("allocate %dx%d surface: %v", e.Side, e.Side, e.Err)
}

func (e *SurfaceAllocationError) Unwrap() error { return e.Err }

// EncodingError reports a raster that could not be converted to bytes.
type EncodingError struct {
	Format string
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Format, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
