package store

import "github.com/AnyUserName/squarecards/internal/geometry"

// PhotoItem is one imported photo.
type PhotoItem struct {
	ID   string `json:"id"`
	Path string `json:"path"` // resolvable image source
	Name string `json:"name"`
	Size int64  `json:"size"`
	MIME string `json:"mime"`
	// ModTime is the source's modification time in Unix nanoseconds.
	ModTime int64 `json:"mod_time,omitempty"`
}

// TransformPatch is a partial transform update; nil fields keep the
// previous value.
type TransformPatch struct {
	Scale *float64
	TX    *float64
	TY    *float64
}

// PatchOf converts a full transform into a patch touching every field.
func PatchOf(t geometry.Transform) TransformPatch {
	return TransformPatch{Scale: &t.Scale, TX: &t.TX, TY: &t.TY}
}

// Apply returns prev with the patch applied and clamped.
func (p TransformPatch) Apply(prev geometry.Transform) geometry.Transform {
	next := prev
	if p.Scale != nil {
		next.Scale = *p.Scale
	}
	if p.TX != nil {
		next.TX = *p.TX
	}
	if p.TY != nil {
		next.TY = *p.TY
	}
	return next.Clamp()
}

// Card is a photo resolved with its caption and transform at render time.
// It is built fresh for every render call.
type Card struct {
	Photo     PhotoItem
	Caption   string
	Transform geometry.Transform
}
