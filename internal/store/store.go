// Package store holds the project: an ordered list of photos plus sparse
// caption and transform mappings keyed by photo ID.
//
// Rendering code only reads from the store; every mutation goes through the
// setters here, which clamp transforms and keep the caption map sparse.
package store

import (
	"strings"
	"sync"

	"github.com/AnyUserName/squarecards/internal/geometry"
)

// ReleaseFunc frees the resource behind a removed photo.
type ReleaseFunc func(PhotoItem)

// Store is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	max        int
	photos     []PhotoItem
	captions   map[string]string
	transforms map[string]geometry.Transform
	release    ReleaseFunc
}

// New creates an empty store holding at most max photos. release may be
// nil.
func New(max int, release ReleaseFunc) *Store {
	return &Store{
		max:        max,
		captions:   make(map[string]string),
		transforms: make(map[string]geometry.Transform),
		release:    release,
	}
}

// Max returns the capacity.
func (s *Store) Max() int { return s.max }

// Len returns the number of photos.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.photos)
}

// Remaining returns how many photos can still be added.
func (s *Store) Remaining() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return max(0, s.max-len(s.photos))
}

// Add appends items up to the remaining capacity and returns the accepted
// ones. Items beyond capacity are released.
func (s *Store) Add(items ...PhotoItem) []PhotoItem {
	s.mu.Lock()
	n := min(len(items), max(0, s.max-len(s.photos)))
	accepted := items[:n]
	s.photos = append(s.photos, accepted...)
	rejected := items[n:]
	s.mu.Unlock()

	for _, it := range rejected {
		s.releaseItem(it)
	}
	return append([]PhotoItem(nil), accepted...)
}

// Remove drops a photo with its caption and transform. Unknown IDs are
// ignored.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	idx := -1
	for i, p := range s.photos {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return false
	}
	item := s.photos[idx]
	s.photos = append(s.photos[:idx:idx], s.photos[idx+1:]...)
	delete(s.captions, id)
	delete(s.transforms, id)
	s.mu.Unlock()

	s.releaseItem(item)
	return true
}

// Clear empties the project.
func (s *Store) Clear() {
	s.mu.Lock()
	old := s.photos
	s.photos = nil
	s.captions = make(map[string]string)
	s.transforms = make(map[string]geometry.Transform)
	s.mu.Unlock()

	for _, it := range old {
		s.releaseItem(it)
	}
}

// SetCaption stores text for id. A trimmed-empty caption removes the entry.
func (s *Store) SetCaption(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(text) == "" {
		delete(s.captions, id)
		return
	}
	s.captions[id] = text
}

// SetTransform applies a patch on top of the current transform, clamped.
func (s *Store) SetTransform(id string, patch TransformPatch) geometry.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.transforms[id]
	if !ok {
		prev = geometry.DefaultTransform
	}
	next := patch.Apply(prev)
	s.transforms[id] = next
	return next
}

// ResetTransform drops the custom transform for id.
func (s *Store) ResetTransform(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transforms, id)
}

// Photos returns a copy of the ordered photo list.
func (s *Store) Photos() []PhotoItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PhotoItem(nil), s.photos...)
}

// Photo looks up a photo by ID.
func (s *Store) Photo(id string) (PhotoItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.photos {
		if p.ID == id {
			return p, true
		}
	}
	return PhotoItem{}, false
}

// Caption returns the caption for id, empty when absent.
func (s *Store) Caption(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.captions[id]
}

// HasCaption reports whether a caption entry exists for id.
func (s *Store) HasCaption(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.captions[id]
	return ok
}

// Transform returns the transform for id, the default when absent.
func (s *Store) Transform(id string) geometry.Transform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.transforms[id]; ok {
		return t
	}
	return geometry.DefaultTransform
}

// Captions returns a copy of the caption mapping.
func (s *Store) Captions() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.captions))
	for k, v := range s.captions {
		out[k] = v
	}
	return out
}

// Transforms returns a copy of the transform mapping.
func (s *Store) Transforms() map[string]geometry.Transform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]geometry.Transform, len(s.transforms))
	for k, v := range s.transforms {
		out[k] = v
	}
	return out
}

// Card resolves the card for id.
func (s *Store) Card(id string) (Card, bool) {
	p, ok := s.Photo(id)
	if !ok {
		return Card{}, false
	}
	return Card{Photo: p, Caption: s.Caption(id), Transform: s.Transform(id)}, true
}

// Cards resolves every card in collection order.
func (s *Store) Cards() []Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ResolveCards(s.photos, s.captions, s.transforms)
}

// ResolveCards pairs photos with their caption (default empty) and
// transform (default identity).
func ResolveCards(photos []PhotoItem, captions map[string]string, transforms map[string]geometry.Transform) []Card {
	cards := make([]Card, 0, len(photos))
	for _, p := range photos {
		t, ok := transforms[p.ID]
		if !ok {
			t = geometry.DefaultTransform
		}
		cards = append(cards, Card{
			Photo:     p,
			Caption:   strings.TrimSpace(captions[p.ID]),
			Transform: t,
		})
	}
	return cards
}

func (s *Store) releaseItem(it PhotoItem) {
	if s.release != nil {
		s.release(it)
	}
}
