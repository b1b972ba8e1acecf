// Package hasher fingerprints card inputs and outputs with xxHash64.
package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"math"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/AnyUserName/squarecards/internal/store"
)

// ContentHash computes the xxHash64 of data and returns a hex string
// truncated to hexLen (0 keeps all 16 chars).
func ContentHash(data []byte, hexLen int) string {
	return truncHex(xxhash.Sum64(data), hexLen)
}

// ContentHashReader computes xxHash64 from a reader, streaming.
func ContentHashReader(r io.Reader, hexLen int) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return truncHex(h.Sum64(), hexLen), nil
}

// FileHash hashes the file at path.
func FileHash(path string, hexLen int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return ContentHashReader(f, hexLen)
}

// CardKey fingerprints everything that influences a rendered card: the
// photo (identity, size and modification time), caption, transform, side
// and style key. Two requests with the same key produce the same pixels as
// long as the source file's size and mtime track its content.
func CardKey(c store.Card, side int, styleKey string) uint64 {
	h := xxhash.New()
	writeString(h, c.Photo.ID)
	writeString(h, c.Photo.Path)
	var b [8]byte
	for _, v := range []int64{c.Photo.Size, c.Photo.ModTime} {
		binary.BigEndian.PutUint64(b[:], uint64(v))
		h.Write(b[:])
	}
	writeString(h, c.Caption)
	for _, v := range []float64{c.Transform.Scale, c.Transform.TX, c.Transform.TY} {
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
		h.Write(b[:])
	}
	binary.BigEndian.PutUint64(b[:], uint64(side))
	h.Write(b[:])
	writeString(h, styleKey)
	return h.Sum64()
}

// writeString writes s length-prefixed so adjacent fields cannot collide.
func writeString(h *xxhash.Digest, s string) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(len(s)))
	h.Write(b[:])
	h.WriteString(s)
}

func truncHex(v uint64, hexLen int) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	full := hex.EncodeToString(b[:])
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}
