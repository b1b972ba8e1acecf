package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Sink receives finished output files. Save is all-or-nothing: a failed
// Save leaves no partial file behind.
type Sink interface {
	Save(name string, data []byte) (string, error)
}

// DirSink saves files into a directory. Name clashes get a numeric suffix,
// "card.png" then "card (1).png", like a browser download folder.
type DirSink struct {
	Dir string

	mu sync.Mutex
}

// NewDirSink creates dir if needed and returns a sink writing into it.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &DirSink{Dir: dir}, nil
}

// Save writes data under a free variant of name and returns the final path.
func (s *DirSink) Save(name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.Dir, ".squarecards-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	dst := s.freePath(name)
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return dst, nil
}

func (s *DirSink) freePath(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	p := filepath.Join(s.Dir, name)
	for i := 1; exists(p); i++ {
		p = filepath.Join(s.Dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
	return p
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}
