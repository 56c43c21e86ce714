package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DirSource lists image files directly under a directory.
// Subdirectories are skipped, not descended into.
type DirSource struct {
	dir string
}

// NewDirSource creates a source backed by the given directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// List enumerates the directory's regular files whose names pass accept.
func (s *DirSource) List(accept func(name string) bool) ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !accept(de.Name()) {
			continue
		}
		entries = append(entries, &fileEntry{
			name: de.Name(),
			path: filepath.Join(s.dir, de.Name()),
		})
	}
	return entries, nil
}

// fileEntry is a single file inside a DirSource.
type fileEntry struct {
	name string
	path string
}

func (e *fileEntry) Name() (string, bool) {
	return e.name, true
}

func (e *fileEntry) Open() (io.ReadCloser, error) {
	f, err := os.Open(e.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", e.path, err)
	}
	return f, nil
}
