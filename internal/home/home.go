// Package home manages the pageflip home directory layout.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the pageflip home directory.
	DefaultDirName = ".pageflip"

	// GalleriesDirName is the subdirectory for managed gallery directories.
	GalleriesDirName = "galleries"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the pageflip home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.pageflip).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// GalleriesPath returns the path to the galleries directory.
func (d *Dir) GalleriesPath() string {
	return filepath.Join(d.path, GalleriesDirName)
}

// GalleryPath returns the path to a named gallery directory.
func (d *Dir) GalleryPath(name string) string {
	return filepath.Join(d.GalleriesPath(), name)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create the galleries directory (this also creates the parent).
	if err := os.MkdirAll(d.GalleriesPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create galleries directory: %w", err)
	}
	return nil
}
