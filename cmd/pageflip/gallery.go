package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pageflip/pageflip/internal/home"
	"github.com/pageflip/pageflip/internal/source"
)

// resolveGallery resolves a gallery argument to a path. An existing
// path wins; otherwise the argument is tried as the name of a gallery
// under the home galleries directory.
func resolveGallery(h *home.Dir, arg string) (string, error) {
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}
	named := h.GalleryPath(arg)
	if _, err := os.Stat(named); err == nil {
		return named, nil
	}
	return "", fmt.Errorf("no such gallery: %s", arg)
}

// newSource picks a source implementation for a gallery path: a PDF file
// or a directory of images.
func newSource(path string, dpi int) (source.Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("gallery path: %w", err)
	}
	if info.IsDir() {
		return source.NewDirSource(path), nil
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return source.NewPDFSource(path, dpi), nil
	}
	return nil, fmt.Errorf("gallery path must be a directory or a PDF file: %s", path)
}
