package source

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DefaultDPI is the render resolution used when none is configured.
const DefaultDPI = 300

// PDFSource exposes each page of a PDF as an entry. Pages are rendered to
// PNG on open using pdftoppm (poppler-utils), so entry names carry a .png
// extension.
type PDFSource struct {
	path string
	dpi  int
}

// NewPDFSource creates a source backed by the given PDF file.
// dpi controls the render resolution; 0 uses DefaultDPI.
func NewPDFSource(path string, dpi int) *PDFSource {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &PDFSource{path: path, dpi: dpi}
}

// List counts the PDF's pages and returns one entry per page whose
// synthetic name passes accept.
func (s *PDFSource) List(accept func(name string) bool) ([]Entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	pageCount, err := api.PageCount(f, nil)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	entries := make([]Entry, 0, pageCount)
	for page := 1; page <= pageCount; page++ {
		name := fmt.Sprintf("page_%04d.png", page)
		if !accept(name) {
			continue
		}
		entries = append(entries, &pdfPageEntry{
			pdfPath: s.path,
			page:    page,
			name:    name,
			dpi:     s.dpi,
		})
	}
	return entries, nil
}

// pdfPageEntry is a single page of a PDFSource.
type pdfPageEntry struct {
	pdfPath string
	page    int
	name    string
	dpi     int
}

func (e *pdfPageEntry) Name() (string, bool) {
	return e.name, true
}

// Open renders the page to a temp file and returns a reader over it.
// The temp directory is removed when the reader is closed.
func (e *pdfPageEntry) Open() (io.ReadCloser, error) {
	tmpDir, err := os.MkdirTemp("", "pageflip-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	outputPrefix := filepath.Join(tmpDir, "page")
	pageStr := fmt.Sprintf("%d", e.page)
	cmd := exec.Command("pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", fmt.Sprintf("%d", e.dpi),
		"-singlefile",
		e.pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	f, err := os.Open(outputPrefix + ".png")
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return &tempFileReader{File: f, dir: tmpDir}, nil
}

// tempFileReader removes its backing temp directory on close.
type tempFileReader struct {
	*os.File
	dir string
}

func (t *tempFileReader) Close() error {
	err := t.File.Close()
	os.RemoveAll(t.dir)
	return err
}
