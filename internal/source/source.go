// Package source enumerates page entries from an underlying file collection.
package source

import (
	"io"
	"sort"
	"strings"
)

// DefaultExtensions is the accepted extension set used when none is configured.
var DefaultExtensions = []string{"jpg", "jpeg", "png", "gif"}

// Entry is a single page in a collection.
// Name reports false when the entry has no retrievable name.
type Entry interface {
	Name() (string, bool)
	Open() (io.ReadCloser, error)
}

// Source lists the entries of a collection whose names pass the accept
// predicate. The returned slice is fixed; a listing failure is fatal to
// the caller.
type Source interface {
	List(accept func(name string) bool) ([]Entry, error)
}

// AcceptExtensions returns a predicate matching names that end in one of
// the given extensions. Matching is case-insensitive, so "IMG_01.JPG"
// passes a filter built from {"jpg"}.
func AcceptExtensions(exts []string) func(string) bool {
	suffixes := make([]string, len(exts))
	for i, ext := range exts {
		suffixes[i] = "." + strings.ToLower(strings.TrimPrefix(ext, "."))
	}
	return func(name string) bool {
		lower := strings.ToLower(name)
		for _, suffix := range suffixes {
			if strings.HasSuffix(lower, suffix) {
				return true
			}
		}
		return false
	}
}

// AcceptDefault matches the default extension set.
var AcceptDefault = AcceptExtensions(DefaultExtensions)

// SortByName orders entries by name, case-insensitively, with a byte-wise
// tie-break so the order is deterministic. Entries without a retrievable
// name sort after all named entries; their order relative to each other is
// stable but unspecified.
func SortByName(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ni, iok := entries[i].Name()
		nj, jok := entries[j].Name()
		switch {
		case iok && jok:
			li, lj := strings.ToLower(ni), strings.ToLower(nj)
			if li != lj {
				return li < lj
			}
			return ni < nj
		case iok:
			return true
		default:
			return false
		}
	})
}
