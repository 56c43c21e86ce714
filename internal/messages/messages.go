// Package messages maps provider failures to display text.
package messages

import "github.com/pageflip/pageflip/internal/gallery"

const (
	InvalidPath    = "invalid path"
	OutOfRange     = "out of range"
	ReadingFailed  = "reading failed"
	DecodingFailed = "decoding failed"
)

// ForReason returns the display text for a per-page failure.
func ForReason(reason gallery.FailReason) string {
	switch reason {
	case gallery.FailOutOfRange:
		return OutOfRange
	case gallery.FailRead:
		return ReadingFailed
	case gallery.FailDecode:
		return DecodingFailed
	default:
		return string(reason)
	}
}
