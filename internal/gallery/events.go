package gallery

import "image"

// FailReason classifies a per-page failure.
type FailReason string

const (
	// FailOutOfRange means the requested index was outside [0, pageCount).
	FailOutOfRange FailReason = "out_of_range"
	// FailRead means the page's byte stream could not be opened or read.
	FailRead FailReason = "read_failed"
	// FailDecode means the decoder produced no usable image.
	FailDecode FailReason = "decode_failed"
)

// Sink receives provider events. Implementations must be safe to call from
// the provider's worker goroutine; callbacks are one-way and their return
// is not consumed.
//
// For every index that begins decoding, exactly one of PageSucceeded or
// PageFailed fires, after the in-flight marker for that index has been
// cleared. A request cancelled before decoding starts produces neither.
type Sink interface {
	// StateChanged fires when the page count becomes known or the
	// provider enters its error state.
	StateChanged()

	// PageWaiting acknowledges that a request was accepted into the
	// queue. It fires once, synchronously, from the Request call that
	// added the entry.
	PageWaiting(index int)

	PageSucceeded(index int, img image.Image)
	PageFailed(index int, reason FailReason)
}
