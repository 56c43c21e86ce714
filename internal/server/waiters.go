package server

import (
	"image"
	"log/slog"
	"sync"

	"github.com/pageflip/pageflip/internal/gallery"
)

// pageResult is one terminal notification routed to waiting handlers.
type pageResult struct {
	img    image.Image
	reason gallery.FailReason
	failed bool
}

// pageWaiters routes each terminal notification to every handler waiting
// on that index. Multiple requests for the same index share one decode.
type pageWaiters struct {
	mu sync.Mutex
	m  map[int][]chan pageResult
}

func newPageWaiters() *pageWaiters {
	return &pageWaiters{m: make(map[int][]chan pageResult)}
}

// register adds a waiter for index. The returned channel receives at most
// one result.
func (w *pageWaiters) register(index int) chan pageResult {
	ch := make(chan pageResult, 1)
	w.mu.Lock()
	w.m[index] = append(w.m[index], ch)
	w.mu.Unlock()
	return ch
}

// unregister removes a waiter that gave up and returns how many waiters
// remain for the index, so the caller can tell whether the pending
// request is still wanted by anyone.
func (w *pageWaiters) unregister(index int, ch chan pageResult) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	chans := w.m[index]
	for i, c := range chans {
		if c == ch {
			w.m[index] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
	remaining := len(w.m[index])
	if remaining == 0 {
		delete(w.m, index)
	}
	return remaining
}

// deliver hands a result to all waiters for index and clears them.
func (w *pageWaiters) deliver(index int, res pageResult) {
	w.mu.Lock()
	chans := w.m[index]
	delete(w.m, index)
	w.mu.Unlock()

	for _, ch := range chans {
		ch <- res
	}
}

// providerSink is the server's gallery.Sink: terminal notifications feed
// the waiter registry, the rest is logged.
type providerSink struct {
	waiters *pageWaiters
	logger  *slog.Logger
}

var _ gallery.Sink = (*providerSink)(nil)

func (s *providerSink) StateChanged() {
	s.logger.Info("gallery state changed")
}

func (s *providerSink) PageWaiting(index int) {
	s.logger.Debug("page request queued", "index", index)
}

func (s *providerSink) PageSucceeded(index int, img image.Image) {
	s.waiters.deliver(index, pageResult{img: img})
}

func (s *providerSink) PageFailed(index int, reason gallery.FailReason) {
	s.waiters.deliver(index, pageResult{failed: true, reason: reason})
}
