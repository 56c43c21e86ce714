package gallery

import (
	"sync"
	"sync/atomic"
)

// noIndex marks the in-flight slot as empty.
const noIndex = -1

// requestQueue holds the distinct pending page indices in LIFO order: the
// most recently submitted, not-yet-served index is served next, and every
// earlier index stays pending until served or cancelled.
//
// The in-flight slot is synchronized independently of the queue lock.
// submit reads it without coordination with the worker's clear, so a
// duplicate submit can, rarely, slip through while the same index is
// decoding. The worst case is one redundant decode; each accepted request
// still gets exactly one terminal notification.
type requestQueue struct {
	mu      sync.Mutex
	pending []int

	// notify wakes the worker after a push; buffered so submit never blocks.
	notify chan struct{}

	inFlight atomic.Int64
}

func newRequestQueue() *requestQueue {
	q := &requestQueue{
		notify: make(chan struct{}, 1),
	}
	q.inFlight.Store(noIndex)
	return q
}

// submit adds index unless it is already queued or currently decoding.
// Returns true if the index was added.
func (q *requestQueue) submit(index int) bool {
	if int64(index) == q.inFlight.Load() {
		return false
	}

	q.mu.Lock()
	for _, v := range q.pending {
		if v == index {
			q.mu.Unlock()
			return false
		}
	}
	q.pending = append(q.pending, index)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
		// A wakeup is already pending.
	}
	return true
}

// cancel removes index from the queue if it is still pending.
// An in-flight or absent index is left untouched.
func (q *requestQueue) cancel(index int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, v := range q.pending {
		if v == index {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

// pop blocks until an index is available or stop is closed. The returned
// index is marked in-flight before the queue lock is released, so a
// concurrent submit for it is deduplicated. Returns false if stop closed
// while waiting.
func (q *requestQueue) pop(stop <-chan struct{}) (int, bool) {
	for {
		q.mu.Lock()
		if n := len(q.pending); n > 0 {
			index := q.pending[n-1]
			q.pending = q.pending[:n-1]
			q.inFlight.Store(int64(index))
			q.mu.Unlock()
			return index, true
		}
		q.mu.Unlock()

		select {
		case <-stop:
			return 0, false
		case <-q.notify:
			// An index may have been pushed; loop to check.
		}
	}
}

// clearInFlight empties the in-flight slot.
func (q *requestQueue) clearInFlight() {
	q.inFlight.Store(noIndex)
}

// inFlightIndex returns the index currently decoding, or noIndex.
func (q *requestQueue) inFlightIndex() int {
	return int(q.inFlight.Load())
}

// depth returns the number of pending indices.
func (q *requestQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
