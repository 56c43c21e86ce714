package gallery

import (
	"sync"
	"testing"
	"time"
)

func TestQueue_LIFOOrder(t *testing.T) {
	q := newRequestQueue()
	stop := make(chan struct{})
	defer close(stop)

	for _, index := range []int{1, 2, 3} {
		if !q.submit(index) {
			t.Fatalf("submit(%d) was rejected", index)
		}
	}

	// Most recently submitted comes out first, earlier ones stay pending.
	for _, want := range []int{3, 2, 1} {
		got, ok := q.pop(stop)
		if !ok {
			t.Fatal("pop returned !ok with items pending")
		}
		if got != want {
			t.Errorf("pop = %d, want %d", got, want)
		}
		q.clearInFlight()
	}

	if q.depth() != 0 {
		t.Errorf("expected empty queue, depth = %d", q.depth())
	}
}

func TestQueue_NoDuplicates(t *testing.T) {
	q := newRequestQueue()

	if !q.submit(5) {
		t.Fatal("first submit rejected")
	}
	if q.submit(5) {
		t.Error("duplicate submit of queued index was accepted")
	}
	if q.depth() != 1 {
		t.Errorf("depth = %d, want 1", q.depth())
	}
}

func TestQueue_SubmitOfInFlightDropped(t *testing.T) {
	q := newRequestQueue()
	stop := make(chan struct{})
	defer close(stop)

	q.submit(7)
	index, ok := q.pop(stop)
	if !ok || index != 7 {
		t.Fatalf("pop = %d, %v", index, ok)
	}

	// 7 is now in flight, not queued; a re-submit must be dropped.
	if q.submit(7) {
		t.Error("submit of in-flight index was accepted")
	}

	q.clearInFlight()
	if !q.submit(7) {
		t.Error("submit after clearInFlight was rejected")
	}
}

func TestQueue_Cancel(t *testing.T) {
	q := newRequestQueue()

	q.submit(1)
	q.submit(2)

	if !q.cancel(1) {
		t.Error("cancel of queued index reported false")
	}
	if q.cancel(1) {
		t.Error("cancel of absent index reported true")
	}
	if q.depth() != 1 {
		t.Errorf("depth = %d, want 1", q.depth())
	}
}

func TestQueue_CancelOfInFlightIsNoOp(t *testing.T) {
	q := newRequestQueue()
	stop := make(chan struct{})
	defer close(stop)

	q.submit(3)
	if _, ok := q.pop(stop); !ok {
		t.Fatal("pop failed")
	}

	if q.cancel(3) {
		t.Error("cancel of in-flight index reported true")
	}
	if q.inFlightIndex() != 3 {
		t.Errorf("inFlightIndex = %d, want 3", q.inFlightIndex())
	}
}

func TestQueue_PopBlocksUntilSubmit(t *testing.T) {
	q := newRequestQueue()
	stop := make(chan struct{})
	defer close(stop)

	got := make(chan int, 1)
	go func() {
		index, ok := q.pop(stop)
		if ok {
			got <- index
		}
	}()

	// Give the popper time to block.
	time.Sleep(20 * time.Millisecond)
	q.submit(9)

	select {
	case index := <-got:
		if index != 9 {
			t.Errorf("pop = %d, want 9", index)
		}
	case <-time.After(time.Second):
		t.Fatal("pop did not wake after submit")
	}
}

func TestQueue_PopReturnsOnStop(t *testing.T) {
	q := newRequestQueue()
	stop := make(chan struct{})

	done := make(chan bool, 1)
	go func() {
		_, ok := q.pop(stop)
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	close(stop)

	select {
	case ok := <-done:
		if ok {
			t.Error("pop reported ok after stop")
		}
	case <-time.After(time.Second):
		t.Fatal("pop did not return after stop")
	}
}

func TestQueue_ConcurrentSubmitsStayDistinct(t *testing.T) {
	q := newRequestQueue()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := 0; index < 50; index++ {
				q.submit(index)
			}
		}()
	}
	wg.Wait()

	if q.depth() != 50 {
		t.Errorf("depth = %d, want 50 distinct indices", q.depth())
	}

	stop := make(chan struct{})
	defer close(stop)
	seen := make(map[int]bool)
	for i := 0; i < 50; i++ {
		index, ok := q.pop(stop)
		if !ok {
			t.Fatal("pop returned !ok")
		}
		if seen[index] {
			t.Fatalf("index %d popped twice", index)
		}
		seen[index] = true
		q.clearInFlight()
	}
}
