// Package gallery implements the on-demand page decode scheduler.
//
// A Provider owns a single background goroutine that lists the underlying
// source once, then serves decode requests from a LIFO queue of distinct
// page indices, reporting each outcome through a Sink.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pageflip/pageflip/internal/decode"
	"github.com/pageflip/pageflip/internal/source"
)

// ErrInvalidSource is the fatal listing error. Once set, the provider
// serves no requests; recovery requires a new Provider.
var ErrInvalidSource = errors.New("invalid path")

// State is the provider's collection state.
type State int

const (
	// StateWaiting means listing has not finished yet.
	StateWaiting State = iota
	// StateReady means listing succeeded and the page count is known.
	StateReady
	// StateError means listing failed; the provider is permanently dead.
	StateError
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is an immutable view of the provider's collection state.
// PageCount is meaningful only when State is StateReady.
type Snapshot struct {
	State     State
	PageCount int
	Err       error
}

// Config configures a new Provider.
type Config struct {
	// Source enumerates the page collection. Required.
	Source source.Source

	// Sink receives provider events. Required.
	Sink Sink

	// Decoder turns page byte streams into images.
	// Defaults to decode.ImageDecoder.
	Decoder decode.Decoder

	// Accept filters listed names. Defaults to source.AcceptDefault.
	Accept func(name string) bool

	Logger *slog.Logger
}

// Provider serves decoded page images on demand. All exported methods are
// safe for concurrent use; decoding itself happens on one background
// goroutine, so at most one decode is ever in flight.
type Provider struct {
	src    source.Source
	dec    decode.Decoder
	sink   Sink
	accept func(string) bool
	logger *slog.Logger

	queue *requestQueue
	state atomic.Pointer[Snapshot]

	// entries is written once by the worker during listing and read only
	// by the worker afterwards.
	entries []source.Entry

	quit     chan struct{}
	stopOnce sync.Once
	exited   chan struct{}

	startMu sync.Mutex
	started bool
}

// New creates a Provider. The worker does not run until Start is called.
func New(cfg Config) (*Provider, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("must provide a Source")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("must provide a Sink")
	}
	if cfg.Decoder == nil {
		cfg.Decoder = decode.ImageDecoder{}
	}
	if cfg.Accept == nil {
		cfg.Accept = source.AcceptDefault
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p := &Provider{
		src:    cfg.Source,
		dec:    cfg.Decoder,
		sink:   cfg.Sink,
		accept: cfg.Accept,
		logger: cfg.Logger.With("component", "gallery"),
		queue:  newRequestQueue(),
		quit:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	p.state.Store(&Snapshot{State: StateWaiting})
	return p, nil
}

// Start launches the background worker. Subsequent calls are no-ops.
// Cancelling ctx stops the provider the same way Stop does.
func (p *Provider) Start(ctx context.Context) {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if p.started {
		return
	}
	p.started = true

	go p.run()
	go func() {
		select {
		case <-ctx.Done():
			p.Stop()
		case <-p.exited:
		}
	}()
}

// Stop asks the worker to exit and returns without waiting for it.
// A decode already in progress runs to completion and its terminal
// notification is still delivered.
func (p *Provider) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
	})
}

// Request submits index for decoding. Duplicates of a queued or currently
// decoding index are dropped. When the index is accepted into the queue,
// the sink's PageWaiting fires before Request returns.
func (p *Provider) Request(index int) {
	if p.queue.submit(index) {
		p.sink.PageWaiting(index)
	}
}

// CancelRequest removes index from the queue if it has not started
// decoding. Cancelling an in-flight or unknown index has no effect;
// a cancelled pending request produces no notifications.
func (p *Provider) CancelRequest(index int) {
	p.queue.cancel(index)
}

// Snapshot returns the current collection state.
func (p *Provider) Snapshot() Snapshot {
	return *p.state.Load()
}

// PageCount returns the number of pages, or 0 before listing completes.
func (p *Provider) PageCount() int {
	snap := p.state.Load()
	if snap.State != StateReady {
		return 0
	}
	return snap.PageCount
}

// Err returns the fatal listing error, or nil.
func (p *Provider) Err() error {
	return p.state.Load().Err
}

// QueueDepth returns the number of pending requests.
func (p *Provider) QueueDepth() int {
	return p.queue.depth()
}

// run is the worker: list once, publish the collection state, then serve
// the request loop until stopped.
func (p *Provider) run() {
	defer close(p.exited)

	entries, err := p.src.List(p.accept)
	if err != nil {
		p.state.Store(&Snapshot{
			State: StateError,
			Err:   fmt.Errorf("%w: %v", ErrInvalidSource, err),
		})
		p.logger.Error("listing failed", "error", err)
		p.sink.StateChanged()
		return
	}

	source.SortByName(entries)
	p.entries = entries
	p.state.Store(&Snapshot{State: StateReady, PageCount: len(entries)})
	p.logger.Info("gallery ready", "pages", len(entries))
	p.sink.StateChanged()

	// An empty listing ends the worker here; requests submitted after
	// this point are silently ignored.
	if len(entries) == 0 {
		return
	}

	for {
		select {
		case <-p.quit:
			return
		default:
		}

		index, ok := p.queue.pop(p.quit)
		if !ok {
			return
		}

		if index < 0 || index >= len(p.entries) {
			p.queue.clearInFlight()
			p.sink.PageFailed(index, FailOutOfRange)
			continue
		}

		img, reason := p.decodeEntry(p.entries[index])
		p.queue.clearInFlight()
		if reason != "" {
			p.logger.Warn("page failed", "index", index, "reason", reason)
			p.sink.PageFailed(index, reason)
			continue
		}
		p.sink.PageSucceeded(index, img)
	}
}

// decodeEntry opens and decodes one entry. The stream is closed on every
// exit path. A failure of the underlying reader maps to FailRead even
// when it surfaces through the decoder.
func (p *Provider) decodeEntry(entry source.Entry) (image.Image, FailReason) {
	rc, err := entry.Open()
	if err != nil {
		return nil, FailRead
	}
	defer rc.Close()

	tracker := &readTracker{r: rc}
	img, err := p.dec.Decode(tracker)
	switch {
	case err != nil && tracker.err != nil:
		return nil, FailRead
	case err != nil || img == nil:
		return nil, FailDecode
	}
	return img, ""
}

// readTracker remembers whether the wrapped reader itself failed, so
// read errors can be told apart from malformed image data.
type readTracker struct {
	r   io.Reader
	err error
}

func (t *readTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}
