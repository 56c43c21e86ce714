package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pageflip/pageflip/internal/decode"
	"github.com/pageflip/pageflip/internal/source"
)

// gateDecoder blocks each decode until a token is sent on release, so
// tests can hold the worker mid-decode while requests pile up.
type gateDecoder struct {
	inner   decode.ImageDecoder
	started chan struct{}
	release chan struct{}
}

func newGateDecoder() *gateDecoder {
	return &gateDecoder{
		started: make(chan struct{}, 16),
		release: make(chan struct{}, 16),
	}
}

func (d *gateDecoder) Decode(r io.Reader) (image.Image, error) {
	d.started <- struct{}{}
	<-d.release
	return d.inner.Decode(r)
}

func (d *gateDecoder) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-d.started:
	case <-time.After(5 * time.Second):
		t.Fatal("decoder was never entered")
	}
}

// newTestServer builds a server over dir and exposes it via httptest.
// The provider worker runs for the duration of the test.
func newTestServer(t *testing.T, dir string) *httptest.Server {
	t.Helper()
	return newTestServerWith(t, dir, nil)
}

func newTestServerWith(t *testing.T, dir string, dec decode.Decoder) *httptest.Server {
	t.Helper()

	s, err := New(Config{
		Source:  source.NewDirSource(dir),
		Decoder: dec,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s.provider.Start(ctx)

	ts := httptest.NewServer(s.httpServer.Handler)
	t.Cleanup(ts.Close)

	// Wait for listing to finish.
	deadline := time.Now().Add(5 * time.Second)
	for {
		var resp GalleryResponse
		getJSON(t, ts.URL+"/api/gallery", &resp)
		if resp.State != "waiting" {
			return ts
		}
		if time.Now().After(deadline) {
			t.Fatal("gallery never left the waiting state")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decoding %s response: %v", url, err)
		}
	}
	return resp.StatusCode
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	var resp HealthResponse
	if status := getJSON(t, ts.URL+"/health", &resp); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %s", resp.Status)
	}
}

func TestServer_GalleryState(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	writePNG(t, filepath.Join(dir, "b.png"))
	ts := newTestServer(t, dir)

	var resp GalleryResponse
	getJSON(t, ts.URL+"/api/gallery", &resp)
	if resp.State != "ready" {
		t.Fatalf("state = %s, want ready", resp.State)
	}
	if resp.PageCount != 2 {
		t.Errorf("page_count = %d, want 2", resp.PageCount)
	}
}

func TestServer_PageImage(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	ts := newTestServer(t, dir)

	resp, err := http.Get(ts.URL + "/api/pages/0/image")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %s", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("response is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("bounds = %v", img.Bounds())
	}
}

func TestServer_PageImageFailures(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	if err := os.WriteFile(filepath.Join(dir, "b.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, dir)

	// Out of range maps to 404.
	if status := getJSON(t, ts.URL+"/api/pages/99/image", nil); status != http.StatusNotFound {
		t.Errorf("out-of-range status = %d, want 404", status)
	}

	// Undecodable page maps to 500 with the display message.
	var errResp ErrorResponse
	if status := getJSON(t, ts.URL+"/api/pages/1/image", &errResp); status != http.StatusInternalServerError {
		t.Errorf("decode-failure status = %d, want 500", status)
	}
	if errResp.Error != "decoding failed" {
		t.Errorf("error = %q", errResp.Error)
	}

	// Bad index is rejected before reaching the provider.
	if status := getJSON(t, ts.URL+"/api/pages/abc/image", nil); status != http.StatusBadRequest {
		t.Errorf("bad-index status = %d, want 400", status)
	}
}

func TestServer_EmptyGallery(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	var resp GalleryResponse
	getJSON(t, ts.URL+"/api/gallery", &resp)
	if resp.State != "ready" || resp.PageCount != 0 {
		t.Fatalf("gallery = %+v", resp)
	}

	if status := getJSON(t, ts.URL+"/api/pages/0/image", nil); status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}

func TestServer_InvalidSource(t *testing.T) {
	ts := newTestServer(t, filepath.Join(t.TempDir(), "missing"))

	var resp GalleryResponse
	getJSON(t, ts.URL+"/api/gallery", &resp)
	if resp.State != "error" {
		t.Fatalf("state = %s, want error", resp.State)
	}
	if resp.Error != "invalid path" {
		t.Errorf("error = %q", resp.Error)
	}

	if status := getJSON(t, ts.URL+"/api/pages/0/image", nil); status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", status)
	}
}

// Two clients waiting on the same page share one queue entry. When one
// of them disconnects, the other must still receive the page.
func TestServer_CoWaiterSurvivesDisconnect(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	writePNG(t, filepath.Join(dir, "b.png"))
	dec := newGateDecoder()
	ts := newTestServerWith(t, dir, dec)

	// Hold the worker on page 1 so requests for page 0 stay queued.
	occupied := make(chan struct{})
	go func() {
		defer close(occupied)
		resp, err := http.Get(ts.URL + "/api/pages/1/image")
		if err != nil {
			return
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	dec.waitStarted(t)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	aDone := make(chan error, 1)
	go func() {
		req, err := http.NewRequestWithContext(ctxA, http.MethodGet, ts.URL+"/api/pages/0/image", nil)
		if err != nil {
			aDone <- err
			return
		}
		_, err = http.DefaultClient.Do(req)
		aDone <- err
	}()

	bStatus := make(chan int, 1)
	go func() {
		resp, err := http.Get(ts.URL + "/api/pages/0/image")
		if err != nil {
			bStatus <- 0
			return
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		bStatus <- resp.StatusCode
	}()

	// Give both handlers time to register their waiters, then drop A.
	time.Sleep(100 * time.Millisecond)
	cancelA()
	select {
	case err := <-aDone:
		if err == nil {
			t.Fatal("cancelled request returned without error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled request never returned")
	}
	// Let the handler observe the disconnect before the worker frees up.
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 4; i++ {
		dec.release <- struct{}{}
	}

	select {
	case status := <-bStatus:
		if status != http.StatusOK {
			t.Fatalf("surviving client got status %d, want 200", status)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("surviving client never received the page")
	}
	<-occupied
}
