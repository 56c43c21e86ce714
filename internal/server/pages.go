package server

import (
	"image/png"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/pageflip/pageflip/internal/gallery"
	"github.com/pageflip/pageflip/internal/messages"
)

// GalleryResponse describes the provider's collection state.
type GalleryResponse struct {
	State      string `json:"state"`
	PageCount  int    `json:"page_count"`
	QueueDepth int    `json:"queue_depth"`
	Error      string `json:"error,omitempty"`
}

// handleGallery returns the current gallery state.
func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	snap := s.provider.Snapshot()
	resp := GalleryResponse{
		State:      snap.State.String(),
		PageCount:  snap.PageCount,
		QueueDepth: s.provider.QueueDepth(),
	}
	if snap.Err != nil {
		resp.Error = messages.InvalidPath
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePageImage submits the index to the provider, waits for its
// terminal notification, and streams the decoded page back as PNG.
// A disconnected client cancels the pending request.
func (s *Server) handlePageImage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	log := s.logger.With("request_id", uuid.NewString(), "index", index)

	switch snap := s.provider.Snapshot(); {
	case snap.State == gallery.StateError:
		writeError(w, http.StatusServiceUnavailable, messages.InvalidPath)
		return
	case snap.State == gallery.StateWaiting:
		writeError(w, http.StatusServiceUnavailable, "gallery is still listing")
		return
	case snap.PageCount == 0:
		// The worker exits after an empty listing; nothing can be served.
		writeError(w, http.StatusNotFound, "gallery is empty")
		return
	}

	ch := s.waiters.register(index)
	s.provider.Request(index)

	select {
	case res := <-ch:
		if res.failed {
			log.Warn("page request failed", "reason", res.reason)
			status := http.StatusInternalServerError
			if res.reason == gallery.FailOutOfRange {
				status = http.StatusNotFound
			}
			writeError(w, status, messages.ForReason(res.reason))
			return
		}

		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, res.img); err != nil {
			log.Error("failed to write page image", "error", err)
		}

	case <-r.Context().Done():
		// Concurrent requests for the same index share one queue entry,
		// so only cancel once the last waiter has walked away.
		if s.waiters.unregister(index, ch) == 0 {
			s.provider.CancelRequest(index)
		}
		log.Debug("page request abandoned by client")
	}
}
