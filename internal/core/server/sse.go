package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printlijst/printlijst/internal/logstream"
	"github.com/printlijst/printlijst/internal/sync"
)

// handleSyncLogs streams the log of one sync kind as server-sent events.
// The buffered history is replayed first so a client that connects after
// the run started still sees the full log.
func (s *Server) handleSyncLogs(w http.ResponseWriter, r *http.Request) {
	kind := sync.Kind(chi.URLParam(r, "kind"))
	switch kind {
	case sync.KindOrders, sync.KindStatus, sync.KindTags, sync.KindPriorities:
	default:
		respondError(w, http.StatusNotFound, "unknown sync kind")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	stream := s.syncer.Stream(kind)
	history, entries, cancel := stream.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, entry := range history {
		writeEvent(w, entry)
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			writeEvent(w, entry)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, entry logstream.Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
