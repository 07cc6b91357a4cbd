package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Events handles GET /api/v1/events: a Server-Sent Events stream with one
// AlertChanged event per alert change.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		WriteError(w, http.StatusNotFound, CodeNotFound, "event stream not enabled")
		return
	}

	events, cancel := h.events.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Warn("event stream cannot flush", "error", err)
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(alertEventResponse{FileID: ev.FileID, AlertID: ev.AlertID, State: ev.State})
			if err != nil {
				h.logger.Error("encoding alert event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: AlertChanged\ndata: %s\n\n", data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
