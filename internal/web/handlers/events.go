package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// EventsHandler streams authentication events over SSE.
type EventsHandler struct {
	deps Deps
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(deps Deps) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// Stream handles GET /api/v1/events. Each authentication event becomes
// one SSE message; the stream ends when the client disconnects or the
// pipeline shuts down.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.deps.Pipeline == nil {
		respondError(w, http.StatusServiceUnavailable, "pipeline is not running")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	broadcaster := h.deps.Pipeline.Events()
	eventCh := broadcaster.AddListener()
	defer broadcaster.RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "connected", map[string]string{"status": "listening"})

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, "authenticated", event)
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
