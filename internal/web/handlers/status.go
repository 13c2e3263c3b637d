package handlers

import (
	"context"
	"net/http"
	"time"
)

// StatusHandler reports the live pipeline and gallery state.
type StatusHandler struct {
	deps Deps
}

// NewStatusHandler creates a status handler.
func NewStatusHandler(deps Deps) *StatusHandler {
	return &StatusHandler{deps: deps}
}

type statusResponse struct {
	Pipeline       any    `json:"pipeline"`
	GallerySize    int    `json:"gallery_size"`
	ExtractorModel string `json:"extractor_model"`
	EmbeddingDim   int    `json:"embedding_dim"`
	ExtractorUp    bool   `json:"extractor_up"`
}

// Get handles GET /api/v1/status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := h.deps.Store.Count(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "counting gallery entries: "+err.Error())
		return
	}

	resp := statusResponse{
		GallerySize:    count,
		ExtractorModel: h.deps.Model,
		EmbeddingDim:   h.deps.Dim,
	}
	if h.deps.Pipeline != nil {
		resp.Pipeline = h.deps.Pipeline.Stats()
	}
	if pinger, ok := h.deps.Detector.(interface{ Ping(context.Context) error }); ok {
		resp.ExtractorUp = pinger.Ping(ctx) == nil
	}

	respondJSON(w, http.StatusOK, resp)
}
