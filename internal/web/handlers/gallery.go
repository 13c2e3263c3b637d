package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TrentConley/face-authentication/internal/extractor"
	"github.com/TrentConley/face-authentication/internal/gallery"
)

// maxUploadSize caps registration uploads at 16 MiB.
const maxUploadSize = 16 << 20

// GalleryHandler manages registered identities.
type GalleryHandler struct {
	deps Deps
}

// NewGalleryHandler creates a gallery handler.
func NewGalleryHandler(deps Deps) *GalleryHandler {
	return &GalleryHandler{deps: deps}
}

// List handles GET /api/v1/gallery.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	identities, err := h.deps.Store.Identities(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "listing identities: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"identities": identities,
		"count":      len(identities),
	})
}

// Register handles POST /api/v1/gallery/{identity}. It expects a
// multipart form with an "image" file, extracts the most confident face
// and stores its embedding under the normalized identity.
func (h *GalleryHandler) Register(w http.ResponseWriter, r *http.Request) {
	identity := gallery.NormalizeIdentity(chi.URLParam(r, "identity"))
	if identity == "" {
		respondError(w, http.StatusBadRequest, "identity must not be empty")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing image file: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "reading image: "+err.Error())
		return
	}

	faces, err := h.deps.Detector.Detect(r.Context(), data)
	if err != nil {
		respondError(w, http.StatusBadGateway, "face extraction failed: "+err.Error())
		return
	}
	face, ok := extractor.BestFace(faces)
	if !ok {
		respondError(w, http.StatusUnprocessableEntity, "no face found in image")
		return
	}
	if h.deps.Dim > 0 && face.Dim != h.deps.Dim {
		respondError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("embedding dimension %d does not match configured %d", face.Dim, h.deps.Dim))
		return
	}

	entry := gallery.Entry{
		Identity:  identity,
		Embedding: face.Embedding,
		Model:     h.deps.Model,
		Dim:       face.Dim,
	}
	if err := h.deps.Store.Insert(r.Context(), entry); err != nil {
		respondError(w, http.StatusInternalServerError, "storing embedding: "+err.Error())
		return
	}

	log.Printf("Registered face for %s (det score %.2f)", sanitizeForLog(identity), face.DetScore)
	respondJSON(w, http.StatusCreated, map[string]any{
		"identity":  identity,
		"det_score": face.DetScore,
		"dim":       face.Dim,
	})
}

// Delete handles DELETE /api/v1/gallery/{identity}.
func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := gallery.NormalizeIdentity(chi.URLParam(r, "identity"))
	if identity == "" {
		respondError(w, http.StatusBadRequest, "identity must not be empty")
		return
	}

	deleted, err := h.deps.Store.DeleteIdentity(r.Context(), identity)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "deleting identity: "+err.Error())
		return
	}
	if deleted == 0 {
		respondError(w, http.StatusNotFound, "identity not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"identity": identity,
		"deleted":  deleted,
	})
}
