package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/TrentConley/face-authentication/internal/extractor"
	"github.com/TrentConley/face-authentication/internal/gallery"
	"github.com/TrentConley/face-authentication/internal/pipeline"
)

// Deps carries the shared dependencies injected into every handler.
type Deps struct {
	Pipeline *pipeline.Pipeline
	Store    gallery.Store
	Detector extractor.Detector
	Model    string
	Dim      int
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
