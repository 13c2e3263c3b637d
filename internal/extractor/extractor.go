// Package extractor wraps the face embedding server: given an encoded
// image frame it returns the detected faces, each with a bounding box and
// a fixed-length embedding vector.
package extractor

import (
	"context"
	"errors"
)

// ErrModelUnavailable indicates the embedding model failed to load on the
// server. This is fatal to the pipeline and is surfaced once at startup.
var ErrModelUnavailable = errors.New("extractor: embedding model unavailable")

// DetectedFace is a single face found in a frame. It is owned by the frame
// that produced it and discarded once the frame has been processed.
type DetectedFace struct {
	Index     int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2] in pixels
	DetScore  float64   `json:"det_score"`
}

// Detector detects faces and extracts their embeddings from encoded images.
// An empty result means no face was found; that is not an error.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]DetectedFace, error)
}

// BestFace returns the detected face with the highest detection score,
// or false when the list is empty. Used by enrollment, which registers
// only the most confident face in a capture.
func BestFace(faces []DetectedFace) (DetectedFace, bool) {
	if len(faces) == 0 {
		return DetectedFace{}, false
	}
	best := faces[0]
	for _, f := range faces[1:] {
		if f.DetScore > best.DetScore {
			best = f
		}
	}
	return best, true
}
