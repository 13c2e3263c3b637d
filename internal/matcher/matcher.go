// Package matcher classifies a query face embedding against the gallery:
// it finds the nearest entry by cosine distance and accepts or rejects it
// against a fixed threshold. Matching is a pure function of its inputs,
// which keeps it testable without a detector or a database.
package matcher

import (
	"errors"
	"fmt"

	"github.com/TrentConley/face-authentication/internal/gallery"
)

// ErrEmptyGallery is returned when there are no entries to match against.
// Callers should treat it as "no match" rather than a hard failure, but it
// is signaled distinctly so it can be logged apart from a threshold rejection.
var ErrEmptyGallery = errors.New("matcher: gallery is empty")

// DimensionMismatchError reports an embedding whose dimension differs from
// the query's. Mismatched dimensions are never compared silently.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("matcher: embedding dimension mismatch: query has %d, gallery entry has %d", e.Want, e.Got)
}

// Result is the outcome of matching one query embedding against the gallery.
// Identity is empty and OK false when no entry is within the threshold;
// Distance still carries the best distance found, for diagnostics.
type Result struct {
	Identity string
	OK       bool
	Distance float64
}

// Match finds the gallery entry nearest to query by cosine distance and
// accepts it when the distance is at or below threshold. Ties keep the
// first entry encountered in gallery iteration order.
func Match(query []float32, entries []gallery.Entry, threshold float64) (Result, error) {
	if len(entries) == 0 {
		return Result{Distance: 2.0}, ErrEmptyGallery
	}

	best := Result{Distance: 2.0}
	bestIdentity := ""
	first := true

	for i := range entries {
		emb := entries[i].Embedding
		if len(emb) != len(query) {
			return Result{}, &DimensionMismatchError{Want: len(query), Got: len(emb)}
		}

		d := CosineDistance(query, emb)
		if first || d < best.Distance {
			best.Distance = d
			bestIdentity = entries[i].Identity
			first = false
		}
	}

	if best.Distance <= threshold {
		best.Identity = bestIdentity
		best.OK = true
	}
	return best, nil
}
