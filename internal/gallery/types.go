// Package gallery defines the registered-face gallery: identity-labeled
// embedding records and the storage contract for inserting them and
// answering nearest-neighbor queries.
package gallery

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyIdentity is returned when an entry carries no identity label.
var ErrEmptyIdentity = errors.New("gallery: identity must not be empty")

// Entry is a single registered (identity, embedding) record.
// Identity uniqueness is not enforced: multiple enrollment samples per
// person are legal, and a match against any of them resolves to that identity.
type Entry struct {
	ID        int64
	Identity  string
	Embedding []float32
	Model     string
	Dim       int
	CreatedAt time.Time
}

// IdentitySummary aggregates the gallery entries registered for one identity.
type IdentitySummary struct {
	Identity  string    `json:"identity"`
	Samples   int       `json:"samples"`
	LastAdded time.Time `json:"last_added"`
}

// Store persists gallery entries and answers similarity queries.
// Inserts may race queries: a query may see or miss a concurrent insert,
// but never observes a partially written embedding.
type Store interface {
	// Insert stores a new entry. The entry's Identity must be non-empty.
	Insert(ctx context.Context, entry Entry) error
	// All returns every stored entry.
	All(ctx context.Context) ([]Entry, error)
	// FindNearest returns up to k entries closest to the query embedding
	// by cosine distance, together with their distances, nearest first.
	FindNearest(ctx context.Context, embedding []float32, k int) ([]Entry, []float64, error)
	// Count returns the total number of stored entries.
	Count(ctx context.Context) (int, error)
	// Identities returns a per-identity summary of the gallery.
	Identities(ctx context.Context) ([]IdentitySummary, error)
	// DeleteIdentity removes all entries for an identity and reports how many.
	DeleteIdentity(ctx context.Context, identity string) (int64, error)
}
