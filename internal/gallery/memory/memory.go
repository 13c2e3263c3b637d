// Package memory provides an in-memory gallery store backed by an HNSW
// graph for nearest-neighbor search. It serves tests and deployments that
// run without PostgreSQL (`run --in-memory`).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coder/hnsw"

	"github.com/TrentConley/face-authentication/internal/gallery"
	"github.com/TrentConley/face-authentication/internal/matcher"
)

const (
	// maxNeighbors (M) is the maximum number of neighbors per HNSW node.
	maxNeighbors = 16
	// searchMultiplier asks HNSW for extra candidates so lookup-filtered
	// (deleted) nodes do not starve the result set.
	searchMultiplier = 3
)

// Store is an in-memory gallery.Store implementation.
type Store struct {
	mu      sync.RWMutex
	entries map[int64]*gallery.Entry
	order   []int64 // insertion order, for deterministic All()
	nextID  int64
	graph   *hnsw.Graph[int64]
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		entries: make(map[int64]*gallery.Entry),
	}
}

// Insert stores a new entry. The embedding is copied, so the entry becomes
// visible to queries atomically and callers may reuse their slice.
func (s *Store) Insert(ctx context.Context, entry gallery.Entry) error {
	if entry.Identity == "" {
		return gallery.ErrEmptyIdentity
	}

	emb := make([]float32, len(entry.Embedding))
	copy(emb, entry.Embedding)
	entry.Embedding = emb
	if entry.Dim == 0 {
		entry.Dim = len(emb)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry.ID = s.nextID

	if s.graph == nil {
		g := hnsw.NewGraph[int64]()
		g.M = maxNeighbors
		g.Ml = 1.0 / float64(maxNeighbors) // Standard HNSW formula
		g.Distance = hnsw.CosineDistance
		s.graph = g
	}
	s.graph.Add(hnsw.MakeNode(entry.ID, entry.Embedding))

	s.entries[entry.ID] = &entry
	s.order = append(s.order, entry.ID)
	return nil
}

// All returns every stored entry in insertion order.
func (s *Store) All(ctx context.Context) ([]gallery.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]gallery.Entry, 0, len(s.order))
	for _, id := range s.order {
		if e, ok := s.entries[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

// FindNearest returns up to k entries closest to the query embedding.
func (s *Store) FindNearest(ctx context.Context, embedding []float32, k int) ([]gallery.Entry, []float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.graph == nil || len(s.entries) == 0 || k <= 0 {
		return nil, nil, nil
	}

	// Deleted identities are filtered by map lookup, so over-request.
	neighbors := s.graph.Search(embedding, k*searchMultiplier)

	entries := make([]gallery.Entry, 0, k)
	distances := make([]float64, 0, k)
	for _, n := range neighbors {
		e, ok := s.entries[n.Key]
		if !ok {
			continue
		}
		entries = append(entries, *e)
		distances = append(distances, matcher.CosineDistance(embedding, n.Value))
		if len(entries) >= k {
			break
		}
	}
	return entries, distances, nil
}

// Count returns the total number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Identities returns a per-identity summary, sorted by identity.
func (s *Store) Identities(ctx context.Context) ([]gallery.IdentitySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byIdentity := make(map[string]*gallery.IdentitySummary)
	for _, id := range s.order {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		sum, ok := byIdentity[e.Identity]
		if !ok {
			sum = &gallery.IdentitySummary{Identity: e.Identity}
			byIdentity[e.Identity] = sum
		}
		sum.Samples++
		if e.CreatedAt.After(sum.LastAdded) {
			sum.LastAdded = e.CreatedAt
		}
	}

	out := make([]gallery.IdentitySummary, 0, len(byIdentity))
	for _, sum := range byIdentity {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}

// DeleteIdentity removes all entries whose normalized identity matches.
// HNSW does not support true deletion; removed entries are filtered out
// of search results by the entries map lookup.
func (s *Store) DeleteIdentity(ctx context.Context, identity string) (int64, error) {
	want := gallery.NormalizeIdentity(identity)

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, e := range s.entries {
		if gallery.NormalizeIdentity(e.Identity) == want {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}
