package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/TrentConley/face-authentication/internal/gallery"
)

func TestInsertRequiresIdentity(t *testing.T) {
	s := New()
	err := s.Insert(context.Background(), gallery.Entry{Embedding: []float32{1, 0}})
	if !errors.Is(err, gallery.ErrEmptyIdentity) {
		t.Fatalf("error = %v, want ErrEmptyIdentity", err)
	}
}

func TestInsertCopiesEmbedding(t *testing.T) {
	s := New()
	ctx := context.Background()

	emb := []float32{1, 0, 0}
	if err := s.Insert(ctx, gallery.Entry{Identity: "alice", Embedding: emb}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	emb[0] = -1 // caller mutates its slice after insert

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if all[0].Embedding[0] != 1 {
		t.Errorf("stored embedding mutated through caller slice")
	}
}

func TestFindNearestOrdersByDistance(t *testing.T) {
	s := New()
	ctx := context.Background()

	mustInsert(t, s, "far", []float32{0, 1, 0})
	mustInsert(t, s, "near", []float32{0.99, 0.01, 0})
	mustInsert(t, s, "mid", []float32{0.6, 0.4, 0})

	entries, distances, err := s.FindNearest(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("FindNearest: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Identity != "near" {
		t.Errorf("nearest = %q, want near", entries[0].Identity)
	}
	if distances[0] > distances[1] {
		t.Errorf("distances not ascending: %v", distances)
	}
}

func TestFindNearestSelfDistanceZero(t *testing.T) {
	s := New()
	ctx := context.Background()

	emb := []float32{0.1, 0.5, 0.3}
	mustInsert(t, s, "alice", emb)

	_, distances, err := s.FindNearest(ctx, emb, 1)
	if err != nil {
		t.Fatalf("FindNearest: %v", err)
	}
	if len(distances) != 1 || math.Abs(distances[0]) > 1e-9 {
		t.Errorf("self distance = %v, want 0", distances)
	}
}

func TestFindNearestEmptyStore(t *testing.T) {
	s := New()
	entries, distances, err := s.FindNearest(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("FindNearest: %v", err)
	}
	if len(entries) != 0 || len(distances) != 0 {
		t.Errorf("empty store returned %d entries", len(entries))
	}
}

func TestIdentitiesAggregatesSamples(t *testing.T) {
	s := New()
	ctx := context.Background()

	mustInsert(t, s, "alice", []float32{1, 0})
	mustInsert(t, s, "alice", []float32{0.9, 0.1})
	mustInsert(t, s, "bob", []float32{0, 1})

	sums, err := s.Identities(ctx)
	if err != nil {
		t.Fatalf("Identities: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("got %d identities, want 2", len(sums))
	}
	if sums[0].Identity != "alice" || sums[0].Samples != 2 {
		t.Errorf("alice summary = %+v, want 2 samples", sums[0])
	}
	if sums[1].Identity != "bob" || sums[1].Samples != 1 {
		t.Errorf("bob summary = %+v, want 1 sample", sums[1])
	}
}

func TestDeleteIdentityNormalized(t *testing.T) {
	s := New()
	ctx := context.Background()

	mustInsert(t, s, "Jiří Novák", []float32{1, 0})
	mustInsert(t, s, "Jiří Novák", []float32{0.9, 0.1})
	mustInsert(t, s, "bob", []float32{0, 1})

	removed, err := s.DeleteIdentity(ctx, "jiri-novak")
	if err != nil {
		t.Fatalf("DeleteIdentity: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	// Deleted entries must not resurface through the HNSW index.
	entries, _, err := s.FindNearest(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("FindNearest: %v", err)
	}
	for _, e := range entries {
		if e.Identity != "bob" {
			t.Errorf("deleted identity %q still returned by FindNearest", e.Identity)
		}
	}
}

func TestConcurrentInsertAndQuery(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			entry := gallery.Entry{Identity: fmt.Sprintf("person-%d", i), Embedding: []float32{float32(i), 1, 0}}
			if err := s.Insert(ctx, entry); err != nil {
				t.Errorf("Insert: %v", err)
			}
		}(i)
		go func() {
			defer wg.Done()
			entries, _, err := s.FindNearest(ctx, []float32{1, 1, 0}, 3)
			if err != nil {
				t.Errorf("FindNearest: %v", err)
			}
			// A racing query may see or miss inserts, but every returned
			// embedding must be fully readable.
			for _, e := range entries {
				if len(e.Embedding) != 3 {
					t.Errorf("partially read embedding: %v", e.Embedding)
				}
			}
		}()
	}
	wg.Wait()

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 20 {
		t.Errorf("count = %d, want 20", count)
	}
}

func mustInsert(t *testing.T, s *Store, identity string, emb []float32) {
	t.Helper()
	if err := s.Insert(context.Background(), gallery.Entry{Identity: identity, Embedding: emb}); err != nil {
		t.Fatalf("Insert(%s): %v", identity, err)
	}
}
