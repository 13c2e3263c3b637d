//go:build integration

package postgres

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/TrentConley/face-authentication/internal/config"
	"github.com/TrentConley/face-authentication/internal/gallery"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	// Run migrations
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

// embedding512 builds a 512-dim unit-ish vector with the given leading values.
func embedding512(lead ...float32) []float32 {
	emb := make([]float32, 512)
	copy(emb, lead)
	return emb
}

func TestGalleryRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewGalleryRepository(pool)

	t.Run("insert and count", func(t *testing.T) {
		entries := []gallery.Entry{
			{Identity: "alice", Embedding: embedding512(1, 0), Model: "buffalo_l"},
			{Identity: "alice", Embedding: embedding512(0.9, 0.1), Model: "buffalo_l"},
			{Identity: "Jiří Novák", Embedding: embedding512(0, 1), Model: "buffalo_l"},
		}
		for _, e := range entries {
			if err := repo.Insert(ctx, e); err != nil {
				t.Fatalf("Insert(%s): %v", e.Identity, err)
			}
		}

		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if count != 3 {
			t.Errorf("count = %d, want 3", count)
		}
	})

	t.Run("insert rejects empty identity", func(t *testing.T) {
		err := repo.Insert(ctx, gallery.Entry{Embedding: embedding512(1)})
		if err != gallery.ErrEmptyIdentity {
			t.Errorf("error = %v, want ErrEmptyIdentity", err)
		}
	})

	t.Run("find nearest", func(t *testing.T) {
		entries, distances, err := repo.FindNearest(ctx, embedding512(1, 0), 2)
		if err != nil {
			t.Fatalf("FindNearest: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("got %d entries, want 2", len(entries))
		}
		if entries[0].Identity != "alice" {
			t.Errorf("nearest = %q, want alice", entries[0].Identity)
		}
		if math.Abs(distances[0]) > 1e-6 {
			t.Errorf("self distance = %v, want ~0", distances[0])
		}
		if len(entries[0].Embedding) != 512 {
			t.Errorf("embedding dim = %d, want 512", len(entries[0].Embedding))
		}
	})

	t.Run("identities summary", func(t *testing.T) {
		sums, err := repo.Identities(ctx)
		if err != nil {
			t.Fatalf("Identities: %v", err)
		}
		if len(sums) != 2 {
			t.Fatalf("got %d identities, want 2", len(sums))
		}
		samples := make(map[string]int, len(sums))
		for _, s := range sums {
			samples[s.Identity] = s.Samples
		}
		if samples["alice"] != 2 {
			t.Errorf("alice samples = %d, want 2", samples["alice"])
		}
		if samples["Jiří Novák"] != 1 {
			t.Errorf("Jiří Novák samples = %d, want 1", samples["Jiří Novák"])
		}
	})

	t.Run("delete identity normalized", func(t *testing.T) {
		removed, err := repo.DeleteIdentity(ctx, "jiri-novak")
		if err != nil {
			t.Fatalf("DeleteIdentity: %v", err)
		}
		if removed != 1 {
			t.Errorf("removed = %d, want 1", removed)
		}

		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if count != 2 {
			t.Errorf("count after delete = %d, want 2", count)
		}
	})
}
