package cmd

import (
	"errors"
	"fmt"

	"github.com/TrentConley/face-authentication/internal/config"
	"github.com/TrentConley/face-authentication/internal/gallery"
	"github.com/TrentConley/face-authentication/internal/gallery/memory"
	"github.com/TrentConley/face-authentication/internal/gallery/postgres"
)

// openStore opens the gallery backend: PostgreSQL (with migrations
// applied) unless inMemory is set. The returned closer is a no-op for
// the in-memory store.
func openStore(cfg *config.Config, inMemory bool) (gallery.Store, func(), error) {
	if inMemory {
		fmt.Println("Using in-memory gallery (embeddings are lost on exit)")
		return memory.New(), func() {}, nil
	}

	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required (or use --in-memory)")
	}

	fmt.Println("Connecting to PostgreSQL database...")
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	closer := func() {
		if err := pool.Close(); err != nil {
			fmt.Printf("Warning: closing database pool: %v\n", err)
		}
	}
	return postgres.NewGalleryRepository(pool), closer, nil
}
