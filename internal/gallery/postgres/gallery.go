package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/TrentConley/face-authentication/internal/gallery"
)

// GalleryRepository implements gallery.Store on top of PostgreSQL + pgvector.
type GalleryRepository struct {
	pool *Pool
}

// NewGalleryRepository creates a new PostgreSQL gallery repository.
func NewGalleryRepository(pool *Pool) *GalleryRepository {
	return &GalleryRepository{pool: pool}
}

// Insert stores a new gallery entry. A single INSERT keeps the entry
// atomic with respect to concurrent similarity queries.
func (r *GalleryRepository) Insert(ctx context.Context, entry gallery.Entry) error {
	if entry.Identity == "" {
		return gallery.ErrEmptyIdentity
	}
	if entry.Dim == 0 {
		entry.Dim = len(entry.Embedding)
	}

	vec := pgvector.NewVector(entry.Embedding)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO face_embeddings (identity, embedding, model, dim)
		VALUES ($1, $2::vector, $3, $4)
	`, entry.Identity, vec, entry.Model, entry.Dim)
	if err != nil {
		return fmt.Errorf("insert gallery entry: %w", err)
	}
	return nil
}

// All returns every stored entry.
func (r *GalleryRepository) All(ctx context.Context) ([]gallery.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, identity, embedding, model, dim, created_at
		FROM face_embeddings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query gallery: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// FindNearest returns up to k entries closest to the query embedding,
// ordered by cosine distance (pgvector's <=> operator).
func (r *GalleryRepository) FindNearest(ctx context.Context, embedding []float32, k int) ([]gallery.Entry, []float64, error) {
	vec := pgvector.NewVector(embedding)
	rows, err := r.pool.Query(ctx, `
		SELECT id, identity, embedding, model, dim, created_at,
		       embedding <=> $1::vector AS distance
		FROM face_embeddings
		ORDER BY distance
		LIMIT $2
	`, vec, k)
	if err != nil {
		return nil, nil, fmt.Errorf("query nearest entries: %w", err)
	}
	defer rows.Close()

	var entries []gallery.Entry
	var distances []float64
	for rows.Next() {
		var e gallery.Entry
		var vec pgvector.Vector
		var dist float64
		if err := rows.Scan(&e.ID, &e.Identity, &vec, &e.Model, &e.Dim, &e.CreatedAt, &dist); err != nil {
			return nil, nil, fmt.Errorf("scan gallery entry: %w", err)
		}
		e.Embedding = vec.Slice()
		entries = append(entries, e)
		distances = append(distances, dist)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate gallery entries: %w", err)
	}
	return entries, distances, nil
}

// Count returns the total number of stored entries.
func (r *GalleryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM face_embeddings").Scan(&count); err != nil {
		return 0, fmt.Errorf("count gallery entries: %w", err)
	}
	return count, nil
}

// Identities returns a per-identity summary of the gallery.
func (r *GalleryRepository) Identities(ctx context.Context) ([]gallery.IdentitySummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT identity, COUNT(*), MAX(created_at)
		FROM face_embeddings
		GROUP BY identity
		ORDER BY identity
	`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var out []gallery.IdentitySummary
	for rows.Next() {
		var s gallery.IdentitySummary
		if err := rows.Scan(&s.Identity, &s.Samples, &s.LastAdded); err != nil {
			return nil, fmt.Errorf("scan identity summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return out, nil
}

// DeleteIdentity removes all entries for an identity. Comparison is
// normalized the same way gallery.NormalizeIdentity does it in Go
// (lowercase, no diacritics, dashes to spaces).
func (r *GalleryRepository) DeleteIdentity(ctx context.Context, identity string) (int64, error) {
	normalized := gallery.NormalizeIdentity(identity)
	res, err := r.pool.Exec(ctx, `
		DELETE FROM face_embeddings
		WHERE TRIM(LOWER(REPLACE(unaccent(identity), '-', ' '))) = $1
	`, normalized)
	if err != nil {
		return 0, fmt.Errorf("delete identity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func scanEntries(rows *sql.Rows) ([]gallery.Entry, error) {
	var entries []gallery.Entry
	for rows.Next() {
		var e gallery.Entry
		var vec pgvector.Vector
		if err := rows.Scan(&e.ID, &e.Identity, &vec, &e.Model, &e.Dim, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan gallery entry: %w", err)
		}
		e.Embedding = vec.Slice()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery entries: %w", err)
	}
	return entries, nil
}
