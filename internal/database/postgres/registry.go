package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/attendance/internal/database"
	"github.com/kozaktomas/attendance/internal/facematch"
)

// RegistryRepository provides PostgreSQL-backed identity storage
type RegistryRepository struct {
	pool *Pool
}

// NewRegistryRepository creates a new PostgreSQL registry repository
func NewRegistryRepository(pool *Pool) *RegistryRepository {
	return &RegistryRepository{pool: pool}
}

// Load returns every identity with its references in registration order
func (r *RegistryRepository) Load(ctx context.Context) (facematch.Registry, error) {
	query := `
		SELECT i.name, e.embedding
		FROM identities i
		JOIN reference_embeddings e ON e.name = i.name
		ORDER BY i.id, e.id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return facematch.Registry{}, fmt.Errorf("%w: query registry: %v", database.ErrStorageUnreadable, err)
	}
	defer rows.Close()

	var reg facematch.Registry
	for rows.Next() {
		var name string
		var emb pq.Float64Array
		if err := rows.Scan(&name, &emb); err != nil {
			return facematch.Registry{}, fmt.Errorf("%w: scan reference: %v", database.ErrStorageUnreadable, err)
		}
		reg = appendReference(reg, name, facematch.Embedding(emb))
	}
	if err := rows.Err(); err != nil {
		return facematch.Registry{}, fmt.Errorf("%w: iterate registry: %v", database.ErrStorageUnreadable, err)
	}
	return reg, nil
}

// appendReference adds emb to the last identity when names match, which holds
// because rows arrive grouped by identity.
func appendReference(reg facematch.Registry, name string, emb facematch.Embedding) facematch.Registry {
	if n := len(reg.Identities); n > 0 && reg.Identities[n-1].Name == name {
		reg.Identities[n-1].Embeddings = append(reg.Identities[n-1].Embeddings, emb)
		return reg
	}
	reg.Identities = append(reg.Identities, facematch.Identity{Name: name, Embeddings: []facematch.Embedding{emb}})
	return reg
}

// List returns identity names in registration order
func (r *RegistryRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT name FROM identities ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return names, nil
}

// Add appends a reference embedding, creating the identity when absent
func (r *RegistryRepository) Add(ctx context.Context, name string, emb facematch.Embedding) error {
	name, err := database.ValidateName(name)
	if err != nil {
		return err
	}
	if len(emb) == 0 {
		return fmt.Errorf("%w: embedding must not be empty", database.ErrInvalidInput)
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", database.ErrStorageWrite, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO identities (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name); err != nil {
		return fmt.Errorf("%w: insert identity: %v", database.ErrStorageWrite, err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO reference_embeddings (name, embedding, vec) VALUES ($1, $2, $3)",
		name, pq.Float64Array(emb), pgvector.NewVector(toFloat32(emb)),
	); err != nil {
		return fmt.Errorf("%w: insert embedding: %v", database.ErrStorageWrite, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", database.ErrStorageWrite, err)
	}
	return nil
}

// Remove deletes an identity; its references go with it via ON DELETE CASCADE
func (r *RegistryRepository) Remove(ctx context.Context, name string) error {
	name = facematch.CanonicalName(name)

	result, err := r.pool.Exec(ctx, "DELETE FROM identities WHERE name = $1", name)
	if err != nil {
		return fmt.Errorf("%w: delete identity: %v", database.ErrStorageWrite, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", database.ErrStorageWrite, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: identity %q", database.ErrNotFound, name)
	}
	return nil
}

// Nearest orders references by pgvector L2 distance and reports exact float64 distances
func (r *RegistryRepository) Nearest(ctx context.Context, probe facematch.Embedding, k int) ([]database.Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}

	query := `
		SELECT name, embedding
		FROM reference_embeddings
		WHERE vector_dims(vec) = $2
		ORDER BY vec <-> $1
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(toFloat32(probe)), len(probe), k)
	if err != nil {
		return nil, fmt.Errorf("nearest references: %w", err)
	}
	defer rows.Close()

	var out []database.Neighbor
	for rows.Next() {
		var name string
		var emb pq.Float64Array
		if err := rows.Scan(&name, &emb); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		d, err := facematch.EuclideanDistance(probe, facematch.Embedding(emb))
		if err != nil {
			return nil, err
		}
		out = append(out, database.Neighbor{Name: name, Distance: d})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighbors: %w", err)
	}
	return out, nil
}

func toFloat32(e facematch.Embedding) []float32 {
	v := make([]float32, len(e))
	for i, f := range e {
		v[i] = float32(f)
	}
	return v
}
