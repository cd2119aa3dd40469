package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository stores JSON blobs in the charger_cache table.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// Get returns the payload stored under key.
// Returns nil, nil when the key is not found.
func (r *Repository) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT payload FROM charger_cache WHERE key = $1`

	var payload []byte
	if err := r.q.QueryRow(ctx, q, key).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying charger cache %s: %w", key, err)
	}
	return payload, nil
}

// Put inserts or replaces the payload stored under key.
func (r *Repository) Put(ctx context.Context, key string, value []byte) error {
	const q = `
		INSERT INTO charger_cache (key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET payload    = EXCLUDED.payload,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := r.q.Exec(ctx, q, key, value); err != nil {
		return fmt.Errorf("upserting charger cache %s: %w", key, err)
	}
	return nil
}
