package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lex-codes11/skipbot/internal/domain"
)

// PoolRepository persists one passphrase permutation per night. The insert
// is a compare-and-set: ON CONFLICT DO NOTHING followed by a read means two
// racing first calls for the same night both end up with the first writer's
// permutation.
type PoolRepository struct {
	pool *pgxpool.Pool
}

func NewPoolRepository(pool *pgxpool.Pool) *PoolRepository {
	return &PoolRepository{pool: pool}
}

func (r *PoolRepository) EnsurePool(ctx context.Context, night domain.NightKey, candidate []string) ([]string, error) {
	const insert = `
INSERT INTO passphrase_pools (night, phrases)
VALUES ($1, $2)
ON CONFLICT (night) DO NOTHING`
	const get = `SELECT phrases FROM passphrase_pools WHERE night = $1`

	if _, err := exec(ctx, r.pool, insert, night, candidate); err != nil {
		return nil, fmt.Errorf("insert pool: %w", err)
	}

	var phrases []string
	if err := queryRow(ctx, r.pool, get, night).Scan(&phrases); err != nil {
		return nil, fmt.Errorf("read pool: %w", err)
	}
	return phrases, nil
}
