package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lex-codes11/skipbot/internal/domain"
)

// LedgerRepository stores the (night, venue) -> ordered allocation lists.
// The unique constraint on (night, venue, external_id) enforces idempotency
// at the storage boundary; position uniqueness is deferred to commit so the
// shift updates inside a transaction never trip it transiently.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// LockPartition takes a transaction-scoped advisory lock on the (night,
// venue) pair. Every writer of a partition passes through here first, which
// serializes the check-capacity-then-append sequence.
func (r *LedgerRepository) LockPartition(ctx context.Context, night domain.NightKey, venue domain.Venue) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("lock partition %s/%s: no transaction in context", night, venue)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, string(night)+"|"+string(venue)); err != nil {
		return fmt.Errorf("lock partition %s/%s: %w", night, venue, err)
	}
	return nil
}

func (r *LedgerRepository) Count(ctx context.Context, night domain.NightKey, venue domain.Venue) (int, error) {
	const q = `SELECT COUNT(*) FROM allocations WHERE night = $1 AND venue = $2`
	var n int
	if err := queryRow(ctx, r.pool, q, night, venue).Scan(&n); err != nil {
		return 0, fmt.Errorf("count allocations: %w", err)
	}
	return n, nil
}

func (r *LedgerRepository) List(ctx context.Context, night domain.NightKey, venue domain.Venue) ([]domain.AllocationRecord, error) {
	const q = `
SELECT night, venue, position, external_id, holder_id, passphrase, created_at
FROM allocations
WHERE night = $1 AND venue = $2
ORDER BY position`

	rows, err := query(ctx, r.pool, q, night, venue)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var records []domain.AllocationRecord
	for rows.Next() {
		var rec domain.AllocationRecord
		if err := rows.Scan(&rec.Night, &rec.Venue, &rec.Position, &rec.ExternalID, &rec.HolderID, &rec.Passphrase, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return records, nil
}

func (r *LedgerRepository) FindByExternalID(ctx context.Context, night domain.NightKey, venue domain.Venue, externalID string) (*domain.AllocationRecord, error) {
	const q = `
SELECT night, venue, position, external_id, holder_id, passphrase, created_at
FROM allocations
WHERE night = $1 AND venue = $2 AND external_id = $3`

	var rec domain.AllocationRecord
	err := queryRow(ctx, r.pool, q, night, venue, externalID).
		Scan(&rec.Night, &rec.Venue, &rec.Position, &rec.ExternalID, &rec.HolderID, &rec.Passphrase, &rec.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find allocation by external id: %w", err)
	}
	return &rec, nil
}

func (r *LedgerRepository) TakenPhrases(ctx context.Context, night domain.NightKey, venue domain.Venue) (map[string]struct{}, error) {
	const q = `SELECT passphrase FROM allocations WHERE night = $1 AND venue = $2`

	rows, err := query(ctx, r.pool, q, night, venue)
	if err != nil {
		return nil, fmt.Errorf("taken phrases: %w", err)
	}
	defer rows.Close()

	taken := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan phrase: %w", err)
		}
		taken[p] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("taken phrases: %w", err)
	}
	return taken, nil
}

func (r *LedgerRepository) Insert(ctx context.Context, rec domain.AllocationRecord) error {
	const shift = `
UPDATE allocations SET position = position + 1
WHERE night = $1 AND venue = $2 AND position >= $3`
	const insert = `
INSERT INTO allocations (night, venue, position, external_id, holder_id, passphrase, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := exec(ctx, r.pool, shift, rec.Night, rec.Venue, rec.Position); err != nil {
		return fmt.Errorf("shift allocations: %w", err)
	}
	_, err := exec(ctx, r.pool, insert,
		rec.Night, rec.Venue, rec.Position, rec.ExternalID, rec.HolderID, rec.Passphrase, rec.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdempotencyConflict
		}
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

func (r *LedgerRepository) Remove(ctx context.Context, night domain.NightKey, venue domain.Venue, position int) (domain.AllocationRecord, error) {
	const del = `
DELETE FROM allocations
WHERE night = $1 AND venue = $2 AND position = $3
RETURNING night, venue, position, external_id, holder_id, passphrase, created_at`
	const shift = `
UPDATE allocations SET position = position - 1
WHERE night = $1 AND venue = $2 AND position > $3`

	var rec domain.AllocationRecord
	err := queryRow(ctx, r.pool, del, night, venue, position).
		Scan(&rec.Night, &rec.Venue, &rec.Position, &rec.ExternalID, &rec.HolderID, &rec.Passphrase, &rec.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.AllocationRecord{}, domain.ErrInvalidPosition
		}
		return domain.AllocationRecord{}, fmt.Errorf("remove allocation: %w", err)
	}
	if _, err := exec(ctx, r.pool, shift, night, venue, position); err != nil {
		return domain.AllocationRecord{}, fmt.Errorf("shift allocations: %w", err)
	}
	return rec, nil
}
