package app

import (
	"context"

	"github.com/lex-codes11/skipbot/internal/domain"
)

// LedgerRepository is the durable (night, venue) -> ordered allocation list
// store. Mutations must be called inside WithTx after LockPartition has been
// taken for every partition the transaction touches; the lock is what makes
// the check-capacity-then-append sequence safe across concurrent handlers.
type LedgerRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LockPartition serializes writers of one (night, venue) list for the
	// duration of the surrounding transaction.
	LockPartition(ctx context.Context, night domain.NightKey, venue domain.Venue) error
	Count(ctx context.Context, night domain.NightKey, venue domain.Venue) (int, error)
	List(ctx context.Context, night domain.NightKey, venue domain.Venue) ([]domain.AllocationRecord, error)
	FindByExternalID(ctx context.Context, night domain.NightKey, venue domain.Venue, externalID string) (*domain.AllocationRecord, error)
	// TakenPhrases returns the phrases currently held by live records in the
	// partition.
	TakenPhrases(ctx context.Context, night domain.NightKey, venue domain.Venue) (map[string]struct{}, error)
	// Insert places rec at rec.Position (1-based), shifting records at or
	// below it down by one. Inserting a duplicate external id returns
	// domain.ErrIdempotencyConflict via the storage unique constraint.
	Insert(ctx context.Context, rec domain.AllocationRecord) error
	// Remove deletes the record at position and shifts the remainder up,
	// returning the removed record.
	Remove(ctx context.Context, night domain.NightKey, venue domain.Venue, position int) (domain.AllocationRecord, error)
}

// PoolProvider hands out the night's frozen passphrase permutation.
type PoolProvider interface {
	EnsurePool(ctx context.Context, night domain.NightKey) ([]string, error)
}

// Notifier receives allocation results strictly after the mutation commits.
// Implementations own their delivery errors; a failed notification never
// affects the allocation.
type Notifier interface {
	AllocationConfirmed(ctx context.Context, a domain.Allocation)
	AllocationRemoved(ctx context.Context, a domain.Allocation)
	AllocationMoved(ctx context.Context, a domain.Allocation)
}
