package app

import (
	"context"
	"fmt"

	"github.com/lex-codes11/skipbot/internal/domain"
)

// fakeLedger keeps ordered per-partition lists in memory and emulates the
// transaction contract: on a failed WithTx closure all mutations made inside
// it are rolled back, and a mutation on a partition that was not locked
// first inside the transaction is an error, same as the real repository's
// serialization contract.
type fakeLedger struct {
	lists  map[string][]domain.AllocationRecord
	locked map[string]bool
	locks  []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{lists: make(map[string][]domain.AllocationRecord)}
}

func partitionKey(night domain.NightKey, venue domain.Venue) string {
	return fmt.Sprintf("%s|%s", night, venue)
}

func (f *fakeLedger) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := make(map[string][]domain.AllocationRecord, len(f.lists))
	for k, v := range f.lists {
		snapshot[k] = append([]domain.AllocationRecord(nil), v...)
	}
	f.locked = make(map[string]bool)
	defer func() { f.locked = nil }()
	if err := fn(ctx); err != nil {
		f.lists = snapshot
		return err
	}
	return nil
}

func (f *fakeLedger) LockPartition(_ context.Context, night domain.NightKey, venue domain.Venue) error {
	key := partitionKey(night, venue)
	if f.locked == nil {
		return fmt.Errorf("lock partition %s: no transaction open", key)
	}
	f.locked[key] = true
	f.locks = append(f.locks, key)
	return nil
}

func (f *fakeLedger) requireLock(key string) error {
	if f.locked == nil || !f.locked[key] {
		return fmt.Errorf("partition %s mutated without holding its lock", key)
	}
	return nil
}

func (f *fakeLedger) Count(_ context.Context, night domain.NightKey, venue domain.Venue) (int, error) {
	return len(f.lists[partitionKey(night, venue)]), nil
}

func (f *fakeLedger) List(_ context.Context, night domain.NightKey, venue domain.Venue) ([]domain.AllocationRecord, error) {
	return append([]domain.AllocationRecord(nil), f.lists[partitionKey(night, venue)]...), nil
}

func (f *fakeLedger) FindByExternalID(_ context.Context, night domain.NightKey, venue domain.Venue, externalID string) (*domain.AllocationRecord, error) {
	for _, rec := range f.lists[partitionKey(night, venue)] {
		if rec.ExternalID == externalID {
			found := rec
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) TakenPhrases(_ context.Context, night domain.NightKey, venue domain.Venue) (map[string]struct{}, error) {
	taken := make(map[string]struct{})
	for _, rec := range f.lists[partitionKey(night, venue)] {
		taken[rec.Passphrase] = struct{}{}
	}
	return taken, nil
}

func (f *fakeLedger) Insert(_ context.Context, rec domain.AllocationRecord) error {
	key := partitionKey(rec.Night, rec.Venue)
	if err := f.requireLock(key); err != nil {
		return err
	}
	list := f.lists[key]
	for _, existing := range list {
		if existing.ExternalID == rec.ExternalID {
			return domain.ErrIdempotencyConflict
		}
	}
	if rec.Position < 1 || rec.Position > len(list)+1 {
		return domain.ErrInvalidPosition
	}
	idx := rec.Position - 1
	list = append(list[:idx], append([]domain.AllocationRecord{rec}, list[idx:]...)...)
	f.lists[key] = renumber(list)
	return nil
}

func (f *fakeLedger) Remove(_ context.Context, night domain.NightKey, venue domain.Venue, position int) (domain.AllocationRecord, error) {
	key := partitionKey(night, venue)
	if err := f.requireLock(key); err != nil {
		return domain.AllocationRecord{}, err
	}
	list := f.lists[key]
	if position < 1 || position > len(list) {
		return domain.AllocationRecord{}, domain.ErrInvalidPosition
	}
	removed := list[position-1]
	f.lists[key] = renumber(append(list[:position-1], list[position:]...))
	return removed, nil
}

func renumber(list []domain.AllocationRecord) []domain.AllocationRecord {
	for i := range list {
		list[i].Position = i + 1
	}
	return list
}

// fixedPools serves the same pool for every night.
type fixedPools struct {
	pool []string
}

func (f fixedPools) EnsurePool(_ context.Context, _ domain.NightKey) ([]string, error) {
	return append([]string(nil), f.pool...), nil
}

type fakeNotifier struct {
	confirmed []domain.Allocation
	removed   []domain.Allocation
	moved     []domain.Allocation
}

func (f *fakeNotifier) AllocationConfirmed(_ context.Context, a domain.Allocation) {
	f.confirmed = append(f.confirmed, a)
}

func (f *fakeNotifier) AllocationRemoved(_ context.Context, a domain.Allocation) {
	f.removed = append(f.removed, a)
}

func (f *fakeNotifier) AllocationMoved(_ context.Context, a domain.Allocation) {
	f.moved = append(f.moved, a)
}
