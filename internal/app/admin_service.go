package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/lex-codes11/skipbot/internal/clock"
	"github.com/lex-codes11/skipbot/internal/domain"
	"github.com/lex-codes11/skipbot/internal/passphrase"
)

// AdminService executes out-of-band corrections against the ledger. It
// performs no identity checks; the command surface in front of it is
// responsible for authorization before any call lands here.
type AdminService struct {
	ledger   LedgerRepository
	pools    PoolProvider
	venues   domain.VenueSet
	resolver *clock.Resolver
	clock    clock.Clock
	notifier Notifier
}

func NewAdminService(ledger LedgerRepository, pools PoolProvider, venues domain.VenueSet, resolver *clock.Resolver, clk clock.Clock, notifier Notifier) *AdminService {
	return &AdminService{
		ledger:   ledger,
		pools:    pools,
		venues:   venues,
		resolver: resolver,
		clock:    clk,
		notifier: notifier,
	}
}

type AddSaleInput struct {
	Night    string // empty = current night
	Venue    string
	HolderID string
	Position int // 0 = append, otherwise 1..count+1
}

// AddSale records a manually granted slot, synthesizing an external id so
// the record obeys the same idempotency schema as paid ones.
func (s *AdminService) AddSale(ctx context.Context, in AddSaleInput) (domain.Allocation, error) {
	if in.HolderID == "" {
		return domain.Allocation{}, domain.ErrHolderRequired
	}
	venue, ok := s.venues.Resolve(in.Venue)
	if !ok {
		return domain.Allocation{}, domain.ErrInvalidVenue
	}
	night, err := s.nightOrCurrent(in.Night)
	if err != nil {
		return domain.Allocation{}, err
	}
	if in.Position < 0 {
		return domain.Allocation{}, domain.ErrInvalidPosition
	}

	now := s.clock.Now()
	var result domain.Allocation

	err = s.ledger.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.ledger.LockPartition(txCtx, night, venue); err != nil {
			return err
		}

		count, err := s.ledger.Count(txCtx, night, venue)
		if err != nil {
			return err
		}
		if count >= s.venues.Capacity() {
			return domain.ErrSoldOut
		}

		position := in.Position
		if position == 0 {
			position = count + 1
		} else if position > count+1 {
			return domain.ErrInvalidPosition
		}

		pool, err := s.pools.EnsurePool(txCtx, night)
		if err != nil {
			return err
		}
		taken, err := s.ledger.TakenPhrases(txCtx, night, venue)
		if err != nil {
			return err
		}
		phrase, err := passphrase.NextFree(pool, taken)
		if err != nil {
			return err
		}

		rec := domain.AllocationRecord{
			Night:      night,
			Venue:      venue,
			Position:   position,
			ExternalID: "manual-" + uuid.NewString(),
			HolderID:   in.HolderID,
			Passphrase: phrase,
			CreatedAt:  now,
		}
		if err := s.ledger.Insert(txCtx, rec); err != nil {
			return err
		}
		result = domain.Allocation{
			Night:      rec.Night,
			Venue:      rec.Venue,
			Position:   rec.Position,
			Capacity:   s.venues.Capacity(),
			Passphrase: rec.Passphrase,
			HolderID:   rec.HolderID,
			ExternalID: rec.ExternalID,
			Created:    true,
		}
		return nil
	})
	if err != nil {
		return domain.Allocation{}, err
	}

	s.notifier.AllocationConfirmed(ctx, result)
	return result, nil
}

type RemoveSaleInput struct {
	Night    string // empty = current night
	Venue    string
	Position int
}

// RemoveSale deletes the record at the given slot; later records shift up
// and the removed record's passphrase returns to the night's free pool.
func (s *AdminService) RemoveSale(ctx context.Context, in RemoveSaleInput) (domain.Allocation, error) {
	venue, ok := s.venues.Resolve(in.Venue)
	if !ok {
		return domain.Allocation{}, domain.ErrInvalidVenue
	}
	night, err := s.nightOrCurrent(in.Night)
	if err != nil {
		return domain.Allocation{}, err
	}

	var removed domain.AllocationRecord
	err = s.ledger.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.ledger.LockPartition(txCtx, night, venue); err != nil {
			return err
		}
		rec, err := s.ledger.Remove(txCtx, night, venue, in.Position)
		if err != nil {
			return err
		}
		removed = rec
		return nil
	})
	if err != nil {
		return domain.Allocation{}, err
	}

	result := domain.Allocation{
		Night:      removed.Night,
		Venue:      removed.Venue,
		Position:   removed.Position,
		Capacity:   s.venues.Capacity(),
		Passphrase: removed.Passphrase,
		HolderID:   removed.HolderID,
		ExternalID: removed.ExternalID,
	}
	s.notifier.AllocationRemoved(ctx, result)
	return result, nil
}

type MoveSaleInput struct {
	Night     string // empty = current night
	FromVenue string
	ToVenue   string
	Position  int
}

// MoveSale removes a record from one venue's list and appends it to the
// other's as a single transaction. If the destination is full the whole
// move fails and the source list is untouched. The record keeps its frozen
// passphrase unless that phrase is already held at the destination, in
// which case a fresh free phrase is assigned.
func (s *AdminService) MoveSale(ctx context.Context, in MoveSaleInput) (domain.Allocation, error) {
	from, ok := s.venues.Resolve(in.FromVenue)
	if !ok {
		return domain.Allocation{}, domain.ErrInvalidVenue
	}
	to, ok := s.venues.Resolve(in.ToVenue)
	if !ok {
		return domain.Allocation{}, domain.ErrInvalidVenue
	}
	if from == to {
		return domain.Allocation{}, domain.ErrSameVenue
	}
	night, err := s.nightOrCurrent(in.Night)
	if err != nil {
		return domain.Allocation{}, err
	}

	var result domain.Allocation
	err = s.ledger.WithTx(ctx, func(txCtx context.Context) error {
		// Stable lock order across both partitions keeps concurrent opposite
		// moves from deadlocking.
		first, second := from, to
		if second < first {
			first, second = second, first
		}
		if err := s.ledger.LockPartition(txCtx, night, first); err != nil {
			return err
		}
		if err := s.ledger.LockPartition(txCtx, night, second); err != nil {
			return err
		}

		destCount, err := s.ledger.Count(txCtx, night, to)
		if err != nil {
			return err
		}
		if destCount >= s.venues.Capacity() {
			return domain.ErrSoldOut
		}

		rec, err := s.ledger.Remove(txCtx, night, from, in.Position)
		if err != nil {
			return err
		}

		taken, err := s.ledger.TakenPhrases(txCtx, night, to)
		if err != nil {
			return err
		}
		if _, clash := taken[rec.Passphrase]; clash {
			pool, err := s.pools.EnsurePool(txCtx, night)
			if err != nil {
				return err
			}
			phrase, err := passphrase.NextFree(pool, taken)
			if err != nil {
				return err
			}
			rec.Passphrase = phrase
		}

		rec.Venue = to
		rec.Position = destCount + 1
		if err := s.ledger.Insert(txCtx, rec); err != nil {
			return err
		}
		result = domain.Allocation{
			Night:      rec.Night,
			Venue:      rec.Venue,
			Position:   rec.Position,
			Capacity:   s.venues.Capacity(),
			Passphrase: rec.Passphrase,
			HolderID:   rec.HolderID,
			ExternalID: rec.ExternalID,
		}
		return nil
	})
	if err != nil {
		return domain.Allocation{}, err
	}

	s.notifier.AllocationMoved(ctx, result)
	return result, nil
}

// VenueSales is one venue's ordered nightly list for operator export.
type VenueSales struct {
	Venue    domain.Venue
	Capacity int
	Records  []domain.AllocationRecord
}

// NightSheet is the full export for one sale night.
type NightSheet struct {
	Night  domain.NightKey
	Label  string
	Venues []VenueSales
}

// ExportSales returns every venue's ordered list with frozen passphrases,
// the operator-facing equivalent of the door sheet.
func (s *AdminService) ExportSales(ctx context.Context, rawNight string) (NightSheet, error) {
	night, err := s.nightOrCurrent(rawNight)
	if err != nil {
		return NightSheet{}, err
	}

	sheet := NightSheet{Night: night, Label: night.Human()}
	for _, venue := range s.venues.Codes() {
		records, err := s.ledger.List(ctx, night, venue)
		if err != nil {
			return NightSheet{}, err
		}
		sheet.Venues = append(sheet.Venues, VenueSales{
			Venue:    venue,
			Capacity: s.venues.Capacity(),
			Records:  records,
		})
	}
	return sheet, nil
}

// ListPassphrases returns the night's full ordered pool, creating it if the
// night has not been seen yet.
func (s *AdminService) ListPassphrases(ctx context.Context, rawNight string) (domain.NightKey, []string, error) {
	night, err := s.nightOrCurrent(rawNight)
	if err != nil {
		return "", nil, err
	}
	pool, err := s.pools.EnsurePool(ctx, night)
	if err != nil {
		return "", nil, err
	}
	return night, pool, nil
}

func (s *AdminService) nightOrCurrent(raw string) (domain.NightKey, error) {
	if raw == "" {
		return s.resolver.Current(s.clock), nil
	}
	return domain.ParseNight(raw)
}
