package app

import (
	"context"

	"github.com/lex-codes11/skipbot/internal/clock"
	"github.com/lex-codes11/skipbot/internal/domain"
	"github.com/lex-codes11/skipbot/internal/passphrase"
)

// maxNightHintDrift is how many days a payment event's night hint may differ
// from the resolver's current night before the event is rejected as stale.
// One day of slack covers webhooks that cross the cutover hour between
// checkout creation and delivery.
const maxNightHintDrift = 1

// AllocationService is the engine behind the payment-confirmation path. It
// owns the decision logic; the ledger owns atomicity and the persisted
// representation.
type AllocationService struct {
	ledger   LedgerRepository
	pools    PoolProvider
	venues   domain.VenueSet
	resolver *clock.Resolver
	clock    clock.Clock
	notifier Notifier
}

func NewAllocationService(ledger LedgerRepository, pools PoolProvider, venues domain.VenueSet, resolver *clock.Resolver, clk clock.Clock, notifier Notifier) *AllocationService {
	return &AllocationService{
		ledger:   ledger,
		pools:    pools,
		venues:   venues,
		resolver: resolver,
		clock:    clk,
		notifier: notifier,
	}
}

type ConfirmPurchaseInput struct {
	ExternalID string
	HolderID   string
	Venue      string
	// NightHint is the sale night stamped on the checkout session. Empty
	// means "current night". Hints more than maxNightHintDrift days from the
	// current night are rejected as stale.
	NightHint string
}

// ConfirmPurchase records one paid slot exactly once. Payment events are
// delivered at least once, so replays with a known external id return the
// original position and passphrase instead of an error.
func (s *AllocationService) ConfirmPurchase(ctx context.Context, in ConfirmPurchaseInput) (domain.Allocation, error) {
	if in.ExternalID == "" {
		return domain.Allocation{}, domain.ErrExternalIDRequired
	}
	if in.HolderID == "" {
		return domain.Allocation{}, domain.ErrHolderRequired
	}
	venue, ok := s.venues.Resolve(in.Venue)
	if !ok {
		return domain.Allocation{}, domain.ErrInvalidVenue
	}

	current := s.resolver.Current(s.clock)
	night := current
	if in.NightHint != "" {
		hinted, err := domain.ParseNight(in.NightHint)
		if err != nil {
			return domain.Allocation{}, err
		}
		if hinted.DaysApart(current) > maxNightHintDrift {
			return domain.Allocation{}, domain.ErrStaleNightHint
		}
		night = hinted
	}

	now := s.clock.Now()
	var result domain.Allocation

	err := s.ledger.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.ledger.LockPartition(txCtx, night, venue); err != nil {
			return err
		}

		existing, err := s.ledger.FindByExternalID(txCtx, night, venue, in.ExternalID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.HolderID != in.HolderID {
				return domain.ErrIdempotencyConflict
			}
			result = s.allocation(*existing, false)
			return nil
		}

		count, err := s.ledger.Count(txCtx, night, venue)
		if err != nil {
			return err
		}
		if count >= s.venues.Capacity() {
			return domain.ErrSoldOut
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
			Position:   count + 1,
			ExternalID: in.ExternalID,
			HolderID:   in.HolderID,
			Passphrase: phrase,
			CreatedAt:  now,
		}
		if err := s.ledger.Insert(txCtx, rec); err != nil {
			return err
		}
		result = s.allocation(rec, true)
		return nil
	})
	if err != nil {
		return domain.Allocation{}, err
	}

	if result.Created {
		s.notifier.AllocationConfirmed(ctx, result)
	}
	return result, nil
}

// Availability is the informational "tickets remaining" read. It is an
// unlocked snapshot and is never the basis for a capacity decision; the
// serialized confirmation path remains the final authority.
func (s *AllocationService) Availability(ctx context.Context, rawVenue string) (domain.NightKey, domain.Venue, int, int, error) {
	venue, ok := s.venues.Resolve(rawVenue)
	if !ok {
		return "", "", 0, 0, domain.ErrInvalidVenue
	}
	night := s.resolver.Current(s.clock)
	count, err := s.ledger.Count(ctx, night, venue)
	if err != nil {
		return "", "", 0, 0, err
	}
	return night, venue, count, s.venues.Capacity(), nil
}

func (s *AllocationService) allocation(rec domain.AllocationRecord, created bool) domain.Allocation {
	return domain.Allocation{
		Night:      rec.Night,
		Venue:      rec.Venue,
		Position:   rec.Position,
		Capacity:   s.venues.Capacity(),
		Passphrase: rec.Passphrase,
		HolderID:   rec.HolderID,
		ExternalID: rec.ExternalID,
		Created:    created,
	}
}
