package app

import (
	"context"
	"strings"
	"testing"

	"github.com/lex-codes11/skipbot/internal/domain"
)

func newTestAdminService(t *testing.T, ledger *fakeLedger, capacity int, pool []string) (*AdminService, *fakeNotifier) {
	t.Helper()
	venues := domain.NewVenueSet([]domain.Venue{"ATL", "FL"}, capacity)
	notifier := &fakeNotifier{}
	svc := NewAdminService(ledger, fixedPools{pool: pool}, venues, testResolver(t), testClock(t), notifier)
	return svc, notifier
}

func mustAdd(t *testing.T, svc *AdminService, in AddSaleInput) domain.Allocation {
	t.Helper()
	got, err := svc.AddSale(context.Background(), in)
	if err != nil {
		t.Fatalf("add sale %+v: %v", in, err)
	}
	return got
}

func TestAddSale(t *testing.T) {
	t.Parallel()

	t.Run("appends by default with synthesized external id", func(t *testing.T) {
		ledger := newFakeLedger()
		svc, notifier := newTestAdminService(t, ledger, 3, []string{"A", "B", "C"})

		got := mustAdd(t, svc, AddSaleInput{Venue: "ATL", HolderID: "h1"})
		if got.Position != 1 || !got.Created {
			t.Fatalf("unexpected allocation %+v", got)
		}
		if !strings.HasPrefix(got.ExternalID, "manual-") {
			t.Fatalf("expected manual- external id, got %s", got.ExternalID)
		}
		if len(notifier.confirmed) != 1 {
			t.Fatalf("expected one notification, got %d", len(notifier.confirmed))
		}
	})

	t.Run("explicit position shifts later records down", func(t *testing.T) {
		ledger := newFakeLedger()
		svc, _ := newTestAdminService(t, ledger, 3, []string{"A", "B", "C"})

		mustAdd(t, svc, AddSaleInput{Venue: "ATL", HolderID: "h1"})
		mustAdd(t, svc, AddSaleInput{Venue: "ATL", HolderID: "h2"})
		got := mustAdd(t, svc, AddSaleInput{Venue: "ATL", HolderID: "h3", Position: 1})
		if got.Position != 1 {
			t.Fatalf("expected position 1, got %d", got.Position)
		}

		records, _ := ledger.List(context.Background(), testNight, "ATL")
		holders := []string{records[0].HolderID, records[1].HolderID, records[2].HolderID}
		if holders[0] != "h3" || holders[1] != "h1" || holders[2] != "h2" {
			t.Fatalf("unexpected order %v", holders)
		}
		for i, rec := range records {
			if rec.Position != i+1 {
				t.Fatalf("position gap at index %d: %+v", i, rec)
			}
		}
	})

	t.Run("position out of bounds", func(t *testing.T) {
		svc, _ := newTestAdminService(t, newFakeLedger(), 3, []string{"A", "B", "C"})

		mustAdd(t, svc, AddSaleInput{Venue: "ATL", HolderID: "h1"})
		if _, err := svc.AddSale(context.Background(), AddSaleInput{
			Venue: "ATL", HolderID: "h2", Position: 3,
		}); err != domain.ErrInvalidPosition {
			t.Fatalf("expected ErrInvalidPosition, got %v", err)
		}
		if _, err := svc.AddSale(context.Background(), AddSaleInput{
			Venue: "ATL", HolderID: "h2", Position: -1,
		}); err != domain.ErrInvalidPosition {
			t.Fatalf("expected ErrInvalidPosition for negative, got %v", err)
		}
	})

	t.Run("full venue rejects insert", func(t *testing.T) {
		svc, _ := newTestAdminService(t, newFakeLedger(), 1, []string{"A", "B"})

		mustAdd(t, svc, AddSaleInput{Venue: "ATL", HolderID: "h1"})
		if _, err := svc.AddSale(context.Background(), AddSaleInput{
			Venue: "ATL", HolderID: "h2", Position: 1,
		}); err != domain.ErrSoldOut {
			t.Fatalf("expected ErrSoldOut, got %v", err)
		}
	})

	t.Run("explicit night", func(t *testing.T) {
		svc, _ := newTestAdminService(t, newFakeLedger(), 3, []string{"A", "B", "C"})

		got := mustAdd(t, svc, AddSaleInput{Night: "2026-02-14", Venue: "FL", HolderID: "h1"})
		if got.Night != "2026-02-14" {
			t.Fatalf("expected explicit night, got %s", got.Night)
		}
		if _, err := svc.AddSale(context.Background(), AddSaleInput{
			Night: "02/14/2026", Venue: "FL", HolderID: "h1",
		}); err != domain.ErrInvalidNight {
			t.Fatalf("expected ErrInvalidNight, got %v", err)
		}
	})
}

func TestRemoveSale(t *testing.T) {
	t.Parallel()

	t.Run("removes and notifies", func(t *testing.T) {
		ledger := newFakeLedger()
		svc, notifier := newTestAdminService(t, ledger, 3, []string{"A", "B", "C"})

		mustAdd(t, svc, AddSaleInput{Venue: "ATL", HolderID: "h1"})
		mustAdd(t, svc, AddSaleInput{Venue: "ATL", HolderID: "h2"})

		removed, err := svc.RemoveSale(context.Background(), RemoveSaleInput{Venue: "ATL", Position: 1})
		if err != nil {
			t.Fatalf("remove: %v", err)
		}
		if removed.HolderID != "h1" {
			t.Fatalf("expected h1 removed, got %s", removed.HolderID)
		}
		if len(notifier.removed) != 1 {
			t.Fatalf("expected one removal notification, got %d", len(notifier.removed))
		}

		records, _ := ledger.List(context.Background(), testNight, "ATL")
		if len(records) != 1 || records[0].HolderID != "h2" || records[0].Position != 1 {
			t.Fatalf("expected h2 shifted up, got %+v", records)
		}
	})

	t.Run("invalid position", func(t *testing.T) {
		svc, _ := newTestAdminService(t, newFakeLedger(), 3, []string{"A", "B", "C"})

		if _, err := svc.RemoveSale(context.Background(), RemoveSaleInput{
			Venue: "ATL", Position: 1,
		}); err != domain.ErrInvalidPosition {
			t.Fatalf("expected ErrInvalidPosition, got %v", err)
		}
	})
}

func TestMoveSale(t *testing.T) {
	t.Parallel()

	t.Run("moves atomically across venues", func(t *testing.T) {
		ledger := newFakeLedger()
		svc, notifier := newTestAdminService(t, ledger, 3, []string{"A", "B", "C"})

		mustAdd(t, svc, AddSaleInput{Venue: "ATL", HolderID: "h1"})
		mustAdd(t, svc, AddSaleInput{Venue: "FL", HolderID: "h2"})

		got, err := svc.MoveSale(context.Background(), MoveSaleInput{
			FromVenue: "ATL", ToVenue: "FL", Position: 1,
		})
		if err != nil {
			t.Fatalf("move: %v", err)
		}
		if got.Venue != "FL" || got.Position != 2 {
			t.Fatalf("unexpected destination %+v", got)
		}

		atl, _ := ledger.Count(context.Background(), testNight, "ATL")
		fl, _ := ledger.Count(context.Background(), testNight, "FL")
		if atl != 0 || fl != 2 {
			t.Fatalf("counts after move: ATL=%d FL=%d", atl, fl)
		}
		if len(notifier.moved) != 1 {
			t.Fatalf("expected one move notification, got %d", len(notifier.moved))
		}
		// Both partitions locked in sorted order, after the two setup adds.
		if got := ledger.locks[2:]; len(got) != 2 || got[0] != string(testNight)+"|ATL" || got[1] != string(testNight)+"|FL" {
			t.Fatalf("unexpected lock sequence %v", ledger.locks)
		}
	})

	t.Run("keeps frozen passphrase when free at destination", func(t *testing.T) {
		ledger := newFakeLedger()
		svc, _ := newTestAdminService(t, ledger, 3, []string{"A", "B", "C"})

		src := mustAdd(t, svc, AddSaleInput{Venue: "ATL", HolderID: "h1"})
		got, err := svc.MoveSale(context.Background(), MoveSaleInput{
			FromVenue: "ATL", ToVenue: "FL", Position: 1,
		})
		if err != nil {
			t.Fatalf("move: %v", err)
		}
		if got.Passphrase != src.Passphrase {
			t.Fatalf("passphrase changed on move: %s -> %s", src.Passphrase, got.Passphrase)
		}
	})

	t.Run("reassigns passphrase on collision at destination", func(t *testing.T) {
		ledger := newFakeLedger()
		svc, _ := newTestAdminService(t, ledger, 3, []string{"A", "B", "C"})

		// Both venues assign from the same per-night pool, so the first
		// record in each holds the same phrase.
		mustAdd(t, svc, AddSaleInput{Venue: "ATL", HolderID: "h1"})
		mustAdd(t, svc, AddSaleInput{Venue: "FL", HolderID: "h2"})

		got, err := svc.MoveSale(context.Background(), MoveSaleInput{
			FromVenue: "ATL", ToVenue: "FL", Position: 1,
		})
		if err != nil {
			t.Fatalf("move: %v", err)
		}
		if got.Passphrase != "B" {
			t.Fatalf("expected fresh phrase B at destination, got %s", got.Passphrase)
		}
	})

	t.Run("full destination leaves source unmodified", func(t *testing.T) {
		ledger := newFakeLedger()
		svc, _ := newTestAdminService(t, ledger, 1, []string{"A", "B"})

		mustAdd(t, svc, AddSaleInput{Venue: "ATL", HolderID: "h1"})
		mustAdd(t, svc, AddSaleInput{Venue: "FL", HolderID: "h2"})

		_, err := svc.MoveSale(context.Background(), MoveSaleInput{
			FromVenue: "ATL", ToVenue: "FL", Position: 1,
		})
		if err != domain.ErrSoldOut {
			t.Fatalf("expected ErrSoldOut, got %v", err)
		}

		atl, _ := ledger.Count(context.Background(), testNight, "ATL")
		fl, _ := ledger.Count(context.Background(), testNight, "FL")
		if atl != 1 || fl != 1 {
			t.Fatalf("partial move observed: ATL=%d FL=%d", atl, fl)
		}
	})

	t.Run("same venue rejected", func(t *testing.T) {
		svc, _ := newTestAdminService(t, newFakeLedger(), 3, []string{"A", "B", "C"})

		if _, err := svc.MoveSale(context.Background(), MoveSaleInput{
			FromVenue: "ATL", ToVenue: "atl", Position: 1,
		}); err != domain.ErrSameVenue {
			t.Fatalf("expected ErrSameVenue, got %v", err)
		}
	})

	t.Run("invalid source position", func(t *testing.T) {
		svc, _ := newTestAdminService(t, newFakeLedger(), 3, []string{"A", "B", "C"})

		if _, err := svc.MoveSale(context.Background(), MoveSaleInput{
			FromVenue: "ATL", ToVenue: "FL", Position: 1,
		}); err != domain.ErrInvalidPosition {
			t.Fatalf("expected ErrInvalidPosition, got %v", err)
		}
	})
}

func TestExportSales(t *testing.T) {
	t.Parallel()

	ledger := newFakeLedger()
	svc, _ := newTestAdminService(t, ledger, 3, []string{"A", "B", "C"})

	mustAdd(t, svc, AddSaleInput{Venue: "ATL", HolderID: "h1"})
	mustAdd(t, svc, AddSaleInput{Venue: "ATL", HolderID: "h2"})
	mustAdd(t, svc, AddSaleInput{Venue: "FL", HolderID: "h3"})

	sheet, err := svc.ExportSales(context.Background(), "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if sheet.Night != testNight {
		t.Fatalf("expected night %s, got %s", testNight, sheet.Night)
	}
	if sheet.Label != "Friday, January 2, 2026" {
		t.Fatalf("unexpected label %q", sheet.Label)
	}
	if len(sheet.Venues) != 2 {
		t.Fatalf("expected both venues in export, got %d", len(sheet.Venues))
	}
	if sheet.Venues[0].Venue != "ATL" || len(sheet.Venues[0].Records) != 2 {
		t.Fatalf("unexpected ATL export %+v", sheet.Venues[0])
	}
	if sheet.Venues[1].Venue != "FL" || len(sheet.Venues[1].Records) != 1 {
		t.Fatalf("unexpected FL export %+v", sheet.Venues[1])
	}
}

func TestListPassphrases(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAdminService(t, newFakeLedger(), 3, []string{"A", "B", "C"})

	night, pool, err := svc.ListPassphrases(context.Background(), "")
	if err != nil {
		t.Fatalf("list passphrases: %v", err)
	}
	if night != testNight {
		t.Fatalf("expected night %s, got %s", testNight, night)
	}
	if len(pool) != 3 {
		t.Fatalf("expected 3 phrases, got %d", len(pool))
	}
}
