package ledger_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/infrastructure/memory"
	"github.com/example/bookinghub/internal/ledger"
	"github.com/example/bookinghub/internal/logger"
)

var errDown = errors.New("connection refused")

// downStore fails every call.
type downStore struct{}

func (downStore) InsertBooking(context.Context, ledger.Record) error { return errDown }
func (downStore) GetBooking(context.Context, string) (ledger.Record, error) {
	return ledger.Record{}, errDown
}
func (downStore) UpdateStatus(context.Context, string, reservation.BookingStatus, time.Time) (bool, error) {
	return false, errDown
}
func (downStore) ListBookings(context.Context, ledger.Filter) ([]ledger.Record, error) {
	return nil, errDown
}

var fixed = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func newLedger(s ledger.Store) *ledger.Ledger {
	return ledger.New(s, logger.Discard(), ledger.WithClock(func() time.Time { return fixed }))
}

func sample(id string) ledger.NewRecord {
	return ledger.NewRecord{
		BookingID:     id,
		VenueID:       "demo_paris_001",
		Provider:      "demo",
		Category:      "restaurant",
		Params:        map[string]any{"date": "2025-01-15", "time": "19:30", "party_size": 4},
		CustomerName:  "John Doe",
		CustomerEmail: "john@example.com",
		CustomerPhone: "+33612345678",
	}
}

func TestGenerateBookingID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := ledger.GenerateBookingID()
		if !strings.HasPrefix(id, ledger.IDPrefix) || len(id) != len(ledger.IDPrefix)+12 {
			t.Fatalf("bad id %q", id)
		}
		for _, c := range strings.TrimPrefix(id, ledger.IDPrefix) {
			if !strings.ContainsRune("0123456789abcdef", c) {
				t.Fatalf("non-hex char in %q", id)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestPersistAndGet(t *testing.T) {
	l := newLedger(memory.NewBookingStore())
	ctx := context.Background()

	r := l.PersistBooking(ctx, sample("booking_000000000001"))
	if !r.Persisted || r.Status != reservation.StatusConfirmed || !r.CreatedAt.Equal(fixed) {
		t.Fatalf("record = %+v", r)
	}
	got, ok := l.GetBooking(ctx, "booking_000000000001")
	if !ok || got.CustomerEmail != "john@example.com" || got.Params["time"] != "19:30" {
		t.Fatalf("GetBooking = %+v, %v", got, ok)
	}
	if _, ok := l.GetBooking(ctx, "booking_ffffffffffff"); ok {
		t.Fatal("unknown id reported present")
	}
}

func TestPersistDegradesOnStoreFailure(t *testing.T) {
	r := newLedger(downStore{}).PersistBooking(context.Background(), sample("booking_000000000002"))
	if r.Persisted {
		t.Fatal("Persisted = true on failing store")
	}
	if r.BookingID != "booking_000000000002" || r.Status != reservation.StatusConfirmed {
		t.Fatalf("record = %+v", r)
	}
}

func TestUpdateBookingStatus(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.NewBookingStore())
	l.PersistBooking(ctx, sample("booking_000000000003"))

	if !l.UpdateBookingStatus(ctx, "booking_000000000003", reservation.StatusCancelled) {
		t.Fatal("update of existing booking returned false")
	}
	got, _ := l.GetBooking(ctx, "booking_000000000003")
	if got.Status != reservation.StatusCancelled {
		t.Fatalf("status = %s", got.Status)
	}
	if l.UpdateBookingStatus(ctx, "booking_000000000003", reservation.StatusConfirmed) {
		t.Fatal("cancelled booking moved back to confirmed")
	}
	if got, _ := l.GetBooking(ctx, "booking_000000000003"); got.Status != reservation.StatusCancelled {
		t.Fatalf("status after refused update = %s", got.Status)
	}
	if l.UpdateBookingStatus(ctx, "booking_missing00000", reservation.StatusCancelled) {
		t.Fatal("update of unknown booking returned true")
	}
	if newLedger(downStore{}).UpdateBookingStatus(ctx, "booking_000000000003", reservation.StatusCancelled) {
		t.Fatal("update on failing store returned true")
	}
}

func TestGetBookingStoreFailureIsAbsent(t *testing.T) {
	if _, ok := newLedger(downStore{}).GetBooking(context.Background(), "booking_000000000001"); ok {
		t.Fatal("failing store reported a booking")
	}
}

func TestListBookings(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.NewBookingStore())
	l.PersistBooking(ctx, sample("booking_00000000000a"))
	other := sample("booking_00000000000b")
	other.VenueID = "demo_london_001"
	other.CustomerEmail = "jane@example.com"
	l.PersistBooking(ctx, other)

	tests := []struct {
		name string
		f    ledger.Filter
		want int
	}{
		{"all", ledger.Filter{}, 2},
		{"by email", ledger.Filter{CustomerEmail: "JANE@example.com"}, 1},
		{"by venue", ledger.Filter{VenueID: "demo_paris_001"}, 1},
		{"by status", ledger.Filter{Status: reservation.StatusConfirmed}, 2},
		{"no match", ledger.Filter{Status: reservation.StatusNoShow}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := l.ListBookings(ctx, tc.f)
			if got == nil || len(got) != tc.want {
				t.Fatalf("ListBookings(%+v) = %v, want %d records", tc.f, got, tc.want)
			}
		})
	}
}

func TestListBookingsStoreFailureIsEmpty(t *testing.T) {
	got := newLedger(downStore{}).ListBookings(context.Background(), ledger.Filter{})
	if got == nil || len(got) != 0 {
		t.Fatalf("ListBookings = %v, want empty non-nil", got)
	}
}

func TestCheckSlotAvailable(t *testing.T) {
	ctx := context.Background()
	l := newLedger(memory.NewBookingStore())
	l.PersistBooking(ctx, sample("booking_00000000000c"))

	if !l.CheckSlotAvailable(ctx, "demo_paris_001", "restaurant", "2025-01-15", "19:30", 4) {
		t.Fatal("same-slot booking blocked the check")
	}
	if !l.CheckSlotAvailable(ctx, "demo_paris_001", "restaurant", "2025-01-16", "12:00", 2) {
		t.Fatal("free slot reported unavailable")
	}
}

func TestCheckSlotAvailableFailsOpen(t *testing.T) {
	if !newLedger(downStore{}).CheckSlotAvailable(context.Background(), "v", "restaurant", "2025-01-15", "19:30", 2) {
		t.Fatal("failing store closed the slot check")
	}
}
