package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/internaltypes"
	"github.com/example/bookinghub/internal/ledger"
)

type BookingStore struct {
	mu       sync.RWMutex
	bookings map[string]ledger.Record
}

func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[string]ledger.Record)}
}

func (s *BookingStore) InsertBooking(ctx context.Context, r ledger.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bookings[r.BookingID]; exists {
		return fmt.Errorf("booking %s: %w", r.BookingID, internaltypes.ErrConflict)
	}
	r.Params = copyParams(r.Params)
	s.bookings[r.BookingID] = r
	return nil
}

func (s *BookingStore) GetBooking(ctx context.Context, bookingID string) (ledger.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.bookings[bookingID]
	if !ok {
		return ledger.Record{}, internaltypes.ErrNotFound
	}
	r.Params = copyParams(r.Params)
	return r, nil
}

func (s *BookingStore) UpdateStatus(ctx context.Context, bookingID string, status reservation.BookingStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.bookings[bookingID]
	if !ok || r.Status == reservation.StatusCancelled {
		return false, nil
	}
	r.Status = status
	r.UpdatedAt = at
	s.bookings[bookingID] = r
	return true, nil
}

// ListBookings returns matches newest first.
func (s *BookingStore) ListBookings(ctx context.Context, f ledger.Filter) ([]ledger.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Record, 0)
	for _, r := range s.bookings {
		if f.Match(r) {
			r.Params = copyParams(r.Params)
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].BookingID < out[j].BookingID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func copyParams(p map[string]any) map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
