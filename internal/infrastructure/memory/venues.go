// Package memory holds in-process stores used when no database is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/internaltypes"
	"github.com/example/bookinghub/internal/venues"
)

type VenueStore struct {
	mu     sync.RWMutex
	venues map[string]reservation.Venue
}

func NewVenueStore(seed ...reservation.Venue) *VenueStore {
	s := &VenueStore{venues: make(map[string]reservation.Venue, len(seed))}
	for _, v := range seed {
		s.venues[v.VenueID] = v
	}
	return s
}

func (s *VenueStore) GetVenue(ctx context.Context, venueID string) (reservation.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.venues[venueID]
	if !ok {
		return reservation.Venue{}, internaltypes.ErrNotFound
	}
	return v, nil
}

func (s *VenueStore) GetProvider(ctx context.Context, venueID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.venues[venueID]
	if !ok || v.Provider == "" {
		return "", internaltypes.ErrNotFound
	}
	return v.Provider, nil
}

func (s *VenueStore) SearchDomain(ctx context.Context, fragment string) ([]reservation.Venue, error) {
	fragment = strings.ToLower(fragment)
	return s.filter(func(v reservation.Venue) bool {
		return v.Domain != "" && strings.Contains(strings.ToLower(v.Domain), fragment)
	}), nil
}

func (s *VenueStore) ListVenues(ctx context.Context, f venues.Filter) ([]reservation.Venue, error) {
	return s.filter(func(v reservation.Venue) bool {
		if f.Category != "" && v.Category != f.Category {
			return false
		}
		if f.City != "" && !strings.EqualFold(v.City, f.City) {
			return false
		}
		return true
	}), nil
}

func (s *VenueStore) ListByProvider(ctx context.Context, provider string) ([]reservation.Venue, error) {
	return s.filter(func(v reservation.Venue) bool { return v.Provider == provider }), nil
}

func (s *VenueStore) CountVenues(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.venues), nil
}

func (s *VenueStore) UpsertVenue(ctx context.Context, v reservation.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venues[v.VenueID] = v
	return nil
}

// filter returns matches ordered by venue id.
func (s *VenueStore) filter(keep func(reservation.Venue) bool) []reservation.Venue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]reservation.Venue, 0)
	for _, v := range s.venues {
		if keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VenueID < out[j].VenueID })
	return out
}
