// Package venues maps venue ids and website domains to booking providers.
package venues

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/internaltypes"
)

// Filter narrows List. Category matches exactly, City case-insensitively.
type Filter struct {
	Category string `json:"category"`
	City     string `json:"city"`
}

// Store is the registry backing store. Lookups of unknown ids return
// internaltypes.ErrNotFound; a venue without a provider mapping has an
// empty Provider.
type Store interface {
	GetVenue(ctx context.Context, venueID string) (reservation.Venue, error)
	GetProvider(ctx context.Context, venueID string) (string, error)
	// SearchDomain returns venues whose domain contains fragment, ignoring case.
	SearchDomain(ctx context.Context, fragment string) ([]reservation.Venue, error)
	ListVenues(ctx context.Context, f Filter) ([]reservation.Venue, error)
	ListByProvider(ctx context.Context, provider string) ([]reservation.Venue, error)
	CountVenues(ctx context.Context) (int, error)
	UpsertVenue(ctx context.Context, v reservation.Venue) error
}

type Registry struct {
	store Store
	log   logrus.FieldLogger
}

func NewRegistry(store Store, log logrus.FieldLogger) *Registry {
	return &Registry{store: store, log: log}
}

// ResolveProvider returns the venue's primary provider tag. Unmapped venues
// and store failures both report false.
func (r *Registry) ResolveProvider(ctx context.Context, venueID string) (string, bool) {
	p, err := r.store.GetProvider(ctx, venueID)
	if err != nil {
		if !errors.Is(err, internaltypes.ErrNotFound) {
			r.log.WithError(err).WithField("venue_id", venueID).Warn("provider lookup failed, treating venue as unmapped")
		}
		return "", false
	}
	p = strings.ToLower(strings.TrimSpace(p))
	return p, p != ""
}

func (r *Registry) Lookup(ctx context.Context, venueID string) (reservation.Venue, bool, error) {
	v, err := r.store.GetVenue(ctx, venueID)
	if err != nil {
		if errors.Is(err, internaltypes.ErrNotFound) {
			return reservation.Venue{}, false, nil
		}
		return reservation.Venue{}, false, err
	}
	return v, true, nil
}

// NormalizeDomain trims and lowercases d and strips the scheme, a leading
// "www." and trailing slashes.
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	return strings.TrimRight(d, "/")
}

// FindByDomain matches the normalized domain exactly against the normalized
// stored domains of the substring candidates.
func (r *Registry) FindByDomain(ctx context.Context, domain string) (reservation.Venue, bool, error) {
	want := NormalizeDomain(domain)
	if want == "" {
		return reservation.Venue{}, false, nil
	}
	candidates, err := r.store.SearchDomain(ctx, want)
	if err != nil {
		return reservation.Venue{}, false, err
	}
	for _, c := range candidates {
		if c.Domain != "" && NormalizeDomain(c.Domain) == want {
			return c, true, nil
		}
	}
	return reservation.Venue{}, false, nil
}

func (r *Registry) List(ctx context.Context, f Filter) ([]reservation.Venue, error) {
	vs, err := r.store.ListVenues(ctx, f)
	if err != nil {
		return nil, err
	}
	if vs == nil {
		vs = []reservation.Venue{}
	}
	return vs, nil
}

func (r *Registry) ListByProvider(ctx context.Context, provider string) ([]reservation.Venue, error) {
	vs, err := r.store.ListByProvider(ctx, strings.ToLower(strings.TrimSpace(provider)))
	if err != nil {
		return nil, err
	}
	if vs == nil {
		vs = []reservation.Venue{}
	}
	return vs, nil
}

func (r *Registry) Count(ctx context.Context) (int, error) {
	return r.store.CountVenues(ctx)
}

// Seed upserts vs and returns how many were written.
func (r *Registry) Seed(ctx context.Context, vs []reservation.Venue) (int, error) {
	n := 0
	for _, v := range vs {
		if strings.TrimSpace(v.VenueID) == "" {
			return n, internaltypes.Validation("venue_id is required", nil)
		}
		if err := r.store.UpsertVenue(ctx, v); err != nil {
			return n, err
		}
		n++
	}
	r.log.WithField("count", n).Info("venues seeded")
	return n, nil
}
