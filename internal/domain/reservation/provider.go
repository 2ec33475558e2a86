package reservation

import (
	"context"
)

// Adapter is the integration point for one booking provider.
type Adapter interface {
	Name() string
	Ping(ctx context.Context) error
	Search(ctx context.Context, q SearchQuery) ([]VenueResult, error)
	Availability(ctx context.Context, venueID, category string, params map[string]any) ([]TimeSlot, error)
	Book(ctx context.Context, req BookRequest) (Booking, error)
	Cancel(ctx context.Context, providerBookingID string) (bool, error)
}
