package reservation

import "time"

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
	StatusNoShow    BookingStatus = "no_show"
)

// Venue is a registry record: a venue and its primary provider mapping, if any.
type Venue struct {
	VenueID    string         `json:"venue_id"`
	Name       string         `json:"name"`
	Category   string         `json:"category"`
	Address    string         `json:"address,omitempty"`
	City       string         `json:"city,omitempty"`
	Country    string         `json:"country,omitempty"`
	Domain     string         `json:"domain,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Provider   string         `json:"provider,omitempty"`
	ExternalID string         `json:"external_id,omitempty"`
}

// VenueResult is a venue as returned by a provider search.
type VenueResult struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Category   string   `json:"category"`
	Provider   string   `json:"provider"`
	Rating     *float64 `json:"rating,omitempty"`
	Cuisine    string   `json:"cuisine,omitempty"`
	Service    string   `json:"service,omitempty"`
	Activity   string   `json:"activity,omitempty"`
	PriceRange string   `json:"price_range,omitempty"`
}

type TimeSlot struct {
	Time            string `json:"time"`
	Available       bool   `json:"available"`
	CoversAvailable int    `json:"covers_available"`
}

// Booking is a provider confirmation.
type Booking struct {
	ID                string         `json:"id"`
	ProviderBookingID string         `json:"provider_booking_id,omitempty"`
	VenueID           string         `json:"venue_id"`
	VenueName         string         `json:"venue_name"`
	Category          string         `json:"category"`
	Params            map[string]any `json:"params"`
	CustomerName      string         `json:"customer_name"`
	Status            BookingStatus  `json:"status"`
}

type SearchQuery struct {
	City      string
	Date      string
	PartySize int
	Category  string
	Filters   map[string]string
}

type BookRequest struct {
	// Reference is the booking id minted by the ledger; adapters echo it as Booking.ID.
	Reference string

	VenueID  string
	Category string
	Params   map[string]any

	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// ProviderSlot is a bookable slot as a provider describes it, with the
// provider tokens needed to claim it.
type ProviderSlot struct {
	Start time.Time
	Meta  map[string]string
}
