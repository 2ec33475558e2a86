// Package ledger keeps the local record of bookings confirmed with providers.
//
// The provider is the source of truth for a reservation. Every ledger
// operation therefore degrades instead of failing: reads that cannot reach the
// store report "absent" or an empty list, writes report false or a record
// flagged as not persisted, and the slot check answers "available".
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/internaltypes"
)

const IDPrefix = "booking_"

const idHexLen = 12

// Record is a ledger entry.
type Record struct {
	BookingID         string                    `json:"booking_id"`
	VenueID           string                    `json:"venue_id"`
	Provider          string                    `json:"provider"`
	ProviderBookingID string                    `json:"provider_booking_id,omitempty"`
	Category          string                    `json:"category"`
	Params            map[string]any            `json:"params"`
	CustomerName      string                    `json:"customer_name"`
	CustomerEmail     string                    `json:"customer_email"`
	CustomerPhone     string                    `json:"customer_phone"`
	Status            reservation.BookingStatus `json:"status"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
	Persisted         bool                      `json:"persisted"`
}

// NewRecord is what PersistBooking needs; timestamps are assigned by the ledger.
type NewRecord struct {
	BookingID         string
	VenueID           string
	Provider          string
	ProviderBookingID string
	Category          string
	Params            map[string]any
	CustomerName      string
	CustomerEmail     string
	CustomerPhone     string
	Status            reservation.BookingStatus
}

// Filter narrows ListBookings. Zero fields match everything.
type Filter struct {
	CustomerEmail string                    `json:"customer_email,omitempty"`
	VenueID       string                    `json:"venue_id,omitempty"`
	Status        reservation.BookingStatus `json:"status,omitempty"`
}

// Match reports whether r satisfies every set field of f.
func (f Filter) Match(r Record) bool {
	if f.CustomerEmail != "" && !strings.EqualFold(f.CustomerEmail, r.CustomerEmail) {
		return false
	}
	if f.VenueID != "" && f.VenueID != r.VenueID {
		return false
	}
	if f.Status != "" && f.Status != r.Status {
		return false
	}
	return true
}

// Store is the backing store. GetBooking returns internaltypes.ErrNotFound
// for unknown ids. UpdateStatus reports false when no row matched; a
// cancelled booking never matches.
type Store interface {
	InsertBooking(ctx context.Context, r Record) error
	GetBooking(ctx context.Context, bookingID string) (Record, error)
	UpdateStatus(ctx context.Context, bookingID string, status reservation.BookingStatus, at time.Time) (bool, error)
	ListBookings(ctx context.Context, f Filter) ([]Record, error)
}

type Option func(*Ledger)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

type Ledger struct {
	store Store
	log   logrus.FieldLogger
	now   func() time.Time
}

func New(store Store, log logrus.FieldLogger, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// GenerateBookingID returns IDPrefix followed by 12 lowercase hex characters
// taken from a random UUID.
func GenerateBookingID() string {
	id := uuid.New()
	return IDPrefix + strings.ReplaceAll(id.String(), "-", "")[:idHexLen]
}

// CheckSlotAvailable looks for confirmed bookings at the venue on the same
// date and time. Matches are logged only: the provider decides whether the
// slot is free, so the answer is always true.
func (l *Ledger) CheckSlotAvailable(ctx context.Context, venueID, category, date, hhmm string, partySize int) bool {
	existing, err := l.store.ListBookings(ctx, Filter{VenueID: venueID, Status: reservation.StatusConfirmed})
	if err != nil {
		l.log.WithError(err).WithField("venue_id", venueID).Warn("slot check: ledger unreachable, assuming available")
		return true
	}
	for _, r := range existing {
		d, _ := r.Params["date"].(string)
		t, _ := r.Params["time"].(string)
		if d == date && t == hhmm && r.Category == category {
			l.log.WithFields(logrus.Fields{
				"venue_id":   venueID,
				"date":       date,
				"time":       hhmm,
				"party_size": partySize,
				"existing":   r.BookingID,
			}).Info("slot check: confirmed booking already holds this slot")
		}
	}
	return true
}

// PersistBooking stores a provider-confirmed booking. A store failure is
// logged and the returned record has Persisted set to false.
func (l *Ledger) PersistBooking(ctx context.Context, nr NewRecord) Record {
	now := l.now()
	status := nr.Status
	if status == "" {
		status = reservation.StatusConfirmed
	}
	r := Record{
		BookingID:         nr.BookingID,
		VenueID:           nr.VenueID,
		Provider:          nr.Provider,
		ProviderBookingID: nr.ProviderBookingID,
		Category:          nr.Category,
		Params:            nr.Params,
		CustomerName:      nr.CustomerName,
		CustomerEmail:     nr.CustomerEmail,
		CustomerPhone:     nr.CustomerPhone,
		Status:            status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := l.store.InsertBooking(ctx, r); err != nil {
		l.log.WithError(err).WithField("booking_id", r.BookingID).Warn("booking confirmed by provider but not persisted")
		return r
	}
	r.Persisted = true
	return r
}

// UpdateBookingStatus reports whether the status was written. Cancelled is
// terminal: updates to a cancelled booking report false.
func (l *Ledger) UpdateBookingStatus(ctx context.Context, bookingID string, status reservation.BookingStatus) bool {
	ok, err := l.store.UpdateStatus(ctx, bookingID, status, l.now())
	if err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{"booking_id": bookingID, "status": status}).Warn("status update failed")
		return false
	}
	return ok
}

// GetBooking reports absence as false. Store failures are logged and also
// reported as absent.
func (l *Ledger) GetBooking(ctx context.Context, bookingID string) (Record, bool) {
	r, err := l.store.GetBooking(ctx, bookingID)
	if err != nil {
		if !errors.Is(err, internaltypes.ErrNotFound) {
			l.log.WithError(err).WithField("booking_id", bookingID).Warn("booking lookup failed")
		}
		return Record{}, false
	}
	r.Persisted = true
	return r, true
}

// ListBookings never fails; a store error yields an empty list.
func (l *Ledger) ListBookings(ctx context.Context, f Filter) []Record {
	rs, err := l.store.ListBookings(ctx, f)
	if err != nil {
		l.log.WithError(err).Warn("listing bookings failed")
		return []Record{}
	}
	if rs == nil {
		return []Record{}
	}
	for i := range rs {
		rs[i].Persisted = true
	}
	return rs
}
