// Package dispatch is the booking facade: it validates caller input, routes
// each venue to its provider adapter and keeps the ledger in step.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/infrastructure/events"
	"github.com/example/bookinghub/internal/internaltypes"
	"github.com/example/bookinghub/internal/ledger"
	"github.com/example/bookinghub/internal/schema"
	"github.com/example/bookinghub/internal/venues"
)

type VenueRegistry interface {
	ResolveProvider(ctx context.Context, venueID string) (string, bool)
	Lookup(ctx context.Context, venueID string) (reservation.Venue, bool, error)
	FindByDomain(ctx context.Context, domain string) (reservation.Venue, bool, error)
	List(ctx context.Context, f venues.Filter) ([]reservation.Venue, error)
}

type Ledger interface {
	CheckSlotAvailable(ctx context.Context, venueID, category, date, hhmm string, partySize int) bool
	PersistBooking(ctx context.Context, nr ledger.NewRecord) ledger.Record
	UpdateBookingStatus(ctx context.Context, bookingID string, status reservation.BookingStatus) bool
	GetBooking(ctx context.Context, bookingID string) (ledger.Record, bool)
	ListBookings(ctx context.Context, f ledger.Filter) []ledger.Record
}

type Providers interface {
	Get(tag string) (reservation.Adapter, error)
	Default() (reservation.Adapter, error)
	DefaultTag() string
}

type Deps struct {
	Venues    VenueRegistry
	Ledger    Ledger
	Providers Providers
	Events    events.Publisher
	Log       logrus.FieldLogger
	// NewBookingID defaults to ledger.GenerateBookingID.
	NewBookingID func() string
}

type Service struct {
	venues    VenueRegistry
	ledger    Ledger
	providers Providers
	events    events.Publisher
	log       logrus.FieldLogger
	newID     func() string
	tracer    trace.Tracer
}

func New(d Deps) *Service {
	s := &Service{
		venues:    d.Venues,
		ledger:    d.Ledger,
		providers: d.Providers,
		events:    d.Events,
		log:       d.Log,
		newID:     d.NewBookingID,
		tracer:    otel.Tracer("github.com/example/bookinghub/internal/application/dispatch"),
	}
	if s.events == nil {
		s.events = events.Noop{}
	}
	if s.newID == nil {
		s.newID = ledger.GenerateBookingID
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

func (s *Service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "dispatch."+op, trace.WithAttributes(attrs...))
}

// end records err on the span and closes it.
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func invalidCategory(category string) error {
	return internaltypes.Validation("Invalid category: "+category, map[string]any{
		"available_categories": schema.Categories(),
	})
}

// Filters is the get_filters response.
type Filters struct {
	Category   string                 `json:"category"`
	Operation  string                 `json:"operation"`
	Parameters schema.ParameterSchema `json:"parameters"`
}

func (s *Service) GetFilters(ctx context.Context, category, operation string) (Filters, error) {
	params := schema.For(category, operation)
	if params.Empty() {
		return Filters{}, internaltypes.Validation(
			fmt.Sprintf("Unknown category '%s' or operation '%s'", category, operation),
			map[string]any{
				"available_categories": schema.Categories(),
				"available_operations": schema.Operations(),
			})
	}
	return Filters{
		Category:   schema.NormalizeCategory(category),
		Operation:  strings.ToLower(operation),
		Parameters: params,
	}, nil
}

type SearchRequest struct {
	Category  string            `json:"category"`
	City      string            `json:"city"`
	Date      string            `json:"date"`
	PartySize int               `json:"party_size"`
	Filters   map[string]string `json:"filters,omitempty"`
}

type SearchResult struct {
	Count  int                       `json:"count"`
	Search SearchRequest             `json:"search"`
	Venues []reservation.VenueResult `json:"venues"`
}

// Search runs the baseline checks and asks the default adapter. Search is
// not venue-scoped, so there is no registry lookup.
func (s *Service) Search(ctx context.Context, req SearchRequest) (res SearchResult, err error) {
	ctx, span := s.start(ctx, "search", attribute.String("category", req.Category), attribute.String("city", req.City))
	defer func() { end(span, err) }()

	category, ok := schema.ParseCategory(req.Category)
	if !ok {
		return SearchResult{}, invalidCategory(req.Category)
	}
	city := strings.TrimSpace(req.City)
	if city == "" {
		return SearchResult{}, internaltypes.Validation("city is required", nil)
	}
	if utf8.RuneCountInString(req.Date) != 10 {
		return SearchResult{}, internaltypes.Validation("date must be in YYYY-MM-DD format", nil)
	}
	if req.PartySize < 1 {
		return SearchResult{}, internaltypes.Validation("party_size must be a positive integer", nil)
	}

	adapter, err := s.providers.Default()
	if err != nil {
		return SearchResult{}, fmt.Errorf("default adapter: %w", err)
	}
	found, err := adapter.Search(ctx, reservation.SearchQuery{
		City:      city,
		Date:      req.Date,
		PartySize: req.PartySize,
		Category:  string(category),
		Filters:   req.Filters,
	})
	if err != nil {
		return SearchResult{}, internaltypes.Provider("Search failed", err)
	}
	if found == nil {
		found = []reservation.VenueResult{}
	}
	return SearchResult{Count: len(found), Search: req, Venues: found}, nil
}

// adapterFor resolves the venue's provider, falling back to the default
// adapter when the venue is unmapped or its provider is not registered.
func (s *Service) adapterFor(ctx context.Context, venueID string) (reservation.Adapter, string, error) {
	if tag, ok := s.venues.ResolveProvider(ctx, venueID); ok {
		a, err := s.providers.Get(tag)
		if err == nil {
			return a, tag, nil
		}
		s.log.WithError(err).WithFields(logrus.Fields{"venue_id": venueID, "provider": tag}).
			Warn("mapped provider unavailable, using default adapter")
	}
	a, err := s.providers.Default()
	if err != nil {
		return nil, "", fmt.Errorf("default adapter: %w", err)
	}
	return a, s.providers.DefaultTag(), nil
}

// checkParams runs the category check and the schema validator.
func checkParams(category string, op schema.Operation, params map[string]any) (schema.Category, error) {
	c, ok := schema.ParseCategory(category)
	if !ok {
		return "", invalidCategory(category)
	}
	if valid, msg := schema.Validate(string(c), string(op), params); !valid {
		return "", internaltypes.Validation(msg, map[string]any{
			"expected_params": schema.For(string(c), string(op)),
		})
	}
	return c, nil
}

type AvailabilityRequest struct {
	VenueID  string         `json:"venue_id"`
	Category string         `json:"category"`
	Params   map[string]any `json:"params"`
}

type Availability struct {
	VenueID  string                 `json:"venue_id"`
	Category string                 `json:"category"`
	Params   map[string]any         `json:"params"`
	Slots    []reservation.TimeSlot `json:"slots"`
}

func (s *Service) CheckAvailability(ctx context.Context, req AvailabilityRequest) (res Availability, err error) {
	ctx, span := s.start(ctx, "check_availability", attribute.String("venue_id", req.VenueID), attribute.String("category", req.Category))
	defer func() { end(span, err) }()

	category, err := checkParams(req.Category, schema.OpCheckAvailability, req.Params)
	if err != nil {
		return Availability{}, err
	}
	adapter, tag, err := s.adapterFor(ctx, req.VenueID)
	if err != nil {
		return Availability{}, err
	}
	span.SetAttributes(attribute.String("provider", tag))

	slots, err := adapter.Availability(ctx, req.VenueID, string(category), req.Params)
	if err != nil {
		return Availability{}, internaltypes.Provider("Failed to check availability", err)
	}
	if slots == nil {
		slots = []reservation.TimeSlot{}
	}
	return Availability{VenueID: req.VenueID, Category: req.Category, Params: req.Params, Slots: slots}, nil
}

type BookRequest struct {
	VenueID       string         `json:"venue_id"`
	Category      string         `json:"category"`
	Params        map[string]any `json:"params"`
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
	CustomerPhone string         `json:"customer_phone"`
}

func checkCustomer(req BookRequest) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return internaltypes.Validation("customer_name is required", nil)
	}
	if !strings.Contains(req.CustomerEmail, "@") {
		return internaltypes.Validation("Valid customer_email is required", nil)
	}
	if strings.TrimSpace(req.CustomerPhone) == "" {
		return internaltypes.Validation("customer_phone is required", nil)
	}
	return nil
}

// Book returns the adapter's confirmation as is. The ledger write happens
// after the provider confirmed and cannot fail the call.
func (s *Service) Book(ctx context.Context, req BookRequest) (b reservation.Booking, err error) {
	ctx, span := s.start(ctx, "book", attribute.String("venue_id", req.VenueID), attribute.String("category", req.Category))
	defer func() { end(span, err) }()

	category, err := checkParams(req.Category, schema.OpBook, req.Params)
	if err != nil {
		return reservation.Booking{}, err
	}
	if err := checkCustomer(req); err != nil {
		return reservation.Booking{}, err
	}

	adapter, tag, err := s.adapterFor(ctx, req.VenueID)
	if err != nil {
		return reservation.Booking{}, err
	}
	span.SetAttributes(attribute.String("provider", tag))

	date, _ := req.Params["date"].(string)
	hhmm, _ := req.Params["time"].(string)
	party, _ := schema.Int(req.Params["party_size"])
	if !s.ledger.CheckSlotAvailable(ctx, req.VenueID, string(category), date, hhmm, int(party)) {
		return reservation.Booking{}, internaltypes.Conflict("Requested slot is not available")
	}

	id := s.newID()
	booking, err := adapter.Book(ctx, reservation.BookRequest{
		Reference:     id,
		VenueID:       req.VenueID,
		Category:      string(category),
		Params:        req.Params,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
	})
	if err != nil {
		return reservation.Booking{}, internaltypes.Provider("Failed to create booking", err)
	}
	if booking.ID == "" {
		booking.ID = id
	}
	span.SetAttributes(attribute.String("booking_id", booking.ID))

	rec := s.ledger.PersistBooking(ctx, ledger.NewRecord{
		BookingID:         booking.ID,
		VenueID:           req.VenueID,
		Provider:          tag,
		ProviderBookingID: booking.ProviderBookingID,
		Category:          string(category),
		Params:            req.Params,
		CustomerName:      strings.TrimSpace(req.CustomerName),
		CustomerEmail:     strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:     strings.TrimSpace(req.CustomerPhone),
		Status:            booking.Status,
	})
	s.publish(ctx, events.BookingConfirmed, rec)

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"venue_id":   req.VenueID,
		"provider":   tag,
		"persisted":  rec.Persisted,
	}).Info("booking confirmed")
	return booking, nil
}

type CancelResult struct {
	Success   bool   `json:"success"`
	BookingID string `json:"booking_id"`
	Message   string `json:"message"`
}

var errDeclined = errors.New("provider declined the cancellation")

// Cancel consults the ledger before the provider. A second cancel of the same
// booking is a conflict.
func (s *Service) Cancel(ctx context.Context, bookingID string) (res CancelResult, err error) {
	ctx, span := s.start(ctx, "cancel", attribute.String("booking_id", bookingID))
	defer func() { end(span, err) }()

	rec, ok := s.ledger.GetBooking(ctx, bookingID)
	if !ok {
		e := internaltypes.NotFound("Booking not found: %s", bookingID)
		e.Details = map[string]any{"booking_id": bookingID}
		return CancelResult{}, e
	}
	if rec.Status == reservation.StatusCancelled {
		return CancelResult{}, internaltypes.Conflict("Booking already cancelled: %s", bookingID)
	}

	adapter, err := s.providers.Get(rec.Provider)
	if err != nil {
		s.log.WithError(err).WithField("booking_id", bookingID).Warn("booking provider unavailable, using default adapter")
		if adapter, err = s.providers.Default(); err != nil {
			return CancelResult{}, fmt.Errorf("default adapter: %w", err)
		}
	}
	ref := rec.ProviderBookingID
	if ref == "" {
		ref = rec.BookingID
	}
	done, err := adapter.Cancel(ctx, ref)
	if err == nil && !done {
		err = errDeclined
	}
	if err != nil {
		return CancelResult{}, internaltypes.Provider("Failed to cancel booking", err)
	}

	if !s.ledger.UpdateBookingStatus(ctx, bookingID, reservation.StatusCancelled) {
		s.log.WithField("booking_id", bookingID).Warn("booking cancelled with provider but ledger status not updated")
	}
	rec.Status = reservation.StatusCancelled
	s.publish(ctx, events.BookingCancelled, rec)

	return CancelResult{Success: true, BookingID: bookingID, Message: "Booking cancelled successfully"}, nil
}

func (s *Service) publish(ctx context.Context, key string, rec ledger.Record) {
	err := s.events.Publish(ctx, key, events.BookingEvent{
		BookingID:  rec.BookingID,
		VenueID:    rec.VenueID,
		Provider:   rec.Provider,
		Category:   rec.Category,
		Status:     string(rec.Status),
		Persisted:  rec.Persisted,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"booking_id": rec.BookingID, "event": key}).Warn("event publish failed")
	}
}

func (s *Service) FindVenueByDomain(ctx context.Context, domain string) (v reservation.Venue, err error) {
	ctx, span := s.start(ctx, "find_venue_by_domain", attribute.String("domain", domain))
	defer func() { end(span, err) }()

	v, ok, err := s.venues.FindByDomain(ctx, domain)
	if err != nil {
		return reservation.Venue{}, fmt.Errorf("find venue by domain: %w", err)
	}
	if !ok {
		e := internaltypes.NotFound("No venue found for domain: %s", domain)
		e.Details = map[string]any{"domain": domain}
		return reservation.Venue{}, e
	}
	return v, nil
}

func (s *Service) GetVenueDetails(ctx context.Context, venueID string) (v reservation.Venue, err error) {
	ctx, span := s.start(ctx, "get_venue_details", attribute.String("venue_id", venueID))
	defer func() { end(span, err) }()

	v, ok, err := s.venues.Lookup(ctx, venueID)
	if err != nil {
		return reservation.Venue{}, fmt.Errorf("venue lookup: %w", err)
	}
	if !ok {
		e := internaltypes.NotFound("Venue not found: %s", venueID)
		e.Details = map[string]any{"venue_id": venueID}
		return reservation.Venue{}, e
	}
	return v, nil
}

type VenueList struct {
	Count   int                 `json:"count"`
	Filters venues.Filter       `json:"filters"`
	Venues  []reservation.Venue `json:"venues"`
}

// ListVenues filters by category and city; both are optional.
func (s *Service) ListVenues(ctx context.Context, category, city string) (res VenueList, err error) {
	ctx, span := s.start(ctx, "list_venues", attribute.String("category", category), attribute.String("city", city))
	defer func() { end(span, err) }()

	f := venues.Filter{City: strings.TrimSpace(city)}
	if category != "" {
		c, ok := schema.ParseCategory(category)
		if !ok {
			return VenueList{}, invalidCategory(category)
		}
		f.Category = string(c)
	}
	vs, err := s.venues.List(ctx, f)
	if err != nil {
		return VenueList{}, fmt.Errorf("list venues: %w", err)
	}
	return VenueList{Count: len(vs), Filters: f, Venues: vs}, nil
}

// BookingStatus is the caller-facing view of a ledger record.
type BookingStatus struct {
	BookingID         string                    `json:"booking_id"`
	Status            reservation.BookingStatus `json:"status"`
	VenueID           string                    `json:"venue_id"`
	Provider          string                    `json:"provider"`
	ProviderBookingID string                    `json:"provider_booking_id,omitempty"`
	Category          string                    `json:"category"`
	Params            map[string]any            `json:"params"`
	CustomerName      string                    `json:"customer_name"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

func (s *Service) GetBookingStatus(ctx context.Context, bookingID string) (st BookingStatus, err error) {
	ctx, span := s.start(ctx, "get_booking_status", attribute.String("booking_id", bookingID))
	defer func() { end(span, err) }()

	rec, ok := s.ledger.GetBooking(ctx, bookingID)
	if !ok {
		e := internaltypes.NotFound("Booking not found: %s", bookingID)
		e.Details = map[string]any{"booking_id": bookingID}
		return BookingStatus{}, e
	}
	return BookingStatus{
		BookingID:         rec.BookingID,
		Status:            rec.Status,
		VenueID:           rec.VenueID,
		Provider:          rec.Provider,
		ProviderBookingID: rec.ProviderBookingID,
		Category:          rec.Category,
		Params:            rec.Params,
		CustomerName:      rec.CustomerName,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}, nil
}

type BookingList struct {
	Count    int             `json:"count"`
	Filters  ledger.Filter   `json:"filters"`
	Bookings []ledger.Record `json:"bookings"`
}

func (s *Service) ListBookings(ctx context.Context, f ledger.Filter) BookingList {
	ctx, span := s.start(ctx, "list_bookings")
	defer span.End()

	rs := s.ledger.ListBookings(ctx, f)
	return BookingList{Count: len(rs), Filters: f, Bookings: rs}
}
