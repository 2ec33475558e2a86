package opentable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/schema"
)

const ProviderName = "opentable"

const defaultBaseURL = "https://www.opentable.com/dapi"
const defaultUA = "Mozilla/5.0 (X11; Linux x86_64) bookinghub/1.0"
const defaultPersistedQuerySHA256 = "e6b87083b2dfc66e11d26f9bd6e98b8f6a9f4a3b7d0e9a2f33c9f1f6a0b9f2a1"

var ErrUnsupported = errors.New("opentable: operation not supported")

type Config struct {
	Token                string
	PersistedQuerySHA256 string
	BaseURL              string
	HTTPClient           *http.Client

	// RestaurantID maps a registry venue id to the OpenTable restaurant id.
	// Nil means the venue id is used as is.
	RestaurantID func(ctx context.Context, venueID string) string
}

type Provider struct {
	http *http.Client
	cfg  Config

	base string
	ua   string
	hash string
}

func New(cfg Config) *Provider {
	base := defaultBaseURL
	if strings.TrimSpace(cfg.BaseURL) != "" {
		base = cfg.BaseURL
	}
	hash := defaultPersistedQuerySHA256
	if strings.TrimSpace(cfg.PersistedQuerySHA256) != "" {
		hash = cfg.PersistedQuerySHA256
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	return &Provider{
		http: hc,
		cfg:  cfg,
		base: strings.TrimRight(base, "/"),
		ua:   defaultUA,
		hash: hash,
	}
}

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) Ping(ctx context.Context) error {
	if strings.TrimSpace(p.cfg.Token) == "" {
		return errors.New("OPENTABLE_TOKEN is empty")
	}
	return nil
}

// Search is not offered by the OpenTable integration; venues reach it through
// the registry mapping instead.
func (p *Provider) Search(ctx context.Context, q reservation.SearchQuery) ([]reservation.VenueResult, error) {
	return nil, ErrUnsupported
}

// Cancel is not offered by the OpenTable integration.
func (p *Provider) Cancel(ctx context.Context, providerBookingID string) (bool, error) {
	return false, ErrUnsupported
}

func (p *Provider) Availability(ctx context.Context, venueID, category string, params map[string]any) ([]reservation.TimeSlot, error) {
	day, partySize, err := dayAndParty(params)
	if err != nil {
		return nil, err
	}
	slots, err := p.findSlots(ctx, venueID, day, partySize)
	if err != nil {
		return nil, err
	}
	out := make([]reservation.TimeSlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, reservation.TimeSlot{Time: reservation.SlotTime(s), Available: true, CoversAvailable: partySize})
	}
	return out, nil
}

func dayAndParty(params map[string]any) (time.Time, int, error) {
	ds, _ := params["date"].(string)
	day, err := time.Parse("2006-01-02", ds)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("opentable: invalid date %q", ds)
	}
	partySize, ok := schema.Int(params["party_size"])
	if !ok || partySize <= 0 {
		return time.Time{}, 0, errors.New("opentable: party_size must be > 0")
	}
	return day, int(partySize), nil
}

func (p *Provider) findSlots(ctx context.Context, venueID string, day time.Time, partySize int) ([]reservation.ProviderSlot, error) {
	if err := p.Ping(ctx); err != nil {
		return nil, err
	}
	if venueID == "" {
		return nil, errors.New("venue id (restaurantId) is required")
	}
	restaurantID := p.restaurantID(ctx, venueID)

	payload := map[string]any{
		"operationName": "RestaurantsAvailability",
		"variables": map[string]any{
			"restaurantIds": []string{restaurantID},
			"partySize":     partySize,
			"dateTime":      day.Format("2006-01-02") + "T19:00:00.000",
			"forwardDays":   0,
			"includeOffers": true,
		},
		"extensions": map[string]any{
			"persistedQuery": map[string]any{
				"version":    1,
				"sha256Hash": p.hash,
			},
		},
	}

	body, err := p.post(ctx, "/fe/gql?optype=query&opname=RestaurantsAvailability", payload)
	if err != nil {
		return nil, fmt.Errorf("opentable availability: %w", err)
	}

	var parsed struct {
		Data struct {
			Availability []struct {
				AvailabilityDays []struct {
					Slots []struct {
						IsAvailable           bool   `json:"isAvailable"`
						ReservationDateTime   string `json:"reservationDateTime"`
						SlotAvailabilityToken string `json:"slotAvailabilityToken"`
						SlotHash              string `json:"slotHash"`
					} `json:"slots"`
				} `json:"availabilityDays"`
			} `json:"availability"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("opentable parse availability: %w", err)
	}

	out := make([]reservation.ProviderSlot, 0, 16)
	for _, a := range parsed.Data.Availability {
		for _, d := range a.AvailabilityDays {
			for _, s := range d.Slots {
				if !s.IsAvailable {
					continue
				}
				t, err := time.Parse(time.RFC3339Nano, s.ReservationDateTime)
				if err != nil {
					continue
				}
				out = append(out, reservation.ProviderSlot{
					Start: t,
					Meta: map[string]string{
						"slotAvailabilityToken": s.SlotAvailabilityToken,
						"slotHash":              s.SlotHash,
					},
				})
			}
		}
	}
	return out, nil
}

// Book claims the slot at params["time"] on params["date"].
func (p *Provider) Book(ctx context.Context, req reservation.BookRequest) (reservation.Booking, error) {
	day, partySize, err := dayAndParty(req.Params)
	if err != nil {
		return reservation.Booking{}, err
	}
	hhmm, _ := req.Params["time"].(string)

	slots, err := p.findSlots(ctx, req.VenueID, day, partySize)
	if err != nil {
		return reservation.Booking{}, err
	}
	var preferred []time.Time
	for _, s := range slots {
		if reservation.SlotTime(s) == hhmm {
			preferred = append(preferred, s.Start)
			break
		}
	}
	if len(preferred) == 0 {
		return reservation.Booking{}, fmt.Errorf("opentable: no open slot at %s", hhmm)
	}
	slot, _ := reservation.ChooseSlot(preferred, slots)

	tok := slot.Meta["slotAvailabilityToken"]
	hash := slot.Meta["slotHash"]
	if tok == "" || hash == "" {
		return reservation.Booking{}, errors.New("slot missing slotAvailabilityToken/slotHash")
	}

	first, last := splitName(req.CustomerName)
	payload := map[string]any{
		"restaurantId":          p.restaurantID(ctx, req.VenueID),
		"partySize":             partySize,
		"reservationDateTime":   slot.Start.Format(time.RFC3339),
		"slotAvailabilityToken": tok,
		"slotHash":              hash,
		"firstName":             first,
		"lastName":              last,
		"email":                 req.CustomerEmail,
		"phoneNumber":           req.CustomerPhone,
	}
	body, err := p.post(ctx, "/booking/make-reservation", payload)
	if err != nil {
		return reservation.Booking{}, fmt.Errorf("opentable book: %w", err)
	}

	var confirmation struct {
		ConfirmationNumber json.Number `json:"confirmationNumber"`
		RestaurantName     string      `json:"restaurantName"`
	}
	_ = json.Unmarshal(body, &confirmation)

	return reservation.Booking{
		ID:                req.Reference,
		ProviderBookingID: confirmation.ConfirmationNumber.String(),
		VenueID:           req.VenueID,
		VenueName:         confirmation.RestaurantName,
		Category:          req.Category,
		Params:            req.Params,
		CustomerName:      req.CustomerName,
		Status:            reservation.StatusConfirmed,
	}, nil
}

func (p *Provider) restaurantID(ctx context.Context, venueID string) string {
	if p.cfg.RestaurantID == nil {
		return venueID
	}
	if id := p.cfg.RestaurantID(ctx, venueID); id != "" {
		return id
	}
	return venueID
}

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if i := strings.LastIndex(full, " "); i > 0 {
		return full[:i], full[i+1:]
	}
	return full, ""
}

func (p *Provider) post(ctx context.Context, path string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("content-type", "application/json")
	hreq.Header.Set("user-agent", p.ua)
	hreq.Header.Set("x-csrf-token", p.cfg.Token)

	hresp, err := p.http.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer hresp.Body.Close()

	body, _ := io.ReadAll(hresp.Body)
	if hresp.StatusCode < 200 || hresp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d: %s", hresp.StatusCode, string(body))
	}
	return body, nil
}
