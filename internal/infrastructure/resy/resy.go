package resy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/schema"
)

const ProviderName = "resy"

const defaultBaseURL = "https://api.resy.com"

var ErrUnsupported = errors.New("resy: operation not supported")

// Config carries the API key and auth token captured from an authenticated
// browser session.
type Config struct {
	APIKey     string
	AuthToken  string
	BaseURL    string
	HTTPClient *http.Client

	// VenueID maps a registry venue id to the Resy venue id.
	VenueID func(ctx context.Context, venueID string) string
}

type Provider struct {
	hc   *http.Client
	cfg  Config
	base string
}

func New(cfg Config) *Provider {
	base := defaultBaseURL
	if strings.TrimSpace(cfg.BaseURL) != "" {
		base = cfg.BaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{hc: hc, cfg: cfg, base: strings.TrimRight(base, "/")}
}

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) Ping(ctx context.Context) error {
	if p.cfg.APIKey == "" || p.cfg.AuthToken == "" {
		return errors.New("RESY_API_KEY and RESY_AUTH_TOKEN are required")
	}
	status, body, err := p.do(ctx, http.MethodGet, "/2/user", "", nil, nil)
	if err != nil {
		return err
	}
	if status >= 400 {
		var r struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &r)
		if r.Message != "" {
			return fmt.Errorf("resy ping failed: %s (status=%d)", r.Message, status)
		}
		return fmt.Errorf("resy ping failed (status=%d)", status)
	}
	return nil
}

func (p *Provider) Search(ctx context.Context, q reservation.SearchQuery) ([]reservation.VenueResult, error) {
	return nil, ErrUnsupported
}

func (p *Provider) Availability(ctx context.Context, venueID, category string, params map[string]any) ([]reservation.TimeSlot, error) {
	day, partySize, err := dayAndParty(params)
	if err != nil {
		return nil, err
	}
	ss, err := p.fetchSlots(ctx, p.venueID(ctx, venueID), day, partySize)
	if err != nil {
		return nil, err
	}
	out := make([]reservation.TimeSlot, 0, len(ss))
	for _, s := range ss {
		hhmm, ok := s.hhmm()
		if !ok {
			continue
		}
		out = append(out, reservation.TimeSlot{Time: hhmm, Available: true, CoversAvailable: partySize})
	}
	return out, nil
}

// Book claims the first slot at params["time"], optionally restricted to the
// seating types listed in params["seating"] (comma separated).
func (p *Provider) Book(ctx context.Context, req reservation.BookRequest) (reservation.Booking, error) {
	day, partySize, err := dayAndParty(req.Params)
	if err != nil {
		return reservation.Booking{}, err
	}
	hhmm, _ := req.Params["time"].(string)
	seating, _ := req.Params["seating"].(string)

	ss, err := p.fetchSlots(ctx, p.venueID(ctx, req.VenueID), day, partySize)
	if err != nil {
		return reservation.Booking{}, err
	}
	matching := findMatches(ss, hhmm, splitCSV(seating))
	if len(matching) == 0 {
		return reservation.Booking{}, fmt.Errorf("resy: no open slot at %s", hhmm)
	}

	var lastErr error
	for _, s := range matching {
		token, err := p.bookSlot(ctx, day, partySize, s)
		if err != nil {
			lastErr = err
			continue
		}
		return reservation.Booking{
			ID:                req.Reference,
			ProviderBookingID: token,
			VenueID:           req.VenueID,
			Category:          req.Category,
			Params:            req.Params,
			CustomerName:      req.CustomerName,
			Status:            reservation.StatusConfirmed,
		}, nil
	}
	return reservation.Booking{}, fmt.Errorf("resy: could not book any matching slot: %w", lastErr)
}

func (p *Provider) Cancel(ctx context.Context, providerBookingID string) (bool, error) {
	form := "resy_token=" + url.QueryEscape(providerBookingID)
	status, body, err := p.do(ctx, http.MethodPost, "/3/cancel", "application/x-www-form-urlencoded", nil, []byte(form))
	if err != nil {
		return false, err
	}
	if status == http.StatusNotFound {
		return false, nil
	}
	if status >= 400 {
		return false, fmt.Errorf("resy cancel failed (status=%d): %s", status, string(body))
	}
	return true, nil
}

type slot struct {
	Date struct {
		Start string `json:"start"`
	} `json:"date"`
	Config struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	} `json:"config"`
}

// hhmm extracts "19:30" from a start like "2025-01-15 19:30:00".
func (s slot) hhmm() (string, bool) {
	pieces := strings.Split(s.Date.Start, " ")
	if len(pieces) < 2 || len(pieces[1]) < 5 {
		return "", false
	}
	return pieces[1][:5], true
}

func (p *Provider) fetchSlots(ctx context.Context, venueID string, day time.Time, partySize int) ([]slot, error) {
	if err := p.Ping(ctx); err != nil {
		return nil, err
	}
	query := map[string]string{
		"party_size": strconv.Itoa(partySize),
		"venue_id":   venueID,
		"day":        day.Format("2006-01-02"),
		"lat":        "0",
		"long":       "0",
	}
	status, body, err := p.do(ctx, http.MethodGet, "/4/find", "", query, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch slots (status=%d)", status)
	}
	var res struct {
		Results struct {
			Venues []struct {
				Slots []slot `json:"slots"`
			} `json:"venues"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("resy parse slots: %w", err)
	}
	if len(res.Results.Venues) == 0 {
		return nil, nil
	}
	return res.Results.Venues[0].Slots, nil
}

func findMatches(ss []slot, hhmm string, types []string) []slot {
	var out []slot
	for _, s := range ss {
		t, ok := s.hhmm()
		if !ok || t != hhmm {
			continue
		}
		if len(types) > 0 && !containsFold(types, s.Config.Type) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// bookSlot exchanges the slot config for a book token, then books it and
// returns the resy_token identifying the reservation.
func (p *Provider) bookSlot(ctx context.Context, day time.Time, partySize int, s slot) (string, error) {
	jb, err := json.Marshal(struct {
		ConfigID  string `json:"config_id"`
		Day       string `json:"day"`
		PartySize int    `json:"party_size"`
	}{s.Config.Token, day.Format("2006-01-02"), partySize})
	if err != nil {
		return "", err
	}
	status, body, err := p.do(ctx, http.MethodPost, "/3/details", "application/json", nil, jb)
	if err != nil {
		return "", err
	}
	if status >= 400 || len(body) == 0 {
		return "", fmt.Errorf("failed to get booking details (status=%d)", status)
	}
	var details struct {
		BookToken struct {
			Value string `json:"value"`
		} `json:"book_token"`
		User struct {
			PaymentMethods []struct {
				ID int64 `json:"id"`
			} `json:"payment_methods"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &details); err != nil {
		return "", fmt.Errorf("resy parse details: %w", err)
	}

	form := url.Values{}
	form.Set("book_token", details.BookToken.Value)
	if len(details.User.PaymentMethods) > 0 {
		pb, _ := json.Marshal(struct {
			ID int64 `json:"id"`
		}{details.User.PaymentMethods[0].ID})
		form.Set("struct_payment_method", string(pb))
	}
	status, body, err = p.do(ctx, http.MethodPost, "/3/book", "application/x-www-form-urlencoded", nil, []byte(form.Encode()))
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", fmt.Errorf("failed to book reservation (status=%d)", status)
	}
	var booked struct {
		ResyToken string `json:"resy_token"`
	}
	if err := json.Unmarshal(body, &booked); err != nil {
		return "", fmt.Errorf("resy parse booking: %w", err)
	}
	if booked.ResyToken == "" {
		return "", errors.New("resy booking response has no resy_token")
	}
	return booked.ResyToken, nil
}

func (p *Provider) do(ctx context.Context, method, path, contentType string, query map[string]string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.base+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("user-agent", "Mozilla/5.0 (X11; Linux x86_64) bookinghub/1.0")
	req.Header.Set("origin", "https://resy.com")
	req.Header.Set("x-origin", "https://resy.com")
	req.Header.Set("cache-control", "no-cache")
	if contentType != "" {
		req.Header.Set("content-type", contentType)
	}
	req.Header.Set("authorization", fmt.Sprintf(`ResyAPI api_key="%s"`, p.cfg.APIKey))
	req.Header.Set("x-resy-auth-token", p.cfg.AuthToken)
	req.Header.Set("x-resy-universal-auth", p.cfg.AuthToken)

	if len(query) > 0 {
		q := req.URL.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	res, err := p.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, b, nil
}

func (p *Provider) venueID(ctx context.Context, venueID string) string {
	if p.cfg.VenueID == nil {
		return venueID
	}
	if id := p.cfg.VenueID(ctx, venueID); id != "" {
		return id
	}
	return venueID
}

func dayAndParty(params map[string]any) (time.Time, int, error) {
	ds, _ := params["date"].(string)
	day, err := time.Parse("2006-01-02", ds)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("resy: invalid date %q", ds)
	}
	partySize, ok := schema.Int(params["party_size"])
	if !ok || partySize <= 0 {
		return time.Time{}, 0, errors.New("resy: party_size must be > 0")
	}
	return day, int(partySize), nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
