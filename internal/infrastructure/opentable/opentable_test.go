package opentable

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/bookinghub/internal/domain/reservation"
)

const availabilityJSON = `{"data":{"availability":[{"availabilityDays":[{"slots":[
 {"isAvailable":true,"reservationDateTime":"2025-01-15T19:00:00Z","slotAvailabilityToken":"tok-1900","slotHash":"h-1900"},
 {"isAvailable":false,"reservationDateTime":"2025-01-15T19:15:00Z","slotAvailabilityToken":"tok-1915","slotHash":"h-1915"},
 {"isAvailable":true,"reservationDateTime":"2025-01-15T19:30:00Z","slotAvailabilityToken":"tok-1930","slotHash":"h-1930"}
]}]}]}}`

func newTestProvider(t *testing.T, booked *map[string]any) *Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-csrf-token") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/fe/gql"):
			_, _ = w.Write([]byte(availabilityJSON))
		case r.URL.Path == "/booking/make-reservation":
			if booked != nil {
				_ = json.NewDecoder(r.Body).Decode(booked)
			}
			_, _ = w.Write([]byte(`{"confirmationNumber":123456,"restaurantName":"Test Bistro"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return New(Config{Token: "secret", BaseURL: srv.URL, HTTPClient: srv.Client()})
}

func TestAvailabilityListsOpenSlots(t *testing.T) {
	p := newTestProvider(t, nil)
	slots, err := p.Availability(context.Background(), "42", "restaurant", map[string]any{"date": "2025-01-15", "party_size": 2})
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if len(slots) != 2 || slots[0].Time != "19:00" || slots[1].Time != "19:30" {
		t.Fatalf("slots = %+v", slots)
	}
}

func TestBookClaimsRequestedSlot(t *testing.T) {
	var sent map[string]any
	p := newTestProvider(t, &sent)
	b, err := p.Book(context.Background(), reservation.BookRequest{
		Reference: "booking_aaaaaaaaaaaa", VenueID: "42", Category: "restaurant",
		Params:       map[string]any{"date": "2025-01-15", "time": "19:30", "party_size": json.Number("2")},
		CustomerName: "John Doe", CustomerEmail: "john@example.com", CustomerPhone: "+33612345678",
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if b.ID != "booking_aaaaaaaaaaaa" || b.ProviderBookingID != "123456" || b.VenueName != "Test Bistro" {
		t.Fatalf("booking = %+v", b)
	}
	if sent["slotAvailabilityToken"] != "tok-1930" || sent["firstName"] != "John" || sent["lastName"] != "Doe" {
		t.Fatalf("payload = %v", sent)
	}
}

func TestBookUnavailableTime(t *testing.T) {
	p := newTestProvider(t, nil)
	_, err := p.Book(context.Background(), reservation.BookRequest{
		VenueID: "42", Params: map[string]any{"date": "2025-01-15", "time": "19:15", "party_size": 2},
	})
	if err == nil || !strings.Contains(err.Error(), "no open slot") {
		t.Fatalf("err = %v", err)
	}
}

func TestPingRequiresToken(t *testing.T) {
	if err := New(Config{}).Ping(context.Background()); err == nil {
		t.Fatal("expected error without token")
	}
	if _, err := New(Config{Token: "x"}).Cancel(context.Background(), "1"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Cancel err = %v", err)
	}
}

func TestAvailabilityRejectsNonIntegerPartySize(t *testing.T) {
	p := newTestProvider(t, nil)
	for _, v := range []any{2.5, json.Number("2.5"), "2"} {
		if _, err := p.Availability(context.Background(), "42", "restaurant", map[string]any{"date": "2025-01-15", "party_size": v}); err == nil {
			t.Errorf("party_size %#v accepted", v)
		}
	}
}
