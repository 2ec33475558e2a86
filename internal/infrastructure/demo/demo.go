// Package demo is a mock booking provider backed by static tables. It never
// leaves the process.
package demo

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/example/bookinghub/internal/domain/reservation"
)

const ProviderName = "demo"

type venue struct {
	ID         string
	Name       string
	Address    string
	Cuisine    string
	Service    string
	Activity   string
	PriceRange string
	Rating     float64
}

func (v venue) attr(key string) string {
	switch key {
	case "cuisine":
		return v.Cuisine
	case "service":
		return v.Service
	case "activity":
		return v.Activity
	case "price_range":
		return v.PriceRange
	}
	return ""
}

// venues is keyed by category, then lowercase city.
var venues = map[string]map[string][]venue{
	"restaurant": {
		"paris": {
			{ID: "demo_paris_001", Name: "The Golden Fork", Address: "15 Avenue des Champs, 75008 Paris", Cuisine: "French", PriceRange: "$$$", Rating: 4.5},
			{ID: "demo_paris_002", Name: "Urban Garden", Address: "42 Rue de Rivoli, 75001 Paris", Cuisine: "Contemporary", PriceRange: "$$", Rating: 4.8},
			{ID: "demo_paris_003", Name: "Sakura Blossom", Address: "8 Rue Saint-Anne, 75001 Paris", Cuisine: "Japanese", PriceRange: "$$$", Rating: 4.6},
			{ID: "demo_paris_004", Name: "The Blue Oyster", Address: "23 Boulevard Saint-Germain, 75005 Paris", Cuisine: "Seafood", PriceRange: "$$$$", Rating: 4.7},
		},
		"london": {
			{ID: "demo_london_001", Name: "The Gilded Plate", Address: "127 Kensington High Street, London W8", Cuisine: "British", PriceRange: "$$$$", Rating: 4.8},
			{ID: "demo_london_002", Name: "Spice Route", Address: "45 Brick Lane, London E1", Cuisine: "Indian", PriceRange: "$$", Rating: 4.6},
			{ID: "demo_london_003", Name: "The Green Table", Address: "88 Borough Market, London SE1", Cuisine: "Vegetarian", PriceRange: "$$", Rating: 4.7},
		},
		"new york": {
			{ID: "demo_nyc_001", Name: "Manhattan Nights", Address: "350 5th Avenue, New York, NY 10118", Cuisine: "American", PriceRange: "$$$", Rating: 4.7},
			{ID: "demo_nyc_002", Name: "Little Italy Kitchen", Address: "156 Mulberry Street, New York, NY 10013", Cuisine: "Italian", PriceRange: "$$", Rating: 4.5},
			{ID: "demo_nyc_003", Name: "Harlem Soul", Address: "2340 Frederick Douglass Blvd, New York, NY 10027", Cuisine: "Soul Food", PriceRange: "$$", Rating: 4.8},
		},
	},
	"hair_salon": {
		"paris": {
			{ID: "demo_paris_hair_001", Name: "Salon Chic", Address: "10 Rue du Faubourg, 75008 Paris", Service: "Haircut", Rating: 4.6},
			{ID: "demo_paris_hair_002", Name: "Cut & Color Studio", Address: "55 Avenue Montaigne, 75008 Paris", Service: "Coloring", Rating: 4.9},
		},
		"london": {
			{ID: "demo_london_hair_001", Name: "Blade & Fade", Address: "22 Soho Square, London W1", Service: "Haircut", Rating: 4.7},
		},
	},
	"spa": {
		"paris": {
			{ID: "demo_paris_spa_001", Name: "Zen Retreat", Address: "18 Place Vendome, 75001 Paris", Service: "Massage", Rating: 4.8},
		},
	},
	"fitness": {
		"paris": {
			{ID: "demo_paris_fit_001", Name: "Studio Souffle", Address: "31 Rue Oberkampf, 75011 Paris", Activity: "Yoga", Rating: 4.7},
		},
		"london": {
			{ID: "demo_london_fit_001", Name: "Iron Yard", Address: "9 Shoreditch High Street, London E1", Activity: "CrossFit", Rating: 4.5},
		},
	},
}

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return ProviderName }

func (a *Adapter) Ping(ctx context.Context) error { return ctx.Err() }

// Search filters by case-insensitive substring on the venue attribute named by
// each filter key. Empty filter values are ignored.
func (a *Adapter) Search(ctx context.Context, q reservation.SearchQuery) ([]reservation.VenueResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	category := strings.ReplaceAll(strings.ToLower(q.Category), " ", "_")
	candidates := venues[category][strings.ToLower(strings.TrimSpace(q.City))]

	out := []reservation.VenueResult{}
	for _, v := range candidates {
		if !matches(v, q.Filters) {
			continue
		}
		rating := v.Rating
		out = append(out, reservation.VenueResult{
			ID:         v.ID,
			Name:       v.Name,
			Address:    v.Address,
			Category:   category,
			Provider:   ProviderName,
			Rating:     &rating,
			Cuisine:    v.Cuisine,
			Service:    v.Service,
			Activity:   v.Activity,
			PriceRange: v.PriceRange,
		})
	}
	return out, nil
}

func matches(v venue, filters map[string]string) bool {
	for k, want := range filters {
		if want == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(v.attr(k)), strings.ToLower(want)) {
			return false
		}
	}
	return true
}

// Availability returns lunch (12:00-14:00) and dinner (19:00-22:00) slots.
// Whether a slot is open is a stable function of venue, date and time.
func (a *Adapter) Availability(ctx context.Context, venueID, category string, params map[string]any) ([]reservation.TimeSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	date, _ := params["date"].(string)

	var slots []reservation.TimeSlot
	add := func(hour, minute int, closedEvery, baseCovers, spread uint32) {
		t := fmt.Sprintf("%02d:%02d", hour, minute)
		open := hash(venueID+date+t)%closedEvery != 0
		covers := 0
		if open {
			covers = int(hash(venueID+date+t+"covers")%spread + baseCovers)
		}
		slots = append(slots, reservation.TimeSlot{Time: t, Available: open, CoversAvailable: covers})
	}
	for hour := 12; hour <= 14; hour++ {
		for _, minute := range []int{0, 30} {
			if hour == 14 && minute == 30 {
				continue
			}
			add(hour, minute, 3, 5, 20)
		}
	}
	for hour := 19; hour <= 22; hour++ {
		for _, minute := range []int{0, 30} {
			if hour == 22 && minute == 30 {
				continue
			}
			add(hour, minute, 4, 10, 25)
		}
	}
	return slots, nil
}

func hash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

func (a *Adapter) Book(ctx context.Context, req reservation.BookRequest) (reservation.Booking, error) {
	if err := ctx.Err(); err != nil {
		return reservation.Booking{}, err
	}
	if req.Reference == "" {
		return reservation.Booking{}, fmt.Errorf("demo: booking reference is required")
	}
	return reservation.Booking{
		ID:                req.Reference,
		ProviderBookingID: req.Reference,
		VenueID:           req.VenueID,
		VenueName:         venueName(req.VenueID),
		Category:          req.Category,
		Params:            req.Params,
		CustomerName:      req.CustomerName,
		Status:            reservation.StatusConfirmed,
	}, nil
}

// Cancel always succeeds.
func (a *Adapter) Cancel(ctx context.Context, providerBookingID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}

func venueName(id string) string {
	for _, byCity := range venues {
		for _, list := range byCity {
			for _, v := range list {
				if v.ID == id {
					return v.Name
				}
			}
		}
	}
	return "Unknown Venue"
}
