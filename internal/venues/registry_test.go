package venues_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/infrastructure/memory"
	"github.com/example/bookinghub/internal/logger"
	"github.com/example/bookinghub/internal/venues"
)

func seeded(t *testing.T) *venues.Registry {
	t.Helper()
	vs, err := venues.SeedVenues()
	if err != nil {
		t.Fatalf("SeedVenues: %v", err)
	}
	return venues.NewRegistry(memory.NewVenueStore(vs...), logger.Discard())
}

func TestSeedVenuesParse(t *testing.T) {
	vs, err := venues.SeedVenues()
	if err != nil {
		t.Fatalf("SeedVenues: %v", err)
	}
	if len(vs) < 10 {
		t.Fatalf("got %d seed venues", len(vs))
	}
	if _, err := venues.ParseSeed([]byte("venues:\n  - name: x\n")); err == nil {
		t.Fatal("expected error for entry without venue_id")
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := map[string]string{
		"goldenfork.example.com":                "goldenfork.example.com",
		"  HTTPS://WWW.GoldenFork.example.com/": "goldenfork.example.com",
		"http://goldenfork.example.com//":       "goldenfork.example.com",
		"www.goldenfork.example.com":            "goldenfork.example.com",
		"":                                      "",
	}
	for in, want := range tests {
		if got := venues.NormalizeDomain(in); got != want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFindByDomain(t *testing.T) {
	r := seeded(t)
	ctx := context.Background()

	tests := []struct {
		domain string
		want   string
	}{
		{"goldenfork.example.com", "demo_paris_001"},
		{"https://www.GoldenFork.example.com/", "demo_paris_001"},
		{"gramercycorner.example.com", "ot_nyc_001"},
		{"example.com", ""},
		{"fork.example.com", ""},
		{"unknown.example.org", ""},
	}
	for _, tc := range tests {
		v, ok, err := r.FindByDomain(ctx, tc.domain)
		if err != nil {
			t.Fatalf("FindByDomain(%q): %v", tc.domain, err)
		}
		if tc.want == "" {
			if ok {
				t.Errorf("FindByDomain(%q) = %s, want no match", tc.domain, v.VenueID)
			}
			continue
		}
		if !ok || v.VenueID != tc.want {
			t.Errorf("FindByDomain(%q) = %s/%v, want %s", tc.domain, v.VenueID, ok, tc.want)
		}
	}
}

func TestResolveProviderAndLookup(t *testing.T) {
	r := seeded(t)
	ctx := context.Background()

	if p, ok := r.ResolveProvider(ctx, "ot_nyc_001"); !ok || p != "opentable" {
		t.Fatalf("ResolveProvider = %q, %v", p, ok)
	}
	if p, ok := r.ResolveProvider(ctx, "resy_nyc_001"); !ok || p != "resy" {
		t.Fatalf("ResolveProvider(resy) = %q, %v", p, ok)
	}
	if _, ok := r.ResolveProvider(ctx, "nope"); ok {
		t.Fatal("unknown venue resolved")
	}
	v, ok, err := r.Lookup(ctx, "demo_paris_spa_001")
	if err != nil || !ok || v.Category != "spa" {
		t.Fatalf("Lookup = %+v, %v, %v", v, ok, err)
	}
	if _, ok, err := r.Lookup(ctx, "nope"); ok || err != nil {
		t.Fatalf("Lookup(nope) = %v, %v", ok, err)
	}
}

type brokenStore struct{ venues.Store }

func (brokenStore) GetProvider(context.Context, string) (string, error) {
	return "", errors.New("timeout")
}

func TestResolveProviderStoreFailureIsUnmapped(t *testing.T) {
	r := venues.NewRegistry(brokenStore{memory.NewVenueStore()}, logger.Discard())
	if _, ok := r.ResolveProvider(context.Background(), "demo_paris_001"); ok {
		t.Fatal("store failure resolved a provider")
	}
}

func TestListAndCount(t *testing.T) {
	r := seeded(t)
	ctx := context.Background()

	paris, err := r.List(ctx, venues.Filter{City: "paris"})
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range paris {
		if v.City != "Paris" {
			t.Fatalf("city filter leaked %+v", v)
		}
	}
	rest, _ := r.List(ctx, venues.Filter{Category: "restaurant", City: "London"})
	if len(rest) != 3 {
		t.Fatalf("London restaurants = %d", len(rest))
	}
	none, _ := r.List(ctx, venues.Filter{City: "Tokyo"})
	if none == nil || len(none) != 0 {
		t.Fatalf("Tokyo = %v", none)
	}

	ot, _ := r.ListByProvider(ctx, "OpenTable")
	if len(ot) != 1 || ot[0].VenueID != "ot_nyc_001" {
		t.Fatalf("ListByProvider = %+v", ot)
	}

	all, _ := venues.SeedVenues()
	if n, _ := r.Count(ctx); n != len(all) {
		t.Fatalf("Count = %d, want %d", n, len(all))
	}
}

func TestSeed(t *testing.T) {
	r := venues.NewRegistry(memory.NewVenueStore(), logger.Discard())
	ctx := context.Background()
	n, err := r.Seed(ctx, []reservation.Venue{
		{VenueID: "a", Name: "A", Category: "spa"},
		{VenueID: "b", Name: "B", Category: "fitness"},
	})
	if err != nil || n != 2 {
		t.Fatalf("Seed = %d, %v", n, err)
	}
	if _, err := r.Seed(ctx, []reservation.Venue{{Name: "no id"}}); err == nil {
		t.Fatal("expected error for blank venue id")
	}
	if c, _ := r.Count(ctx); c != 2 {
		t.Fatalf("Count = %d", c)
	}
}
