package venues

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/example/bookinghub/internal/domain/reservation"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Venues []seedVenue `yaml:"venues"`
}

type seedVenue struct {
	VenueID    string         `yaml:"venue_id"`
	Name       string         `yaml:"name"`
	Category   string         `yaml:"category"`
	Address    string         `yaml:"address"`
	City       string         `yaml:"city"`
	Country    string         `yaml:"country"`
	Domain     string         `yaml:"domain"`
	Metadata   map[string]any `yaml:"metadata"`
	Provider   string         `yaml:"provider"`
	ExternalID string         `yaml:"external_id"`
}

// SeedVenues returns the built-in venue set.
func SeedVenues() ([]reservation.Venue, error) {
	return ParseSeed(seedYAML)
}

// ParseSeed decodes a YAML document with a top-level "venues" list.
func ParseSeed(b []byte) ([]reservation.Venue, error) {
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse venue seed: %w", err)
	}
	out := make([]reservation.Venue, 0, len(f.Venues))
	for i, s := range f.Venues {
		if s.VenueID == "" || s.Name == "" || s.Category == "" {
			return nil, fmt.Errorf("parse venue seed: entry %d needs venue_id, name and category", i)
		}
		out = append(out, reservation.Venue{
			VenueID:    s.VenueID,
			Name:       s.Name,
			Category:   s.Category,
			Address:    s.Address,
			City:       s.City,
			Country:    s.Country,
			Domain:     s.Domain,
			Metadata:   s.Metadata,
			Provider:   s.Provider,
			ExternalID: s.ExternalID,
		})
	}
	return out, nil
}
