// Package postgres implements the registry and ledger stores on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/bookinghub/internal/db"
	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/venues"
)

type VenueStore struct{ db *db.DB }

func NewVenueStore(d *db.DB) *VenueStore { return &VenueStore{db: d} }

// The primary provider row is joined in; is_primary wins, then provider name.
const venueSelect = `
	SELECT v.venue_id, v.name, v.category, v.address, v.city, v.country, v.domain, v.metadata,
	       COALESCE(p.provider, ''), COALESCE(p.external_id, '')
	FROM venues v
	LEFT JOIN LATERAL (
		SELECT provider, external_id FROM venue_providers
		WHERE venue_id = v.venue_id
		ORDER BY is_primary DESC, provider
		LIMIT 1
	) p ON TRUE
`

func scanVenue(row db.Row) (reservation.Venue, error) {
	var v reservation.Venue
	var meta []byte
	if err := row.Scan(&v.VenueID, &v.Name, &v.Category, &v.Address, &v.City, &v.Country, &v.Domain, &meta, &v.Provider, &v.ExternalID); err != nil {
		return reservation.Venue{}, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &v.Metadata); err != nil {
			return reservation.Venue{}, fmt.Errorf("venue %s metadata: %w", v.VenueID, err)
		}
	}
	return v, nil
}

func (s *VenueStore) queryVenues(ctx context.Context, where string, args ...any) ([]reservation.Venue, error) {
	rows, err := s.db.Query(ctx, venueSelect+where+` ORDER BY v.venue_id`, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	out := make([]reservation.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *VenueStore) GetVenue(ctx context.Context, venueID string) (reservation.Venue, error) {
	v, err := scanVenue(s.db.QueryRow(ctx, venueSelect+` WHERE v.venue_id=$1`, venueID))
	if err != nil {
		return reservation.Venue{}, db.Classify(err)
	}
	return v, nil
}

func (s *VenueStore) GetProvider(ctx context.Context, venueID string) (string, error) {
	var p string
	err := s.db.QueryRow(ctx, `
		SELECT provider FROM venue_providers
		WHERE venue_id=$1
		ORDER BY is_primary DESC, provider
		LIMIT 1
	`, venueID).Scan(&p)
	if err != nil {
		return "", db.Classify(err)
	}
	return p, nil
}

func (s *VenueStore) SearchDomain(ctx context.Context, fragment string) ([]reservation.Venue, error) {
	return s.queryVenues(ctx, ` WHERE v.domain ILIKE $1`, "%"+escapeLike(fragment)+"%")
}

func (s *VenueStore) ListVenues(ctx context.Context, f venues.Filter) ([]reservation.Venue, error) {
	var (
		conds []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("v.category=$%d", len(args)))
	}
	if f.City != "" {
		args = append(args, f.City)
		conds = append(conds, fmt.Sprintf("lower(v.city)=lower($%d)", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	return s.queryVenues(ctx, where, args...)
}

func (s *VenueStore) ListByProvider(ctx context.Context, provider string) ([]reservation.Venue, error) {
	return s.queryVenues(ctx, ` WHERE p.provider=$1`, provider)
}

func (s *VenueStore) CountVenues(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM venues`).Scan(&n); err != nil {
		return 0, db.Classify(err)
	}
	return n, nil
}

func (s *VenueStore) UpsertVenue(ctx context.Context, v reservation.Venue) error {
	var meta []byte
	if v.Metadata != nil {
		b, err := json.Marshal(v.Metadata)
		if err != nil {
			return fmt.Errorf("venue %s metadata: %w", v.VenueID, err)
		}
		meta = b
	}
	err := s.db.InTx(ctx, func(q db.Querier) error {
		if err := q.Exec(ctx, `
		INSERT INTO venues (venue_id, name, category, address, city, country, domain, metadata, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (venue_id) DO UPDATE
		SET name=EXCLUDED.name, category=EXCLUDED.category, address=EXCLUDED.address, city=EXCLUDED.city,
		    country=EXCLUDED.country, domain=EXCLUDED.domain, metadata=EXCLUDED.metadata, updated_at=EXCLUDED.updated_at
	`, v.VenueID, v.Name, v.Category, v.Address, v.City, v.Country, v.Domain, meta, time.Now().UTC()); err != nil {
			return err
		}
		if v.Provider == "" {
			return nil
		}
		return q.Exec(ctx, `
		INSERT INTO venue_providers (venue_id, provider, external_id, is_primary)
		VALUES ($1,$2,$3,TRUE)
		ON CONFLICT (venue_id, provider) DO UPDATE SET external_id=EXCLUDED.external_id, is_primary=TRUE
	`, v.VenueID, strings.ToLower(v.Provider), v.ExternalID)
	})
	return db.Classify(err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
