package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/bookinghub/internal/db"
	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/ledger"
)

type BookingStore struct{ db *db.DB }

func NewBookingStore(d *db.DB) *BookingStore { return &BookingStore{db: d} }

const bookingColumns = `booking_id, venue_id, provider, provider_booking_id, category, params,
	customer_name, customer_email, customer_phone, status, created_at, updated_at`

func (s *BookingStore) InsertBooking(ctx context.Context, r ledger.Record) error {
	params, err := json.Marshal(r.Params)
	if err != nil {
		return fmt.Errorf("booking %s params: %w", r.BookingID, err)
	}
	err = s.db.Exec(ctx, `INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		r.BookingID, r.VenueID, r.Provider, r.ProviderBookingID, r.Category, params,
		r.CustomerName, r.CustomerEmail, r.CustomerPhone, string(r.Status), r.CreatedAt, r.UpdatedAt,
	)
	return db.Classify(err)
}

func scanBooking(row db.Row) (ledger.Record, error) {
	var (
		r      ledger.Record
		params []byte
		status string
	)
	if err := row.Scan(&r.BookingID, &r.VenueID, &r.Provider, &r.ProviderBookingID, &r.Category, &params,
		&r.CustomerName, &r.CustomerEmail, &r.CustomerPhone, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return ledger.Record{}, err
	}
	r.Status = reservation.BookingStatus(status)
	if len(params) > 0 {
		if err := json.Unmarshal(params, &r.Params); err != nil {
			return ledger.Record{}, fmt.Errorf("booking %s params: %w", r.BookingID, err)
		}
	}
	return r, nil
}

func (s *BookingStore) GetBooking(ctx context.Context, bookingID string) (ledger.Record, error) {
	r, err := scanBooking(s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id=$1`, bookingID))
	if err != nil {
		return ledger.Record{}, db.Classify(err)
	}
	return r, nil
}

func (s *BookingStore) UpdateStatus(ctx context.Context, bookingID string, status reservation.BookingStatus, at time.Time) (bool, error) {
	n, err := s.db.ExecCount(ctx, `UPDATE bookings SET status=$2, updated_at=$3 WHERE booking_id=$1 AND status <> 'cancelled'`, bookingID, string(status), at)
	if err != nil {
		return false, db.Classify(err)
	}
	return n > 0, nil
}

func (s *BookingStore) ListBookings(ctx context.Context, f ledger.Filter) ([]ledger.Record, error) {
	var (
		conds []string
		args  []any
	)
	if f.CustomerEmail != "" {
		args = append(args, f.CustomerEmail)
		conds = append(conds, fmt.Sprintf("lower(customer_email)=lower($%d)", len(args)))
	}
	if f.VenueID != "" {
		args = append(args, f.VenueID)
		conds = append(conds, fmt.Sprintf("venue_id=$%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status=$%d", len(args)))
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC, booking_id"

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	out := make([]ledger.Record, 0)
	for rows.Next() {
		r, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
