package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/example/bookinghub/internal/application/dispatch"
	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/internaltypes"
	"github.com/example/bookinghub/internal/ledger"
	"github.com/example/bookinghub/internal/schema"
)

const maxBody = 1 << 20

// decode reads a JSON body keeping numbers as json.Number, so integer
// parameters are not widened to float64.
func decode(r *http.Request, v any) error {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return internaltypes.Validation("could not read request body", nil)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return internaltypes.Validation("invalid JSON body: "+err.Error(), nil)
	}
	return nil
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	op := q.Get("operation")
	if op == "" {
		op = string(schema.OpSearch)
	}
	res, err := s.svc.GetFilters(r.Context(), q.Get("category"), op)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type searchBody struct {
	Category  string            `json:"category"`
	City      string            `json:"city"`
	Date      string            `json:"date"`
	PartySize any               `json:"party_size"`
	Filters   map[string]string `json:"filters"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := decode(r, &body); err != nil {
		writeErr(w, err)
		return
	}
	// A non-integer party size is rejected by the service as non-positive.
	n, _ := schema.Int(body.PartySize)
	res, err := s.svc.Search(r.Context(), dispatch.SearchRequest{
		Category:  body.Category,
		City:      body.City,
		Date:      body.Date,
		PartySize: int(n),
		Filters:   body.Filters,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	var req dispatch.AvailabilityRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Params == nil {
		req.Params = map[string]any{}
	}
	res, err := s.svc.CheckAvailability(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var req dispatch.BookRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Params == nil {
		req.Params = map[string]any{}
	}
	b, err := s.svc.Book(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBookingStatus(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.GetBookingStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := s.svc.ListBookings(r.Context(), ledger.Filter{
		CustomerEmail: q.Get("customer_email"),
		VenueID:       q.Get("venue_id"),
		Status:        reservation.BookingStatus(q.Get("status")),
	})
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListVenues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.svc.ListVenues(r.Context(), q.Get("category"), q.Get("city"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleVenue(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.GetVenueDetails(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleFindVenue(w http.ResponseWriter, r *http.Request) {
	d := r.URL.Query().Get("domain")
	if d == "" {
		writeErr(w, internaltypes.Validation("domain is required", nil))
		return
	}
	v, err := s.svc.FindVenueByDomain(r.Context(), d)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
