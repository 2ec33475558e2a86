// Package web serves the booking operations as a JSON API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/bookinghub/internal/application/dispatch"
	"github.com/example/bookinghub/internal/auth"
	"github.com/example/bookinghub/internal/internaltypes"
	"github.com/example/bookinghub/internal/scheduler"
)

type Server struct {
	addr     string
	svc      *dispatch.Service
	sessions *SessionManager
	keys     *auth.Verifier
	log      logrus.FieldLogger
	health   func(context.Context) error
	status   func() []scheduler.Status
}

type Options struct {
	Addr     string
	Service  *dispatch.Service
	Sessions *SessionManager
	Keys     *auth.Verifier
	Log      logrus.FieldLogger
	// Health backs /healthz. Nil means always healthy.
	Health func(context.Context) error
	// ProviderStatus adds the last provider pings to /healthz. Optional.
	ProviderStatus func() []scheduler.Status
}

func New(o Options) *Server {
	return &Server{addr: o.Addr, svc: o.Service, sessions: o.Sessions, keys: o.Keys, log: o.Log, health: o.Health, status: o.ProviderStatus}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /v1/filters", s.requireAuth(s.handleFilters))
	mux.HandleFunc("POST /v1/search", s.requireAuth(s.handleSearch))
	mux.HandleFunc("POST /v1/availability", s.requireAuth(s.handleAvailability))
	mux.HandleFunc("POST /v1/bookings", s.requireAuth(s.handleBook))
	mux.HandleFunc("GET /v1/bookings", s.requireAuth(s.handleListBookings))
	mux.HandleFunc("GET /v1/bookings/{id}", s.requireAuth(s.handleBookingStatus))
	mux.HandleFunc("POST /v1/bookings/{id}/cancel", s.requireAuth(s.handleCancel))
	mux.HandleFunc("GET /v1/venues", s.requireAuth(s.handleListVenues))
	mux.HandleFunc("GET /v1/venues/lookup", s.requireAuth(s.handleFindVenue))
	mux.HandleFunc("GET /v1/venues/{id}", s.requireAuth(s.handleVenue))

	return s.logging(mux)
}

// HTTPServer returns a configured server for Routes.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("http request")
	})
}

func apiKey(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// requireAuth accepts a session cookie or an API key header.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.keys.Enabled() {
			next(w, r)
			return
		}
		if _, ok := s.sessions.Operator(r); ok {
			next(w, r)
			return
		}
		if err := s.keys.Check(apiKey(r)); err != nil {
			writeErr(w, internaltypes.ErrUnauthorized)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, internaltypes.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, internaltypes.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, internaltypes.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, internaltypes.ErrProvider):
		return http.StatusBadGateway
	case errors.Is(err, internaltypes.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// writeErr renders {"error": message} plus any details attached to err.
func writeErr(w http.ResponseWriter, err error) {
	code := statusFor(err)
	body := map[string]any{}
	for k, v := range internaltypes.DetailsOf(err) {
		body[k] = v
	}
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	body["error"] = msg
	writeJSON(w, code, body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.status != nil {
		body["providers"] = s.status()
	}
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.log.WithError(err).Warn("health check failed")
			body["status"] = "unavailable"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}
	writeJSON(w, http.StatusOK, body)
}

type loginRequest struct {
	APIKey   string `json:"api_key"`
	Operator string `json:"operator"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, internaltypes.Validation("invalid JSON body", nil))
		return
	}
	if err := s.keys.Check(req.APIKey); err != nil {
		writeErr(w, err)
		return
	}
	op := strings.TrimSpace(req.Operator)
	if op == "" {
		op = "operator"
	}
	if err := s.sessions.SetOperator(w, r, op); err != nil {
		s.log.WithError(err).Error("session encode failed")
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"operator": op})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
