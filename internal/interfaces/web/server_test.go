package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/bookinghub/internal/application/dispatch"
	"github.com/example/bookinghub/internal/application/providers"
	"github.com/example/bookinghub/internal/auth"
	"github.com/example/bookinghub/internal/domain/reservation"
	"github.com/example/bookinghub/internal/infrastructure/demo"
	"github.com/example/bookinghub/internal/infrastructure/memory"
	"github.com/example/bookinghub/internal/ledger"
	"github.com/example/bookinghub/internal/logger"
	"github.com/example/bookinghub/internal/scheduler"
	"github.com/example/bookinghub/internal/venues"
)

const testKey = "bh_testkey"

func newTestServer(t *testing.T, withAuth bool) *httptest.Server {
	t.Helper()
	log := logger.Discard()
	seed, err := venues.SeedVenues()
	if err != nil {
		t.Fatal(err)
	}
	reg := providers.NewRegistry(demo.ProviderName)
	reg.Register(demo.ProviderName, func() (reservation.Adapter, error) { return demo.New(), nil })
	svc := dispatch.New(dispatch.Deps{
		Venues:    venues.NewRegistry(memory.NewVenueStore(seed...), log),
		Ledger:    ledger.New(memory.NewBookingStore(), log),
		Providers: reg,
		Log:       log,
	})

	hash := ""
	if withAuth {
		b, err := bcrypt.GenerateFromPassword([]byte(testKey), bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}
		hash = string(b)
	}
	keys, err := auth.NewVerifier(hash)
	if err != nil {
		t.Fatal(err)
	}
	s := New(Options{
		Service:  svc,
		Sessions: NewSessionManager([]byte("0123456789abcdef0123456789abcdef"), []byte("0123456789abcdef")),
		Keys:     keys,
		Log:      log,
	})
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, c *http.Client, method, url, body string, hdr map[string]string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

const bookBody = `{"venue_id":"demo_paris_001","category":"restaurant",
	"params":{"date":"2025-01-15","time":"19:30","party_size":4},
	"customer_name":"John Doe","customer_email":"john@example.com","customer_phone":"+33612345678"}`

func TestBookingFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t, false)
	c := srv.Client()

	code, body := do(t, c, "POST", srv.URL+"/v1/bookings", bookBody, nil)
	if code != http.StatusCreated || body["status"] != "confirmed" {
		t.Fatalf("book = %d %v", code, body)
	}
	id, _ := body["id"].(string)
	if !strings.HasPrefix(id, ledger.IDPrefix) {
		t.Fatalf("id = %q", id)
	}

	code, body = do(t, c, "GET", srv.URL+"/v1/bookings/"+id, "", nil)
	if code != http.StatusOK || body["status"] != "confirmed" {
		t.Fatalf("status = %d %v", code, body)
	}

	code, body = do(t, c, "POST", srv.URL+"/v1/bookings/"+id+"/cancel", "", nil)
	if code != http.StatusOK || body["success"] != true {
		t.Fatalf("cancel = %d %v", code, body)
	}
	code, body = do(t, c, "POST", srv.URL+"/v1/bookings/"+id+"/cancel", "", nil)
	if code != http.StatusConflict || body["error"] != "Booking already cancelled: "+id {
		t.Fatalf("second cancel = %d %v", code, body)
	}

	code, body = do(t, c, "GET", srv.URL+"/v1/bookings?status=cancelled", "", nil)
	if code != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("list = %d %v", code, body)
	}
}

func TestErrorStatuses(t *testing.T) {
	srv := newTestServer(t, false)
	c := srv.Client()

	tests := []struct {
		name, method, path, body string
		code                     int
		msg                      string
	}{
		{"unknown filters", "GET", "/v1/filters?category=bowling&operation=search", "", 400, "Unknown category 'bowling' or operation 'search'"},
		{"float party size", "POST", "/v1/availability", `{"venue_id":"demo_paris_001","category":"restaurant","params":{"date":"2025-01-15","party_size":2.5}}`, 400, "party_size must be an integer"},
		{"string party size", "POST", "/v1/search", `{"category":"restaurant","city":"Paris","date":"2025-01-15","party_size":"4"}`, 400, "party_size must be a positive integer"},
		{"bad email", "POST", "/v1/bookings", strings.Replace(bookBody, "john@example.com", "invalid-email", 1), 400, "Valid customer_email is required"},
		{"bad json", "POST", "/v1/bookings", `{`, 400, ""},
		{"unknown booking", "GET", "/v1/bookings/booking_000000000000", "", 404, "Booking not found: booking_000000000000"},
		{"unknown venue", "GET", "/v1/venues/nope", "", 404, "Venue not found: nope"},
		{"unknown domain", "GET", "/v1/venues/lookup?domain=nowhere.example.org", "", 404, "No venue found for domain: nowhere.example.org"},
		{"missing domain", "GET", "/v1/venues/lookup", "", 400, "domain is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := do(t, c, tc.method, srv.URL+tc.path, tc.body, nil)
			if code != tc.code {
				t.Fatalf("code = %d, want %d (%v)", code, tc.code, body)
			}
			if tc.msg != "" && body["error"] != tc.msg {
				t.Fatalf("error = %v, want %q", body["error"], tc.msg)
			}
		})
	}
}

func TestValidationDetailsInBody(t *testing.T) {
	srv := newTestServer(t, false)
	code, body := do(t, srv.Client(), "POST", srv.URL+"/v1/availability",
		`{"venue_id":"demo_paris_001","category":"restaurant","params":{"date":"2025-01-15"}}`, nil)
	if code != 400 || body["error"] != "Missing required parameters: party_size" {
		t.Fatalf("%d %v", code, body)
	}
	if _, ok := body["expected_params"].(map[string]any); !ok {
		t.Fatalf("expected_params = %T", body["expected_params"])
	}
}

func TestVenueRoutes(t *testing.T) {
	srv := newTestServer(t, false)
	c := srv.Client()

	code, body := do(t, c, "GET", srv.URL+"/v1/venues/lookup?domain=https://www.goldenfork.example.com/", "", nil)
	if code != 200 || body["venue_id"] != "demo_paris_001" {
		t.Fatalf("lookup = %d %v", code, body)
	}
	code, body = do(t, c, "GET", srv.URL+"/v1/venues?category=restaurant&city=london", "", nil)
	if code != 200 || body["count"] != float64(3) {
		t.Fatalf("list = %d %v", code, body)
	}
	code, body = do(t, c, "GET", srv.URL+"/v1/filters?category=hair_salon&operation=book", "", nil)
	params, _ := body["parameters"].(map[string]any)
	if code != 200 || params["service"] == nil || params["party_size"] != nil {
		t.Fatalf("filters = %d %v", code, body)
	}
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, true)
	c := srv.Client()

	if code, _ := do(t, c, "GET", srv.URL+"/healthz", "", nil); code != 200 {
		t.Fatalf("healthz = %d", code)
	}
	if code, _ := do(t, c, "GET", srv.URL+"/v1/venues", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("no key = %d", code)
	}
	if code, _ := do(t, c, "GET", srv.URL+"/v1/venues", "", map[string]string{"Authorization": "Bearer wrong"}); code != http.StatusUnauthorized {
		t.Fatalf("wrong key = %d", code)
	}
	if code, _ := do(t, c, "GET", srv.URL+"/v1/venues", "", map[string]string{"X-API-Key": testKey}); code != 200 {
		t.Fatalf("api key = %d", code)
	}

	if code, _ := do(t, c, "POST", srv.URL+"/login", `{"api_key":"wrong"}`, nil); code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", code)
	}
	req, _ := http.NewRequest("POST", srv.URL+"/login", strings.NewReader(`{"api_key":"`+testKey+`","operator":"ops"}`))
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	cookies := resp.Cookies()
	if resp.StatusCode != 200 || len(cookies) != 1 {
		t.Fatalf("login = %d, cookies %v", resp.StatusCode, cookies)
	}

	req, _ = http.NewRequest("GET", srv.URL+"/v1/venues", nil)
	req.AddCookie(cookies[0])
	resp, err = c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("cookie auth = %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	dbErr := error(nil)
	s := New(Options{
		Log:    logger.Discard(),
		Health: func(context.Context) error { return dbErr },
		ProviderStatus: func() []scheduler.Status {
			return []scheduler.Status{{Provider: "demo", Healthy: true}}
		},
	})
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)

	code, body := do(t, srv.Client(), "GET", srv.URL+"/healthz", "", nil)
	ps, _ := body["providers"].([]any)
	if code != 200 || body["status"] != "ok" || len(ps) != 1 {
		t.Fatalf("healthz = %d %v", code, body)
	}

	dbErr = errors.New("connection refused")
	code, body = do(t, srv.Client(), "GET", srv.URL+"/healthz", "", nil)
	if code != http.StatusServiceUnavailable || body["status"] != "unavailable" {
		t.Fatalf("healthz down = %d %v", code, body)
	}
}
