package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RABBIT_URL", "")
	t.Setenv("API_KEY_BCRYPT", "")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("LOG_LEVEL", "error")
	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestParseParams(t *testing.T) {
	got, err := parseParams([]string{"party_size=4", "date=2025-01-15", "time=19:30", "note=a=b"})
	if err != nil {
		t.Fatal(err)
	}
	if got["party_size"] != 4 || got["date"] != "2025-01-15" || got["time"] != "19:30" || got["note"] != "a=b" {
		t.Fatalf("params = %v", got)
	}
	if _, err := parseParams([]string{"novalue"}); err == nil {
		t.Fatal("expected error for missing =")
	}
}

func TestFiltersCommand(t *testing.T) {
	out, err := run(t, "filters", "restaurant", "book")
	if err != nil {
		t.Fatalf("filters: %v", err)
	}
	var res map[string]any
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res["category"] != "restaurant" || res["operation"] != "book" {
		t.Fatalf("res = %v", res)
	}
}

func TestBookCommand(t *testing.T) {
	out, err := run(t, "book", "demo_paris_001",
		"-p", "date=2025-01-15", "-p", "time=19:30", "-p", "party_size=4",
		"--name", "John Doe", "--email", "john@example.com", "--phone", "+33612345678")
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if !strings.Contains(out, `"status": "confirmed"`) || !strings.Contains(out, `"id": "booking_`) {
		t.Fatalf("output = %s", out)
	}

	_, err = run(t, "book", "demo_paris_001",
		"-p", "date=2025-01-15", "-p", "time=19:30", "-p", "party_size=4",
		"--name", "John Doe", "--email", "invalid-email", "--phone", "+33612345678")
	if err == nil || err.Error() != "Valid customer_email is required" {
		t.Fatalf("err = %v", err)
	}
}

func TestVenuesFindAndVersion(t *testing.T) {
	out, err := run(t, "venues", "find", "www.greentable.example.com")
	if err != nil || !strings.Contains(out, "demo_london_003") {
		t.Fatalf("find = %q, %v", out, err)
	}
	out, err = run(t, "version")
	if err != nil || !strings.HasPrefix(out, "bookinghub dev") {
		t.Fatalf("version = %q, %v", out, err)
	}
}

func TestKeysHash(t *testing.T) {
	out, err := run(t, "keys", "--hash", "bh_secret")
	if err != nil || !strings.HasPrefix(out, "export API_KEY_BCRYPT='$2a$") {
		t.Fatalf("keys = %q, %v", out, err)
	}
}
