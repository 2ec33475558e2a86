package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/bookinghub/internal/internaltypes"
)

func TestVerifier(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(key, keyPrefix) || len(key) != len(keyPrefix)+48 {
		t.Fatalf("key = %q", key)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	v, err := NewVerifier(string(b))
	if err != nil {
		t.Fatal(err)
	}
	if !v.Enabled() {
		t.Fatal("verifier with hash reports disabled")
	}
	if err := v.Check(key); err != nil {
		t.Fatalf("Check(valid) = %v", err)
	}
	for _, bad := range []string{"", "bh_nope"} {
		if err := v.Check(bad); !errors.Is(err, internaltypes.ErrUnauthorized) {
			t.Fatalf("Check(%q) = %v", bad, err)
		}
	}
}

func TestVerifierDisabled(t *testing.T) {
	v, err := NewVerifier("  ")
	if err != nil {
		t.Fatal(err)
	}
	if v.Enabled() || v.Check("") != nil {
		t.Fatal("empty hash should accept everything")
	}
	if _, err := NewVerifier("plaintext"); err == nil {
		t.Fatal("expected error for non-bcrypt hash")
	}
}

func TestHashKey(t *testing.T) {
	h, err := HashKey("secret")
	if err != nil {
		t.Fatal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(h), []byte("secret")) != nil {
		t.Fatal("hash does not verify")
	}
}
