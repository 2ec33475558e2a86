// Package auth verifies operator API keys against a bcrypt hash.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/bookinghub/internal/internaltypes"
)

const keyPrefix = "bh_"

// Verifier checks presented keys. With no hash configured every key is
// accepted and Enabled reports false.
type Verifier struct {
	hash []byte
}

func NewVerifier(bcryptHash string) (*Verifier, error) {
	h := strings.TrimSpace(bcryptHash)
	if h == "" {
		return &Verifier{}, nil
	}
	if _, err := bcrypt.Cost([]byte(h)); err != nil {
		return nil, errors.New("API_KEY_BCRYPT is not a bcrypt hash")
	}
	return &Verifier{hash: []byte(h)}, nil
}

func (v *Verifier) Enabled() bool { return len(v.hash) > 0 }

// Check returns internaltypes.ErrUnauthorized unless key matches.
func (v *Verifier) Check(key string) error {
	if !v.Enabled() {
		return nil
	}
	if key == "" || bcrypt.CompareHashAndPassword(v.hash, []byte(key)) != nil {
		return internaltypes.ErrUnauthorized
	}
	return nil
}

func HashKey(key string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(b), err
}

// GenerateKey returns a new random API key.
func GenerateKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return keyPrefix + hex.EncodeToString(b), nil
}
