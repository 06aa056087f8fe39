// Package password wraps bcrypt with the credential policy of the
// authentication engine: bounded plaintext length, silent verification
// failure, and lazy work-factor upgrades.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinLength is the shortest plaintext accepted for hashing.
	MinLength = 8
	// MaxLength bounds plaintext input; bcrypt silently truncates at 72
	// bytes, so anything longer adds no entropy and only invites abuse.
	MaxLength = 128
)

var (
	ErrEmptyPassword  = errors.New("password: password is required")
	ErrPasswordLength = errors.New("password: password length must be between 8 and 128 characters")
)

// Hasher hashes and verifies passwords with a configurable bcrypt cost.
// The zero value is not usable; construct with New.
type Hasher struct {
	cost int
}

// Option configures a Hasher during construction.
type Option func(*Hasher)

// WithCost overrides the bcrypt cost factor. Values outside bcrypt's valid
// range fall back to the default cost.
func WithCost(cost int) Option {
	return func(h *Hasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// New creates a Hasher with bcrypt.DefaultCost unless overridden.
func New(opts ...Option) *Hasher {
	h := &Hasher{cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash derives a salted bcrypt hash from the plaintext. Length bounds are
// enforced here so no caller can persist a hash of an unacceptable input.
func (h *Hasher) Hash(plain string) ([]byte, error) {
	if plain == "" {
		return nil, ErrEmptyPassword
	}
	if len(plain) < MinLength || len(plain) > MaxLength {
		return nil, ErrPasswordLength
	}

	return bcrypt.GenerateFromPassword([]byte(plain), h.cost)
}

// Verify reports whether plain matches hash. Malformed hashes and every
// other internal failure are reported as a plain mismatch; verification
// never leaks why it failed.
func (h *Hasher) Verify(plain string, hash []byte) bool {
	if plain == "" || len(hash) == 0 {
		return false
	}

	return bcrypt.CompareHashAndPassword(hash, []byte(plain)) == nil
}

// NeedsRehash reports whether the stored hash was produced with a lower
// cost than the current policy. Callers upgrade lazily on the next
// successful login. Undecodable hashes report true so they get replaced.
func (h *Hasher) NeedsRehash(hash []byte) bool {
	if len(hash) == 0 {
		return false
	}

	cost, err := bcrypt.Cost(hash)
	if err != nil {
		return true
	}

	return cost < h.cost
}
