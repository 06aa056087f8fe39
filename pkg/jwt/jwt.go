// Package jwt issues and verifies the engine's session tokens.
//
// Tokens are HMAC-SHA256 JWTs carrying the authenticated subject, email,
// and the method used to authenticate. The package exposes a strict
// verification path (Verify) for authorization decisions and a safe one
// (Decode) for best-effort checks where an invalid token simply means
// "no result".
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Auth method claim values.
const (
	MethodPassword = "password"
)

// OAuthMethod returns the auth-method claim value for an OAuth provider,
// e.g. "google_oauth".
func OAuthMethod(provider string) string {
	return provider + "_oauth"
}

// SessionClaims is the claim set carried by every session token. Subject
// holds the user id; timestamps are epoch seconds with second precision.
type SessionClaims struct {
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	AuthMethod string `json:"auth_method"`
	jwtlib.RegisteredClaims
}

// Service signs and verifies session tokens using HS256. The signing key
// lives only in memory and should be at least 32 bytes.
type Service struct {
	signingKey []byte
}

// New creates a token service with the provided signing key.
func New(signingKey []byte) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	return &Service{signingKey: signingKey}, nil
}

// NewFromString is a convenience wrapper around New for string-based
// configuration.
func NewFromString(signingKey string) (*Service, error) {
	return New([]byte(signingKey))
}

// Issue signs the claims with issued-at set to now and expiry now+ttl.
// Both timestamps are truncated to whole seconds; there is no sub-second
// drift tolerance beyond the issuing process's clock.
func (s *Service) Issue(claims SessionClaims, ttl time.Duration) (string, error) {
	if claims.Subject == "" {
		return "", ErrMissingClaims
	}

	now := time.Now().Truncate(time.Second)
	claims.IssuedAt = jwtlib.NewNumericDate(now)
	claims.ExpiresAt = jwtlib.NewNumericDate(now.Add(ttl))

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("jwt: failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify is the strict verification path: it returns the claims only for a
// well-formed token with a valid HS256 signature that has not expired.
// Expiry is reported as ErrTokenExpired; every other failure collapses to
// ErrTokenInvalid so callers cannot branch on parser internals.
func (s *Service) Verify(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	claims := &SessionClaims{}
	token, err := jwtlib.ParseWithClaims(tokenString, claims,
		func(t *jwtlib.Token) (any, error) {
			return s.signingKey, nil
		},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// Decode is the safe verification path: it returns the claims and true for
// a valid token, or nil and false otherwise. It never returns an error;
// use Verify when the caller must distinguish expiry from tampering.
func (s *Service) Decode(tokenString string) (*SessionClaims, bool) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// ExpiresAtOf reports the expiry of a valid token, or false when the token
// does not verify.
func (s *Service) ExpiresAtOf(tokenString string) (time.Time, bool) {
	claims, ok := s.Decode(tokenString)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
