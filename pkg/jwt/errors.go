package jwt

import "errors"

var (
	ErrMissingSigningKey = errors.New("jwt: missing signing key")
	ErrMissingClaims     = errors.New("jwt: missing claims")
	// ErrTokenInvalid covers malformed tokens, bad signatures, and
	// unexpected signing algorithms.
	ErrTokenInvalid = errors.New("jwt: invalid token")
	// ErrTokenExpired means the signature verified but the token is past
	// its expiry. Kept distinct because refresh flows treat it differently
	// from a forged or garbled token.
	ErrTokenExpired = errors.New("jwt: token expired")
)
