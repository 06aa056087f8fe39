package google

import "errors"

var (
	// ErrInvalidToken means the provider rejected the access token outright.
	// Not retryable.
	ErrInvalidToken = errors.New("provider rejected the access token")

	// ErrInsufficientScope means the token lacks the email or profile
	// capability. Not retryable; the user must re-consent.
	ErrInsufficientScope = errors.New("token is missing required email or profile scope")

	// ErrUnverifiedEmail means the provider account's email address is not
	// verified. Not retryable.
	ErrUnverifiedEmail = errors.New("provider account email is not verified")

	// ErrUnavailable means the provider could not be reached within the
	// retry budget, or the wait was cancelled.
	ErrUnavailable = errors.New("provider is unavailable")

	// ErrCodeExchangeFailed means the authorization code could not be
	// exchanged for an access token.
	ErrCodeExchangeFailed = errors.New("authorization code exchange failed")
)
