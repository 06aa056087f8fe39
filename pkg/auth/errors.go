package auth

import "errors"

// The error surface of the engine is closed: every operation returns one of
// these sentinels (possibly wrapped), a validator.ValidationErrors, or a
// pkg/jwt token error. Driver and provider errors never leak to callers.
var (
	// ErrInvalidCredentials covers every password authentication failure:
	// unknown email, wrong password, and password-less accounts are
	// deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountDisabled is returned for deactivated accounts whose
	// credentials or identity otherwise check out.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrEmailAlreadyExists is returned by registration when the normalized
	// email is taken.
	ErrEmailAlreadyExists = errors.New("email address is already registered")

	// ErrInvalidProviderToken means the external provider rejected the
	// presented access token.
	ErrInvalidProviderToken = errors.New("invalid provider token")

	// ErrInsufficientScope means the provider token lacks the email or
	// profile capability.
	ErrInsufficientScope = errors.New("provider token is missing required scopes")

	// ErrUnverifiedEmail means the provider account's email is not verified,
	// which would make implicit linking unsafe.
	ErrUnverifiedEmail = errors.New("provider email address is not verified")

	// ErrProviderUnavailable means the provider could not be reached within
	// the retry budget.
	ErrProviderUnavailable = errors.New("authentication provider is unavailable")

	// ErrIdentityResolution means identity resolution failed in a way that
	// indicates inconsistent state rather than a user error.
	ErrIdentityResolution = errors.New("failed to resolve external identity")

	// ErrUserNotFound is returned by lookups for missing users.
	ErrUserNotFound = errors.New("user not found")

	// ErrIdentityNotFound is returned by storage when no identity matches a
	// (provider, subject) pair.
	ErrIdentityNotFound = errors.New("external identity not found")

	// ErrDuplicateEmail is the storage-level signal for a users.email unique
	// violation.
	ErrDuplicateEmail = errors.New("duplicate email")

	// ErrDuplicateIdentity is the storage-level signal for a
	// (provider, subject_id) unique violation.
	ErrDuplicateIdentity = errors.New("duplicate external identity")

	// ErrStorage wraps every other persistence failure.
	ErrStorage = errors.New("storage failure")
)
