// Package google validates Google OAuth access tokens and resolves them to
// verified user profiles.
//
// Validation is a two-call sequence against the provider: a tokeninfo
// introspection that proves the token is live and carries the required
// scopes, then a userinfo fetch that yields the profile. Transient provider
// failures are retried with exponential backoff; rejections (bad token,
// missing scope, unverified email) fail immediately.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ideafly/authkit/pkg/logger"
)

// HTTPDoer is the part of *http.Client the validator needs. Injecting it
// keeps tests free of real network calls.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Profile is the provider's view of the authenticated user after successful
// validation. Email is always verified when a Profile is returned.
type Profile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name,omitempty"`
	FamilyName    string `json:"family_name,omitempty"`
	Picture       string `json:"picture,omitempty"`
}

// tokenInfo is the subset of the tokeninfo introspection response we use.
type tokenInfo struct {
	Audience  string `json:"audience"`
	UserID    string `json:"user_id"`
	Scope     string `json:"scope"`
	ExpiresIn int    `json:"expires_in"`
	Email     string `json:"email"`
}

// Validator validates opaque Google access tokens. Safe for concurrent use;
// create one per process and share it.
type Validator struct {
	cfg     Config
	client  HTTPDoer
	backoff BackoffStrategy
	log     *slog.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithHTTPClient replaces the default pooled HTTP client.
func WithHTTPClient(c HTTPDoer) ValidatorOption {
	return func(v *Validator) {
		if c != nil {
			v.client = c
		}
	}
}

// WithBackoff replaces the retry delay strategy.
func WithBackoff(b BackoffStrategy) ValidatorOption {
	return func(v *Validator) {
		if b != nil {
			v.backoff = b
		}
	}
}

// WithLogger enables logging; the default discards everything.
func WithLogger(log *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		if log != nil {
			v.log = log.With(logger.Component("google"))
		}
	}
}

// NewValidator creates a Validator from config. Endpoint URLs must be set;
// load Config through pkg/config for the production defaults.
func NewValidator(cfg Config, opts ...ValidatorOption) (*Validator, error) {
	if cfg.TokenInfoURL == "" || cfg.UserInfoURL == "" {
		return nil, errors.New("google: tokeninfo and userinfo URLs are required")
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	v := &Validator{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		backoff: DefaultBackoffStrategy(),
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// retryableError marks a failure worth another attempt (transport errors and
// provider 5xx). Everything else aborts the whole validation.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func retryable(err error) error {
	return &retryableError{err: err}
}

// ValidateAccessToken introspects the token, checks its scopes, and fetches
// the user profile. On transient provider failures it retries the whole
// sequence up to MaxAttempts times with backoff; the waits abort when ctx is
// done. A retry budget exhausted or a cancelled wait yields ErrUnavailable.
func (v *Validator) ValidateAccessToken(ctx context.Context, accessToken string) (*Profile, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}

	var lastErr error
	for attempt := 1; attempt <= v.cfg.MaxAttempts; attempt++ {
		profile, err := v.validateOnce(ctx, accessToken)
		if err == nil {
			return profile, nil
		}

		var re *retryableError
		if !errors.As(err, &re) {
			return nil, err
		}
		lastErr = re.err

		v.log.WarnContext(ctx, "provider call failed",
			logger.Attempt(attempt), logger.Error(re.err))

		if attempt == v.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrUnavailable, ctx.Err())
		case <-time.After(v.backoff.NextInterval(attempt)):
		}
	}

	return nil, errors.Join(ErrUnavailable, lastErr)
}

func (v *Validator) validateOnce(ctx context.Context, accessToken string) (*Profile, error) {
	info, err := v.introspect(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if !scopeGrants(info.Scope, "email") || !scopeGrants(info.Scope, "profile") {
		return nil, ErrInsufficientScope
	}

	profile, err := v.fetchProfile(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if !profile.VerifiedEmail {
		return nil, ErrUnverifiedEmail
	}
	if profile.ID == "" || profile.Email == "" {
		return nil, fmt.Errorf("%w: profile missing id or email", ErrInvalidToken)
	}

	return profile, nil
}

func (v *Validator) introspect(ctx context.Context, accessToken string) (*tokenInfo, error) {
	endpoint := v.cfg.TokenInfoURL + "?" + url.Values{"access_token": {accessToken}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("google: build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, retryable(fmt.Errorf("tokeninfo request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		// Google reports dead or malformed tokens with 400/401. Rejection is
		// final; retrying the same token cannot succeed.
		return nil, ErrInvalidToken
	case resp.StatusCode >= 500:
		return nil, retryable(fmt.Errorf("tokeninfo returned status %d", resp.StatusCode))
	default:
		return nil, fmt.Errorf("%w: tokeninfo returned status %d", ErrInvalidToken, resp.StatusCode)
	}

	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, retryable(fmt.Errorf("decode tokeninfo response: %w", err))
	}
	return &info, nil
}

func (v *Validator) fetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("google: build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, retryable(fmt.Errorf("userinfo request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrInvalidToken
	case resp.StatusCode >= 500:
		return nil, retryable(fmt.Errorf("userinfo returned status %d", resp.StatusCode))
	default:
		return nil, fmt.Errorf("%w: userinfo returned status %d", ErrInvalidToken, resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, retryable(fmt.Errorf("decode userinfo response: %w", err))
	}
	return &profile, nil
}

// scopeGrants reports whether the space-separated scope string grants the
// named capability. Google returns both short scopes ("email") and full URLs
// ("https://www.googleapis.com/auth/userinfo.email").
func scopeGrants(scope, capability string) bool {
	for _, s := range strings.Fields(scope) {
		if s == capability || strings.HasSuffix(s, "."+capability) || strings.HasSuffix(s, "/"+capability) {
			return true
		}
	}
	return false
}
