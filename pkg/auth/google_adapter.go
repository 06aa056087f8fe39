package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/ideafly/authkit/pkg/google"
)

// ProviderGoogle is the provider name recorded on Google-linked identities.
const ProviderGoogle = "google"

// ExternalValidator turns an opaque provider access token into a validated
// Identity. Implementations translate their provider's failures into the
// package's error taxonomy.
type ExternalValidator interface {
	Validate(ctx context.Context, accessToken string) (Identity, error)
}

// googleTokenValidator is the part of *google.Validator the adapter needs.
type googleTokenValidator interface {
	ValidateAccessToken(ctx context.Context, accessToken string) (*google.Profile, error)
}

type googleValidatorAdapter struct {
	validator googleTokenValidator
}

// NewGoogleValidator adapts a *google.Validator to the ExternalValidator
// interface, mapping provider errors into the auth taxonomy.
func NewGoogleValidator(v googleTokenValidator) ExternalValidator {
	return &googleValidatorAdapter{validator: v}
}

func (a *googleValidatorAdapter) Validate(ctx context.Context, accessToken string) (Identity, error) {
	profile, err := a.validator.ValidateAccessToken(ctx, accessToken)
	if err != nil {
		switch {
		case errors.Is(err, google.ErrInvalidToken):
			return Identity{}, ErrInvalidProviderToken
		case errors.Is(err, google.ErrInsufficientScope):
			return Identity{}, ErrInsufficientScope
		case errors.Is(err, google.ErrUnverifiedEmail):
			return Identity{}, ErrUnverifiedEmail
		case errors.Is(err, google.ErrUnavailable):
			return Identity{}, errors.Join(ErrProviderUnavailable, err)
		default:
			return Identity{}, fmt.Errorf("%w: %w", ErrInvalidProviderToken, err)
		}
	}

	return Identity{
		Provider:  ProviderGoogle,
		SubjectID: profile.ID,
		Email:     profile.Email,
		Name:      profile.Name,
	}, nil
}

var _ ExternalValidator = (*googleValidatorAdapter)(nil)
