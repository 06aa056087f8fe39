package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/ideafly/authkit/pkg/sanitizer"
	"github.com/ideafly/authkit/pkg/validator"
)

// AuthProvider records how an account authenticates.
type AuthProvider string

const (
	// ProviderEmail accounts authenticate with a password only.
	ProviderEmail AuthProvider = "email"
	// ProviderExternal accounts were created by an external provider and
	// hold no password.
	ProviderExternal AuthProvider = "external"
	// ProviderMixed accounts hold a password and at least one linked
	// external identity. The transition email -> mixed happens exactly once
	// and never reverses.
	ProviderMixed AuthProvider = "mixed"
)

// User is an account record. PasswordHash is nil exactly when Provider is
// ProviderExternal.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash []byte
	Provider     AuthProvider
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can authenticate with a password.
func (u *User) HasPassword() bool {
	return len(u.PasswordHash) > 0
}

// ExternalIdentity links a provider subject to a local user. Rows are never
// mutated after creation; (Provider, SubjectID) is globally unique.
type ExternalIdentity struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Provider  string
	SubjectID string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity is a validated assertion from an external provider: this subject,
// with this verified email, authenticated there.
type Identity struct {
	Provider  string
	SubjectID string
	Email     string
	Name      string
}

// Normalize returns a copy with the email and name in canonical form.
func (i Identity) Normalize() Identity {
	i.Email = sanitizer.NormalizeEmail(i.Email)
	i.Name = sanitizer.NormalizeName(i.Name)
	return i
}

// Validate checks the identity carries everything resolution needs.
func (i Identity) Validate() error {
	return validator.Apply(
		validator.Required("provider", i.Provider),
		validator.Required("subject_id", i.SubjectID),
		validator.Required("email", i.Email),
		validator.ValidEmail("email", i.Email),
	)
}

// Token is the issued session credential in OAuth2 bearer shape.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
