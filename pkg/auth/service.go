package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ideafly/authkit/pkg/jwt"
	"github.com/ideafly/authkit/pkg/logger"
	"github.com/ideafly/authkit/pkg/password"
	"github.com/ideafly/authkit/pkg/sanitizer"
	"github.com/ideafly/authkit/pkg/validator"
)

// Name length bounds for registration.
const (
	MinNameLength = 2
	MaxNameLength = 100
)

// TokenTypeBearer is the token_type value on every issued Token.
const TokenTypeBearer = "bearer"

// Service orchestrates registration and authentication. It is stateless and
// safe for concurrent use; all coordination happens in storage.
type Service struct {
	storage   Storage
	resolver  *Resolver
	validator ExternalValidator
	hasher    *password.Hasher
	tokens    *jwt.Service
	policy    validator.PasswordPolicy
	tokenTTL  time.Duration
	log       *slog.Logger
}

// Option configures a Service during construction.
type Option func(*Service)

// WithLogger enables logging; the default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log.With(logger.Component("auth"))
		}
	}
}

// WithTokenTTL overrides the session token lifetime.
// Typical wiring: WithTokenTTL(cfg.AccessTokenTTL) with cfg loaded via pkg/config.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithPasswordHasher overrides the default bcrypt hasher, mainly to lower
// the cost in tests.
func WithPasswordHasher(h *password.Hasher) Option {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithPasswordPolicy overrides the registration strength policy.
func WithPasswordPolicy(p validator.PasswordPolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// NewService wires the orchestrator. The external validator is optional;
// without one AuthenticateExternal returns ErrProviderUnavailable.
func NewService(storage Storage, resolver *Resolver, tokens *jwt.Service, ext ExternalValidator, opts ...Option) (*Service, error) {
	if storage == nil {
		return nil, errors.New("auth: service requires storage")
	}
	if resolver == nil {
		return nil, errors.New("auth: service requires a resolver")
	}
	if tokens == nil {
		return nil, errors.New("auth: service requires a token service")
	}

	s := &Service{
		storage:   storage,
		resolver:  resolver,
		validator: ext,
		hasher:    password.New(),
		tokens:    tokens,
		policy:    validator.DefaultPasswordPolicy(),
		tokenTTL:  30 * time.Minute,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a password account and signs the user in. The email must
// be unused; the password must satisfy the strength policy.
func (s *Service) Register(ctx context.Context, name, email, plainPassword string) (*User, *Token, error) {
	name = sanitizer.NormalizeName(name)
	email = sanitizer.NormalizeEmail(email)

	if err := validator.Apply(
		validator.Required("name", name),
		validator.MinLen("name", name, MinNameLength),
		validator.MaxLen("name", name, MaxNameLength),
		validator.Required("email", email),
		validator.ValidEmail("email", email),
		validator.StrongPassword("password", plainPassword, s.policy),
		validator.NotWeakPassword("password", plainPassword),
	); err != nil {
		return nil, nil, err
	}

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Provider:     ProviderEmail,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, nil, ErrEmailAlreadyExists
		}
		return nil, nil, err
	}

	token, err := s.issueToken(user, jwt.MethodPassword)
	if err != nil {
		return nil, nil, err
	}

	s.log.InfoContext(ctx, "user registered", logger.UserID(user.ID))

	return user, token, nil
}

// AuthenticatePassword verifies email/password credentials and issues a
// session token. Unknown email, wrong password, and password-less accounts
// all fail with ErrInvalidCredentials so callers cannot probe which emails
// are registered.
func (s *Service) AuthenticatePassword(ctx context.Context, email, plainPassword string) (*User, *Token, error) {
	email = sanitizer.NormalizeEmail(email)

	user, err := s.storage.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !user.HasPassword() || !s.hasher.Verify(plainPassword, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	// The account state check comes after credential verification so a
	// disabled-account response never confirms credentials for a guess.
	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	s.maybeRehash(ctx, user, plainPassword)

	token, err := s.issueToken(user, jwt.MethodPassword)
	if err != nil {
		return nil, nil, err
	}

	return user, token, nil
}

// AuthenticateExternal validates a provider access token, resolves it to a
// local user, and issues a session token.
func (s *Service) AuthenticateExternal(ctx context.Context, providerToken string) (*User, *Token, error) {
	if s.validator == nil {
		return nil, nil, ErrProviderUnavailable
	}

	identity, err := s.validator.Validate(ctx, providerToken)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.resolver.Resolve(ctx, identity)
	if err != nil {
		return nil, nil, err
	}

	token, err := s.issueToken(user, jwt.OAuthMethod(identity.Provider))
	if err != nil {
		return nil, nil, err
	}

	return user, token, nil
}

// ValidateToken strictly verifies a session token and returns its user.
// Token failures surface as jwt.ErrTokenExpired / jwt.ErrTokenInvalid; a
// token whose user is gone or disabled fails even when the signature is
// fine.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*User, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, jwt.ErrTokenInvalid
	}

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return user, nil
}

// RefreshToken exchanges a still-valid session token for a fresh one with a
// full TTL, re-checking that the account still exists and is active. The
// original auth method claim is preserved.
func (s *Service) RefreshToken(ctx context.Context, tokenString string) (*Token, error) {
	claims, ok := s.tokens.Decode(tokenString)
	if !ok {
		return nil, jwt.ErrTokenInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, jwt.ErrTokenInvalid
	}

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.issueToken(user, claims.AuthMethod)
}

// DeactivateAccount disables an account. Outstanding tokens stay
// cryptographically valid but fail ValidateToken and RefreshToken.
func (s *Service) DeactivateAccount(ctx context.Context, id uuid.UUID) error {
	if err := s.storage.SetUserActive(ctx, id, false); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "account deactivated", logger.UserID(id))
	return nil
}

// maybeRehash transparently upgrades a hash stored at a lower cost than the
// current policy. Failures are logged and ignored; the login already
// succeeded and the old hash keeps working.
func (s *Service) maybeRehash(ctx context.Context, user *User, plainPassword string) {
	if !s.hasher.NeedsRehash(user.PasswordHash) {
		return
	}

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		s.log.WarnContext(ctx, "password rehash failed",
			logger.UserID(user.ID), logger.Error(err))
		return
	}
	if err := s.storage.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.log.WarnContext(ctx, "password rehash persist failed",
			logger.UserID(user.ID), logger.Error(err))
		return
	}
	user.PasswordHash = hash
}

func (s *Service) issueToken(user *User, method string) (*Token, error) {
	claims := jwt.SessionClaims{
		Email:      user.Email,
		Name:       user.Name,
		AuthMethod: method,
	}
	claims.Subject = user.ID.String()

	signed, err := s.tokens.Issue(claims, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	return &Token{
		AccessToken: signed,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}
