package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ideafly/authkit/pkg/auth"
	"github.com/ideafly/authkit/pkg/jwt"
	"github.com/ideafly/authkit/pkg/password"
	"github.com/ideafly/authkit/pkg/validator"
)

const signingKey = "service-test-signing-key-0123456789"

type serviceDeps struct {
	storage   *mockStorage
	store     *mockIdentityStore
	validator *mockExternalValidator
	tokens    *jwt.Service
}

func newTestService(t *testing.T, opts ...auth.Option) (*auth.Service, *serviceDeps) {
	t.Helper()

	deps := &serviceDeps{
		storage:   &mockStorage{},
		store:     &mockIdentityStore{},
		validator: &mockExternalValidator{},
	}

	tokens, err := jwt.NewFromString(signingKey)
	require.NoError(t, err)
	deps.tokens = tokens

	resolver, err := auth.NewResolver(&fakeUnitOfWork{store: deps.store})
	require.NoError(t, err)

	base := []auth.Option{
		auth.WithPasswordHasher(password.New(password.WithCost(bcrypt.MinCost))),
	}
	svc, err := auth.NewService(deps.storage, resolver, tokens, deps.validator, append(base, opts...)...)
	require.NoError(t, err)

	return svc, deps
}

func minCostHash(t *testing.T, plain string) []byte {
	t.Helper()

	hash, err := password.New(password.WithCost(bcrypt.MinCost)).Hash(plain)
	require.NoError(t, err)
	return hash
}

func TestNewService(t *testing.T) {
	t.Parallel()

	tokens, err := jwt.NewFromString(signingKey)
	require.NoError(t, err)
	resolver, err := auth.NewResolver(&fakeUnitOfWork{store: &mockIdentityStore{}})
	require.NoError(t, err)

	t.Run("requires storage", func(t *testing.T) {
		t.Parallel()
		_, err := auth.NewService(nil, resolver, tokens, nil)
		assert.Error(t, err)
	})

	t.Run("requires resolver", func(t *testing.T) {
		t.Parallel()
		_, err := auth.NewService(&mockStorage{}, nil, tokens, nil)
		assert.Error(t, err)
	})

	t.Run("requires token service", func(t *testing.T) {
		t.Parallel()
		_, err := auth.NewService(&mockStorage{}, resolver, nil, nil)
		assert.Error(t, err)
	})
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates account and signs the user in", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t, auth.WithTokenTTL(time.Hour))
		deps.storage.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
			return u.Email == "ada@example.com" &&
				u.Name == "Ada Lovelace" &&
				u.Provider == auth.ProviderEmail &&
				u.IsActive &&
				len(u.PasswordHash) > 0
		})).Return(nil)

		user, token, err := svc.Register(context.Background(), " Ada Lovelace ", " ADA@example.com", "secure1pass")
		require.NoError(t, err)

		assert.Equal(t, "ada@example.com", user.Email)
		require.NotNil(t, token)
		assert.Equal(t, auth.TokenTypeBearer, token.TokenType)
		assert.Equal(t, int64(3600), token.ExpiresIn)

		claims, err := deps.tokens.Verify(token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.Subject)
		assert.Equal(t, jwt.MethodPassword, claims.AuthMethod)
	})

	t.Run("rejects weak passwords before touching storage", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t)

		for _, weak := range []string{"abcdefg", "password1", "12345678a", "short1"} {
			_, _, err := svc.Register(context.Background(), "Ada Lovelace", "ada@example.com", weak)
			require.Error(t, err, "password %q should be rejected", weak)
			assert.True(t, validator.IsValidationError(err))
		}
		deps.storage.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("rejects bad names and emails", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)

		_, _, err := svc.Register(context.Background(), "A", "ada@example.com", "secure1pass")
		require.Error(t, err)
		assert.True(t, validator.ExtractValidationErrors(err).Has("name"))

		_, _, err = svc.Register(context.Background(), "Ada Lovelace", "not-an-email", "secure1pass")
		require.Error(t, err)
		assert.True(t, validator.ExtractValidationErrors(err).Has("email"))
	})

	t.Run("duplicate email maps to ErrEmailAlreadyExists", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t)
		deps.storage.On("CreateUser", mock.Anything, mock.Anything).Return(auth.ErrDuplicateEmail)

		_, _, err := svc.Register(context.Background(), "Ada Lovelace", "ada@example.com", "secure1pass")
		assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
	})
}

func TestAuthenticatePassword(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials issue a token", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t)
		user := &auth.User{
			ID:           uuid.New(),
			Email:        "ada@example.com",
			PasswordHash: minCostHash(t, "secure1pass"),
			Provider:     auth.ProviderEmail,
			IsActive:     true,
		}
		deps.storage.On("UserByEmail", mock.Anything, "ada@example.com").Return(user, nil)

		got, token, err := svc.AuthenticatePassword(context.Background(), "ADA@example.com ", "secure1pass")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		claims, err := deps.tokens.Verify(token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, jwt.MethodPassword, claims.AuthMethod)
	})

	t.Run("failures are indistinguishable", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t)

		oauthOnly := &auth.User{
			ID:       uuid.New(),
			Email:    "oauth@example.com",
			Provider: auth.ProviderExternal,
			IsActive: true,
		}
		withPassword := &auth.User{
			ID:           uuid.New(),
			Email:        "ada@example.com",
			PasswordHash: minCostHash(t, "secure1pass"),
			Provider:     auth.ProviderEmail,
			IsActive:     true,
		}
		deps.storage.On("UserByEmail", mock.Anything, "missing@example.com").Return(nil, auth.ErrUserNotFound)
		deps.storage.On("UserByEmail", mock.Anything, "oauth@example.com").Return(oauthOnly, nil)
		deps.storage.On("UserByEmail", mock.Anything, "ada@example.com").Return(withPassword, nil)

		for _, tc := range []struct{ email, pass string }{
			{"missing@example.com", "secure1pass"}, // unknown email
			{"oauth@example.com", "secure1pass"},   // no password on file
			{"ada@example.com", "wrong1pass"},      // wrong password
		} {
			_, _, err := svc.AuthenticatePassword(context.Background(), tc.email, tc.pass)
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials, "email %s", tc.email)
		}
	})

	t.Run("disabled account with correct password", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t)
		user := &auth.User{
			ID:           uuid.New(),
			Email:        "ada@example.com",
			PasswordHash: minCostHash(t, "secure1pass"),
			IsActive:     false,
		}
		deps.storage.On("UserByEmail", mock.Anything, "ada@example.com").Return(user, nil)

		_, _, err := svc.AuthenticatePassword(context.Background(), "ada@example.com", "secure1pass")
		assert.ErrorIs(t, err, auth.ErrAccountDisabled)

		// Wrong password on the same disabled account must not reveal the
		// account state.
		_, _, err = svc.AuthenticatePassword(context.Background(), "ada@example.com", "wrong1pass")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("lazily upgrades low-cost hashes", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t,
			auth.WithPasswordHasher(password.New(password.WithCost(bcrypt.MinCost+1))))

		user := &auth.User{
			ID:           uuid.New(),
			Email:        "ada@example.com",
			PasswordHash: minCostHash(t, "secure1pass"),
			IsActive:     true,
		}
		deps.storage.On("UserByEmail", mock.Anything, "ada@example.com").Return(user, nil)
		deps.storage.On("UpdatePasswordHash", mock.Anything, user.ID, mock.Anything).Return(nil)

		_, _, err := svc.AuthenticatePassword(context.Background(), "ada@example.com", "secure1pass")
		require.NoError(t, err)

		deps.storage.AssertCalled(t, "UpdatePasswordHash", mock.Anything, user.ID, mock.Anything)
		cost, err := bcrypt.Cost(user.PasswordHash)
		require.NoError(t, err)
		assert.Equal(t, bcrypt.MinCost+1, cost)
	})

	t.Run("rehash persist failure does not fail the login", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t,
			auth.WithPasswordHasher(password.New(password.WithCost(bcrypt.MinCost+1))))

		user := &auth.User{
			ID:           uuid.New(),
			Email:        "ada@example.com",
			PasswordHash: minCostHash(t, "secure1pass"),
			IsActive:     true,
		}
		deps.storage.On("UserByEmail", mock.Anything, "ada@example.com").Return(user, nil)
		deps.storage.On("UpdatePasswordHash", mock.Anything, user.ID, mock.Anything).
			Return(errors.Join(auth.ErrStorage, errors.New("connection reset")))

		_, token, err := svc.AuthenticatePassword(context.Background(), "ada@example.com", "secure1pass")
		require.NoError(t, err)
		assert.NotNil(t, token)
	})
}

func TestAuthenticateExternal(t *testing.T) {
	t.Parallel()

	t.Run("validated identity resolves and signs in", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t)
		identity := testIdentity()
		userID := uuid.New()

		deps.validator.On("Validate", mock.Anything, "provider-token").Return(identity, nil)
		deps.store.On("IdentityBySubject", mock.Anything, "google", "g-12345").
			Return(&auth.ExternalIdentity{UserID: userID}, nil)
		deps.store.On("UserByID", mock.Anything, userID).
			Return(&auth.User{ID: userID, Email: identity.Email, Provider: auth.ProviderExternal, IsActive: true}, nil)

		user, token, err := svc.AuthenticateExternal(context.Background(), "provider-token")
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)

		claims, err := deps.tokens.Verify(token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "google_oauth", claims.AuthMethod)
	})

	t.Run("validator errors pass through untouched", func(t *testing.T) {
		t.Parallel()

		for _, sentinel := range []error{
			auth.ErrInvalidProviderToken,
			auth.ErrInsufficientScope,
			auth.ErrUnverifiedEmail,
			auth.ErrProviderUnavailable,
		} {
			svc, deps := newTestService(t)
			deps.validator.On("Validate", mock.Anything, "provider-token").
				Return(auth.Identity{}, sentinel)

			_, _, err := svc.AuthenticateExternal(context.Background(), "provider-token")
			assert.ErrorIs(t, err, sentinel)
		}
	})

	t.Run("without a validator external auth is unavailable", func(t *testing.T) {
		t.Parallel()

		deps := &serviceDeps{storage: &mockStorage{}, store: &mockIdentityStore{}}
		tokens, err := jwt.NewFromString(signingKey)
		require.NoError(t, err)
		resolver, err := auth.NewResolver(&fakeUnitOfWork{store: deps.store})
		require.NoError(t, err)
		svc, err := auth.NewService(deps.storage, resolver, tokens, nil)
		require.NoError(t, err)

		_, _, err = svc.AuthenticateExternal(context.Background(), "provider-token")
		assert.ErrorIs(t, err, auth.ErrProviderUnavailable)
	})
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	issue := func(t *testing.T, svc *auth.Service, deps *serviceDeps, user *auth.User) string {
		t.Helper()

		claims := jwt.SessionClaims{Email: user.Email, AuthMethod: jwt.MethodPassword}
		claims.Subject = user.ID.String()
		token, err := deps.tokens.Issue(claims, time.Hour)
		require.NoError(t, err)
		return token
	}

	t.Run("valid token returns its active user", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t)
		user := &auth.User{ID: uuid.New(), Email: "ada@example.com", IsActive: true}
		deps.storage.On("UserByID", mock.Anything, user.ID).Return(user, nil)

		got, err := svc.ValidateToken(context.Background(), issue(t, svc, deps, user))
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("expired and malformed tokens keep their jwt error kinds", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t)
		user := &auth.User{ID: uuid.New(), Email: "ada@example.com", IsActive: true}

		claims := jwt.SessionClaims{Email: user.Email}
		claims.Subject = user.ID.String()
		expired, err := deps.tokens.Issue(claims, -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(context.Background(), expired)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)

		_, err = svc.ValidateToken(context.Background(), "garbage")
		assert.ErrorIs(t, err, jwt.ErrTokenInvalid)
	})

	t.Run("non-uuid subject is an invalid token", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t)
		claims := jwt.SessionClaims{Email: "ada@example.com"}
		claims.Subject = "not-a-uuid"
		token, err := deps.tokens.Issue(claims, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalid)
	})

	t.Run("deactivated or deleted users fail despite a valid signature", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t)

		disabled := &auth.User{ID: uuid.New(), Email: "off@example.com", IsActive: false}
		gone := &auth.User{ID: uuid.New(), Email: "gone@example.com", IsActive: true}
		deps.storage.On("UserByID", mock.Anything, disabled.ID).Return(disabled, nil)
		deps.storage.On("UserByID", mock.Anything, gone.ID).Return(nil, auth.ErrUserNotFound)

		_, err := svc.ValidateToken(context.Background(), issue(t, svc, deps, disabled))
		assert.ErrorIs(t, err, auth.ErrAccountDisabled)

		_, err = svc.ValidateToken(context.Background(), issue(t, svc, deps, gone))
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	t.Run("reissues with a fresh ttl and the original method", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t, auth.WithTokenTTL(time.Hour))
		user := &auth.User{ID: uuid.New(), Email: "ada@example.com", IsActive: true}
		deps.storage.On("UserByID", mock.Anything, user.ID).Return(user, nil)

		claims := jwt.SessionClaims{Email: user.Email, AuthMethod: "google_oauth"}
		claims.Subject = user.ID.String()
		original, err := deps.tokens.Issue(claims, 2*time.Minute)
		require.NoError(t, err)

		refreshed, err := svc.RefreshToken(context.Background(), original)
		require.NoError(t, err)
		assert.Equal(t, int64(3600), refreshed.ExpiresIn)

		got, err := deps.tokens.Verify(refreshed.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "google_oauth", got.AuthMethod)
		assert.Equal(t, user.ID.String(), got.Subject)
	})

	t.Run("rejects invalid tokens and disabled users", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t)
		disabled := &auth.User{ID: uuid.New(), Email: "off@example.com", IsActive: false}
		deps.storage.On("UserByID", mock.Anything, disabled.ID).Return(disabled, nil)

		_, err := svc.RefreshToken(context.Background(), "garbage")
		assert.ErrorIs(t, err, jwt.ErrTokenInvalid)

		claims := jwt.SessionClaims{Email: disabled.Email, AuthMethod: jwt.MethodPassword}
		claims.Subject = disabled.ID.String()
		token, err := deps.tokens.Issue(claims, time.Hour)
		require.NoError(t, err)

		_, err = svc.RefreshToken(context.Background(), token)
		assert.ErrorIs(t, err, auth.ErrAccountDisabled)
	})
}

func TestDeactivateAccount(t *testing.T) {
	t.Parallel()

	t.Run("disables the user", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t)
		id := uuid.New()
		deps.storage.On("SetUserActive", mock.Anything, id, false).Return(nil)

		require.NoError(t, svc.DeactivateAccount(context.Background(), id))
		deps.storage.AssertExpectations(t)
	})

	t.Run("propagates storage errors", func(t *testing.T) {
		t.Parallel()

		svc, deps := newTestService(t)
		id := uuid.New()
		deps.storage.On("SetUserActive", mock.Anything, id, false).Return(auth.ErrUserNotFound)

		err := svc.DeactivateAccount(context.Background(), id)
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}
