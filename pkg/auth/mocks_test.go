package auth_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ideafly/authkit/pkg/auth"
)

// mockStorage implements auth.Storage.
type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) CreateUser(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockStorage) UserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) UserByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *mockStorage) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

// mockIdentityStore implements auth.IdentityStore.
type mockIdentityStore struct {
	mock.Mock
}

func (m *mockIdentityStore) IdentityBySubject(ctx context.Context, provider, subjectID string) (*auth.ExternalIdentity, error) {
	args := m.Called(ctx, provider, subjectID)
	if id := args.Get(0); id != nil {
		return id.(*auth.ExternalIdentity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentityStore) UserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentityStore) UserByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentityStore) CreateUser(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockIdentityStore) CreateIdentity(ctx context.Context, identity *auth.ExternalIdentity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *mockIdentityStore) SetUserProvider(ctx context.Context, id uuid.UUID, provider auth.AuthProvider) error {
	args := m.Called(ctx, id, provider)
	return args.Error(0)
}

// fakeUnitOfWork runs the callback against a fixed store. The resolver only
// needs transaction semantics from real storage; tests care about the
// branch logic.
type fakeUnitOfWork struct {
	store auth.IdentityStore
}

func (f *fakeUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, store auth.IdentityStore) error) error {
	return fn(ctx, f.store)
}

// mockExternalValidator implements auth.ExternalValidator.
type mockExternalValidator struct {
	mock.Mock
}

func (m *mockExternalValidator) Validate(ctx context.Context, accessToken string) (auth.Identity, error) {
	args := m.Called(ctx, accessToken)
	return args.Get(0).(auth.Identity), args.Error(1)
}
