package auth

import (
	"context"

	"github.com/google/uuid"
)

// Storage is the persistence surface of the orchestrator. Implementations
// map duplicate-key violations to ErrDuplicateEmail and missing rows to
// ErrUserNotFound; everything else is wrapped in ErrStorage.
type Storage interface {
	CreateUser(ctx context.Context, user *User) error
	UserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) error
}

// IdentityStore is the transactional surface the resolver works against.
// All methods observe and mutate state inside the transaction that
// UnitOfWork.Within opened.
type IdentityStore interface {
	IdentityBySubject(ctx context.Context, provider, subjectID string) (*ExternalIdentity, error)
	UserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	CreateIdentity(ctx context.Context, identity *ExternalIdentity) error
	SetUserProvider(ctx context.Context, id uuid.UUID, provider AuthProvider) error
}

// UnitOfWork runs a function inside a single storage transaction. An error
// from fn rolls the transaction back; nil commits it.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, store IdentityStore) error) error
}
