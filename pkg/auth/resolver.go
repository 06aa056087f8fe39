package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ideafly/authkit/pkg/logger"
)

// Resolver maps a validated external identity to exactly one local user.
//
// Resolution runs three branches inside a single unit of work:
//
//  1. Fast path: the (provider, subject) pair is already linked.
//  2. Implicit linking: an account with the same verified email exists, so
//     the identity is attached to it.
//  3. New account: nothing matches, so a password-less user is created
//     together with the identity row.
//
// Concurrent resolutions of the same identity are serialized by the unique
// constraints on email and (provider, subject_id), not by locks: when an
// insert loses such a race the whole resolution is retried once, at which
// point the winner's rows are visible and the fast path or linking branch
// succeeds.
type Resolver struct {
	uow UnitOfWork
	log *slog.Logger
	now func() time.Time
}

// ResolverOption configures a Resolver during construction.
type ResolverOption func(*Resolver)

// WithResolverLogger enables logging; the default discards everything.
func WithResolverLogger(log *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if log != nil {
			r.log = log.With(logger.Component("resolver"))
		}
	}
}

// NewResolver creates a Resolver over the given unit of work.
func NewResolver(uow UnitOfWork, opts ...ResolverOption) (*Resolver, error) {
	if uow == nil {
		return nil, errors.New("auth: resolver requires a unit of work")
	}

	r := &Resolver{
		uow: uow,
		log: logger.Discard(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the active local user owning the identity, creating or
// linking accounts as needed. A deactivated owner yields ErrAccountDisabled.
// The same identity always resolves to the same user regardless of timing or
// concurrency.
func (r *Resolver) Resolve(ctx context.Context, identity Identity) (*User, error) {
	identity = identity.Normalize()
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	user, err := r.resolveOnce(ctx, identity)
	if err == nil {
		return user, nil
	}

	// A duplicate violation means a concurrent resolution or registration
	// committed first. Its rows are now visible, so one re-run lands on the
	// fast path or the linking branch instead of the losing insert.
	if errors.Is(err, ErrDuplicateIdentity) || errors.Is(err, ErrDuplicateEmail) {
		r.log.InfoContext(ctx, "resolution lost an insert race, retrying",
			logger.Provider(identity.Provider))

		user, err = r.resolveOnce(ctx, identity)
		if err == nil {
			return user, nil
		}
		if errors.Is(err, ErrDuplicateIdentity) || errors.Is(err, ErrDuplicateEmail) {
			return nil, fmt.Errorf("%w: insert race did not settle", ErrIdentityResolution)
		}
	}

	return nil, err
}

func (r *Resolver) resolveOnce(ctx context.Context, identity Identity) (*User, error) {
	var resolved *User

	err := r.uow.Within(ctx, func(ctx context.Context, store IdentityStore) error {
		user, err := r.resolveInTx(ctx, store, identity)
		if err != nil {
			return err
		}
		resolved = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (r *Resolver) resolveInTx(ctx context.Context, store IdentityStore, identity Identity) (*User, error) {
	// Branch 1: the identity is already linked.
	existing, err := store.IdentityBySubject(ctx, identity.Provider, identity.SubjectID)
	switch {
	case err == nil:
		user, err := store.UserByID(ctx, existing.UserID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				// An identity row without its user breaks referential
				// integrity; surface it as a resolution failure, not as a
				// missing account.
				return nil, fmt.Errorf("%w: identity %s/%s points at missing user %s",
					ErrIdentityResolution, identity.Provider, identity.SubjectID, existing.UserID)
			}
			return nil, err
		}
		if !user.IsActive {
			return nil, ErrAccountDisabled
		}
		return user, nil
	case !errors.Is(err, ErrIdentityNotFound):
		return nil, err
	}

	// Branch 2: link to an existing account with the same verified email.
	owner, err := store.UserByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if !owner.IsActive {
			return nil, ErrAccountDisabled
		}
		if err := store.CreateIdentity(ctx, r.newIdentityRow(owner.ID, identity)); err != nil {
			return nil, err
		}
		// First link promotes a password-only account to mixed. Accounts
		// already mixed or external keep their provider.
		if owner.Provider == ProviderEmail {
			if err := store.SetUserProvider(ctx, owner.ID, ProviderMixed); err != nil {
				return nil, err
			}
			owner.Provider = ProviderMixed
		}
		return owner, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	// Branch 3: first contact, create a password-less account.
	user := &User{
		ID:        uuid.New(),
		Email:     identity.Email,
		Name:      identity.Name,
		Provider:  ProviderExternal,
		IsActive:  true,
		CreatedAt: r.now(),
		UpdatedAt: r.now(),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if err := store.CreateIdentity(ctx, r.newIdentityRow(user.ID, identity)); err != nil {
		return nil, err
	}

	r.log.InfoContext(ctx, "created user from external identity",
		logger.UserID(user.ID), logger.Provider(identity.Provider))

	return user, nil
}

func (r *Resolver) newIdentityRow(userID uuid.UUID, identity Identity) *ExternalIdentity {
	return &ExternalIdentity{
		ID:        uuid.New(),
		UserID:    userID,
		Provider:  identity.Provider,
		SubjectID: identity.SubjectID,
		Email:     identity.Email,
		CreatedAt: r.now(),
		UpdatedAt: r.now(),
	}
}
