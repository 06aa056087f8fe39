// Package pgstore is the PostgreSQL implementation of the auth storage
// interfaces over pgx. It translates SQLSTATE failures into the auth
// package's sentinels so business logic never inspects driver errors.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ideafly/authkit/pkg/auth"
	"github.com/ideafly/authkit/pkg/pg"
)

// Store implements auth.Storage and auth.UnitOfWork over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ auth.Storage    = (*Store)(nil)
	_ auth.UnitOfWork = (*Store)(nil)
)

// New creates a Store over an established pool (see pg.Connect).
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// querier is the query surface shared by the pool and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Within runs fn inside a single transaction. fn returning an error rolls
// everything back, including partially applied resolver mutations.
func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, store auth.IdentityStore) error) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{q: tx})
	})
	if err == nil {
		return nil
	}
	// Sentinels from fn (duplicates, not-found, disabled) pass through for
	// the resolver to react to; only unrecognized failures become ErrStorage.
	if isAuthSentinel(err) {
		return err
	}
	return storageErr("transaction", err)
}

func (s *Store) CreateUser(ctx context.Context, user *auth.User) error {
	return createUser(ctx, s.pool, user)
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return userByID(ctx, s.pool, id)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return userByEmail(ctx, s.pool, email)
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id, hash)
	if err != nil {
		return storageErr("update password hash", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (s *Store) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`,
		id, active)
	if err != nil {
		return storageErr("set user active", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// Healthcheck exposes the underlying pool probe.
func (s *Store) Healthcheck() func(context.Context) error {
	return pg.Healthcheck(s.pool)
}

const userColumns = `id, email, name, password_hash, auth_provider, is_active, created_at, updated_at`

func createUser(ctx context.Context, q querier, user *auth.User) error {
	_, err := q.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, auth_provider, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Email, user.Name, user.PasswordHash,
		string(user.Provider), user.IsActive, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return auth.ErrDuplicateEmail
		}
		return storageErr("create user", err)
	}
	return nil
}

func userByID(ctx context.Context, q querier, id uuid.UUID) (*auth.User, error) {
	row := q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, "user by id")
}

func userByEmail(ctx context.Context, q querier, email string) (*auth.User, error) {
	row := q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row, "user by email")
}

func scanUser(row pgx.Row, op string) (*auth.User, error) {
	var (
		user     auth.User
		provider string
	)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&provider, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrUserNotFound
		}
		return nil, storageErr(op, err)
	}
	user.Provider = auth.AuthProvider(provider)
	return &user, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", auth.ErrStorage, op, err)
}

func isAuthSentinel(err error) bool {
	for _, sentinel := range []error{
		auth.ErrDuplicateEmail,
		auth.ErrDuplicateIdentity,
		auth.ErrUserNotFound,
		auth.ErrIdentityNotFound,
		auth.ErrAccountDisabled,
		auth.ErrIdentityResolution,
		auth.ErrStorage,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
