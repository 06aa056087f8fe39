package pgstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ideafly/authkit/pkg/auth"
	"github.com/ideafly/authkit/pkg/pg"
)

// txStore implements auth.IdentityStore inside one transaction.
type txStore struct {
	q querier
}

var _ auth.IdentityStore = (*txStore)(nil)

const identityColumns = `id, user_id, provider, subject_id, email, created_at, updated_at`

func (t *txStore) IdentityBySubject(ctx context.Context, provider, subjectID string) (*auth.ExternalIdentity, error) {
	row := t.q.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM external_identities WHERE provider = $1 AND subject_id = $2`,
		provider, subjectID)
	return scanIdentity(row)
}

func (t *txStore) UserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return userByID(ctx, t.q, id)
}

func (t *txStore) UserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return userByEmail(ctx, t.q, email)
}

func (t *txStore) CreateUser(ctx context.Context, user *auth.User) error {
	return createUser(ctx, t.q, user)
}

func (t *txStore) CreateIdentity(ctx context.Context, identity *auth.ExternalIdentity) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO external_identities (id, user_id, provider, subject_id, email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		identity.ID, identity.UserID, identity.Provider, identity.SubjectID,
		identity.Email, identity.CreatedAt, identity.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return auth.ErrDuplicateIdentity
		}
		return storageErr("create identity", err)
	}
	return nil
}

func (t *txStore) SetUserProvider(ctx context.Context, id uuid.UUID, provider auth.AuthProvider) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE users SET auth_provider = $2, updated_at = now() WHERE id = $1`,
		id, string(provider))
	if err != nil {
		return storageErr("set user provider", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func scanIdentity(row pgx.Row) (*auth.ExternalIdentity, error) {
	var identity auth.ExternalIdentity
	err := row.Scan(&identity.ID, &identity.UserID, &identity.Provider,
		&identity.SubjectID, &identity.Email, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrIdentityNotFound
		}
		return nil, storageErr("identity by subject", err)
	}
	return &identity, nil
}
