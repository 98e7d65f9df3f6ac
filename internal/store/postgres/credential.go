package postgres

import (
	"context"
	"errors"
	"fmt"

	"team-sso/internal/domain"
	"team-sso/internal/store"

	"github.com/jackc/pgx/v5"
)

const (
	insertCredentialQuery = `INSERT INTO credentials (user_id, password_hash, hash_version)
VALUES ($1, $2, $3)
RETURNING id, created_at, updated_at`
	selectCredentialQuery = `SELECT id, user_id, password_hash, hash_version, created_at, updated_at
FROM credentials WHERE user_id = $1`
)

// CreateUserWithCredential inserts an email user and its password hash in
// one transaction. Neither row is kept when either insert fails.
func (p *Postgres) CreateUserWithCredential(ctx context.Context, user *domain.User, cred *domain.Credential) error {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := scanUser(tx.QueryRow(ctx, insertUserQuery,
		user.TeamID, user.Service, user.ServiceID, user.Email, user.Name, user.AvatarURL, user.IsAdmin))
	if err != nil {
		if isUniqueViolation(err) {
			p.log.Infow("user insert conflict", "team_id", user.TeamID, "email", user.Email)
			return store.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	cred.UserID = created.ID
	err = tx.QueryRow(ctx, insertCredentialQuery, cred.UserID, cred.PasswordHash, cred.HashVersion).
		Scan(&cred.ID, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert credential: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	*user = *created
	return nil
}

// GetCredentialByUser fetches the credential of a user.
func (p *Postgres) GetCredentialByUser(ctx context.Context, userID string) (*domain.Credential, error) {
	var c domain.Credential
	err := p.db.QueryRow(ctx, selectCredentialQuery, userID).
		Scan(&c.ID, &c.UserID, &c.PasswordHash, &c.HashVersion, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return &c, nil
}
