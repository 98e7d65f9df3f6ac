package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"team-sso/internal/domain"
	"team-sso/internal/store"

	"github.com/jackc/pgx/v5"
)

const (
	userColumns = `id, team_id, service, service_id, email, name, avatar_url, is_admin,
last_signed_in_at, last_signed_in_ip, created_at, updated_at`

	// Federated matches sort before invited ones.
	matchUserQuery = `SELECT ` + userColumns + `
FROM users
WHERE team_id = $1
  AND ((service = $2 AND service_id = $3) OR (service IS NULL AND LOWER(email) = LOWER($4)))
ORDER BY (service IS NULL)
LIMIT 1`

	insertUserQuery = `INSERT INTO users (team_id, service, service_id, email, name, avatar_url, is_admin)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

	selectUserQuery          = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	selectUserByServiceEmail = `SELECT ` + userColumns + ` FROM users WHERE team_id = $1 AND service = $2 AND LOWER(email) = LOWER($3) LIMIT 1`
	linkUserServiceQuery     = `UPDATE users SET service = $2, service_id = $3, avatar_url = $4, updated_at = NOW() WHERE id = $1`
	updateUserEmailQuery     = `UPDATE users SET email = $2, updated_at = NOW() WHERE id = $1`
	updateUserSignedInQuery  = `UPDATE users SET last_signed_in_at = $2, last_signed_in_ip = $3 WHERE id = $1`
)

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.TeamID,
		&u.Service,
		&u.ServiceID,
		&u.Email,
		&u.Name,
		&u.AvatarURL,
		&u.IsAdmin,
		&u.LastSignedInAt,
		&u.LastSignedInIP,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindOrCreateUser selects the matching user or inserts defaults. A unique
// violation on insert is reported as store.ErrConflict.
func (p *Postgres) FindOrCreateUser(ctx context.Context, match store.UserMatch, defaults domain.User) (*domain.User, bool, error) {
	u, err := scanUser(p.db.QueryRow(ctx, matchUserQuery, match.TeamID, match.Service, match.ServiceID, match.Email))
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("match user: %w", err)
	}

	defaults.TeamID = match.TeamID
	if err := p.CreateUser(ctx, &defaults); err != nil {
		return nil, false, err
	}
	return &defaults, true, nil
}

// CreateUser inserts user and fills generated fields.
func (p *Postgres) CreateUser(ctx context.Context, user *domain.User) error {
	created, err := scanUser(p.db.QueryRow(ctx, insertUserQuery,
		user.TeamID, user.Service, user.ServiceID, user.Email, user.Name, user.AvatarURL, user.IsAdmin))
	if err != nil {
		if isUniqueViolation(err) {
			p.log.Infow("user insert conflict", "team_id", user.TeamID, "email", user.Email)
			return store.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	*user = *created
	return nil
}

// GetUser fetches a user by id.
func (p *Postgres) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(p.db.QueryRow(ctx, selectUserQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// FindUserByServiceEmail fetches a team user by service and email, ignoring
// email case.
func (p *Postgres) FindUserByServiceEmail(ctx context.Context, teamID, service, email string) (*domain.User, error) {
	u, err := scanUser(p.db.QueryRow(ctx, selectUserByServiceEmail, teamID, service, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("find user by service email: %w", err)
	}
	return u, nil
}

// LinkUserService attaches an external identity to an invited user.
func (p *Postgres) LinkUserService(ctx context.Context, userID, service, serviceID, avatarURL string) error {
	return p.execUserUpdate(ctx, "link user service", linkUserServiceQuery, userID, service, serviceID, avatarURL)
}

// UpdateUserEmail replaces the stored email.
func (p *Postgres) UpdateUserEmail(ctx context.Context, userID, email string) error {
	return p.execUserUpdate(ctx, "update user email", updateUserEmailQuery, userID, email)
}

// UpdateSignedIn records the latest signin time and address.
func (p *Postgres) UpdateSignedIn(ctx context.Context, userID, ip string, at time.Time) error {
	return p.execUserUpdate(ctx, "update signed in", updateUserSignedInQuery, userID, at, ip)
}

func (p *Postgres) execUserUpdate(ctx context.Context, op, query string, args ...any) error {
	tag, err := p.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
