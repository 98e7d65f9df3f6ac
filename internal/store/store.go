// Package store defines the persistence contracts used by signin.
package store

import (
	"context"
	"errors"
	"time"

	"team-sso/internal/domain"
)

var (
	// ErrNotFound indicates an entity was not located.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict indicates a unique constraint rejected the write.
	ErrConflict = errors.New("store: unique constraint violation")
	// ErrUnknownService is returned for a provider without a team external id column.
	ErrUnknownService = errors.New("store: unknown service")
)

// UserMatch selects a user inside a team either by external identity or,
// for accounts created by invitation, by email with no service recorded.
type UserMatch struct {
	TeamID    string
	Service   string
	ServiceID string
	Email     string
}

// TeamStore exposes team operations.
type TeamStore interface {
	// FindOrCreateTeam returns the team whose external id for service equals
	// externalID, inserting defaults when none exists. created is true only
	// for the call that inserted the row.
	FindOrCreateTeam(ctx context.Context, service, externalID string, defaults domain.Team) (team *domain.Team, created bool, err error)
	GetTeam(ctx context.Context, id string) (*domain.Team, error)
	GetTeamBySubdomain(ctx context.Context, subdomain string) (*domain.Team, error)
	// SetTeamSubdomain returns ErrConflict when another team owns subdomain.
	SetTeamSubdomain(ctx context.Context, teamID, subdomain string) error
}

// UserStore exposes user operations.
type UserStore interface {
	// FindOrCreateUser returns the user selected by match or inserts
	// defaults. A concurrent or overlapping insert yields ErrConflict.
	FindOrCreateUser(ctx context.Context, match UserMatch, defaults domain.User) (user *domain.User, created bool, err error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	FindUserByServiceEmail(ctx context.Context, teamID, service, email string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
	LinkUserService(ctx context.Context, userID, service, serviceID, avatarURL string) error
	UpdateUserEmail(ctx context.Context, userID, email string) error
	UpdateSignedIn(ctx context.Context, userID, ip string, at time.Time) error
}

// CollectionStore exposes collection operations.
type CollectionStore interface {
	CreateCollection(ctx context.Context, c *domain.Collection) error
}

// EventStore appends audit events.
type EventStore interface {
	CreateEvent(ctx context.Context, e *domain.Event) error
}

// CredentialStore keeps password hashes for email users.
type CredentialStore interface {
	// CreateUserWithCredential inserts user and its credential atomically;
	// cred.UserID is set from the new user. A unique violation on either
	// row yields ErrConflict and nothing is stored.
	CreateUserWithCredential(ctx context.Context, user *domain.User, cred *domain.Credential) error
	GetCredentialByUser(ctx context.Context, userID string) (*domain.Credential, error)
}

// Store aggregates every persistence interface.
type Store interface {
	TeamStore
	UserStore
	CollectionStore
	EventStore
	CredentialStore
}
