package domain

import "time"

const EventUsersCreate = "users.create"

// Event is an append-only audit record.
type Event struct {
	ID        string
	Name      string
	ActorID   string
	UserID    string
	TeamID    string
	Data      map[string]any
	IP        string
	CreatedAt time.Time
}

// Collection groups documents inside a team.
type Collection struct {
	ID          string
	TeamID      string
	CreatorID   string
	Name        string
	Description string
	Color       string
	CreatedAt   time.Time
}

// Credential stores a password hash for a service="email" user.
type Credential struct {
	ID           string
	UserID       string
	PasswordHash string
	HashVersion  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
