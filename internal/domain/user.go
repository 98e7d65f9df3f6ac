package domain

import "time"

// ServiceEmail marks users that authenticate with email and password.
const ServiceEmail = "email"

// User belongs to exactly one team. Service and ServiceID are nil for
// accounts created by invitation that have not signed in yet.
type User struct {
	ID             string
	TeamID         string
	Service        *string
	ServiceID      *string
	Email          string
	Name           string
	AvatarURL      string
	IsAdmin        bool
	LastSignedInAt *time.Time
	LastSignedInIP *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Federated reports whether the user is linked to an external identity.
func (u User) Federated() bool {
	return u.Service != nil && *u.Service != "" && u.ServiceID != nil && *u.ServiceID != ""
}
