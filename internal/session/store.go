package session

import (
	"context"
	"time"
)

// Session binds a browser to a signed-in user of one team. It stores only
// identity pointers, never provider tokens.
type Session struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	TeamID    string    `json:"team_id"`
	Provider  string    `json:"provider"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store defines how sessions are stored and retrieved. Get returns
// (nil, nil) for an unknown session.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
}
