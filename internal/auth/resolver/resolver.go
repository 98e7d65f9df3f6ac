package resolver

import (
	"context"

	"team-sso/internal/auth"
	"team-sso/internal/domain"
)

// Resolver determines which team and user an external profile belongs to.
// It is the ONLY place where identity-to-user mapping logic lives.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (*Result, error)
}

// Request is a verified profile plus the request facts needed for audit.
type Request struct {
	Profile auth.Profile
	IP      string
}

// Result is the outcome of a successful signin resolution.
type Result struct {
	Team                domain.Team
	User                domain.User
	IsFirstUserOfTeam   bool
	IsFirstSigninOfUser bool
}
