package auth

import (
	"errors"
	"fmt"

	"team-sso/internal/domain"
)

var (
	// ErrProviderHandshake covers discovery, token and userinfo failures as
	// well as an explicit error returned by the provider.
	ErrProviderHandshake = errors.New("provider handshake failed")
	// ErrProfileFetch is a handshake failure while reading the user profile.
	ErrProfileFetch = fmt.Errorf("%w: profile fetch", ErrProviderHandshake)
	// ErrNonceMismatch signals a missing or mismatched nonce.
	ErrNonceMismatch = errors.New("nonce mismatch")
	// ErrDomainNotAllowed signals an email domain outside the allow-list.
	ErrDomainNotAllowed = errors.New("email domain not allowed")
	// ErrInvalidProfile signals a profile without a usable email or subject.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrEmailAuthRequired signals that an email/password account already
	// owns this address and must sign in through that path first.
	ErrEmailAuthRequired = errors.New("email auth required")
	// ErrAuthFailed is a generic storage conflict during signin.
	ErrAuthFailed = errors.New("auth failed")
	// ErrInvalidCredentials is returned by the email/password path.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// TeamError scopes a failure to a resolved team so callers can redirect
// the user to that team's own URL.
type TeamError struct {
	Team domain.Team
	Err  error
}

func (e *TeamError) Error() string {
	return fmt.Sprintf("team %s: %v", e.Team.ID, e.Err)
}

func (e *TeamError) Unwrap() error { return e.Err }
