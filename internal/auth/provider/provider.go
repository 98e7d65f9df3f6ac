package provider

import (
	"context"

	"team-sso/internal/auth"
)

// CallbackParams is what a provider posts back to the callback route.
// Implicit flows fill IDToken/AccessToken; code flows fill Code.
type CallbackParams struct {
	IDToken          string
	AccessToken      string
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// TokenSet holds the verified tokens of a completed handshake.
type TokenSet struct {
	AccessToken string
	IDToken     string
	Subject     string
}

// Provider defines the contract every external identity provider must
// implement. Implementations return identity facts only and must not
// perform user creation, linking, or session management.
type Provider interface {
	// Name returns the provider identifier (e.g. "office365", "google").
	Name() string

	// AuthorizationURL returns the URL the browser is redirected to. The
	// nonce is generated and stored by the caller.
	AuthorizationURL(nonce string) string

	// Exchange verifies the callback tokens against the expected nonce.
	Exchange(ctx context.Context, params CallbackParams, nonce string) (*TokenSet, error)

	// Profile reads the user profile for a verified token set.
	Profile(ctx context.Context, tokens *TokenSet) (*auth.Profile, error)
}
