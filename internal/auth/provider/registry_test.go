package provider

import (
	"context"
	"testing"

	"team-sso/internal/auth"

	"github.com/stretchr/testify/require"
)

type namedProvider string

func (n namedProvider) Name() string                   { return string(n) }
func (n namedProvider) AuthorizationURL(string) string { return "https://idp.test/" + string(n) }
func (namedProvider) Exchange(context.Context, CallbackParams, string) (*TokenSet, error) {
	return nil, nil
}
func (namedProvider) Profile(context.Context, *TokenSet) (*auth.Profile, error) { return nil, nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry(namedProvider("office365"), namedProvider("google"))

	p, err := r.Get("office365")
	require.NoError(t, err)
	require.Equal(t, "office365", p.Name())

	_, err = r.Get("slack")
	require.ErrorIs(t, err, ErrUnknownProvider)

	require.Equal(t, []string{"google", "office365"}, r.Names())
}
