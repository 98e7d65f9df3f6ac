package oidc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"team-sso/internal/auth"
	"team-sso/internal/auth/provider"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testClientID    = "client-1"
	testAccessToken = "access-good"
)

// payloadKeySet accepts any signature and returns the JWT payload.
type payloadKeySet struct{}

func (payloadKeySet) VerifySignature(_ context.Context, jwt string) ([]byte, error) {
	parts := strings.Split(jwt, ".")
	return base64.RawURLEncoding.DecodeString(parts[1])
}

func fakeJWT(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	body, err := json.Marshal(claims)
	require.NoError(t, err)
	sig := base64.RawURLEncoding.EncodeToString([]byte("signature"))
	return header + "." + base64.RawURLEncoding.EncodeToString(body) + "." + sig
}

type fakeIdP struct {
	srv      *httptest.Server
	userinfo map[string]any
	idToken  string
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()
	idp := &fakeIdP{
		userinfo: map[string]any{"sub": "abc123", "email": "alice@acme.com", "name": "Alice Smith"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		base := idp.srv.URL
		writeJSON(w, map[string]any{
			"issuer":                                base,
			"authorization_endpoint":                base + "/authorize",
			"token_endpoint":                        base + "/token",
			"jwks_uri":                              base + "/keys",
			"userinfo_endpoint":                     base + "/userinfo",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testAccessToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, idp.userinfo)
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "code-good" {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, map[string]any{"error": "invalid_grant"})
			return
		}
		writeJSON(w, map[string]any{
			"access_token": testAccessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idp.idToken,
		})
	})

	idp.srv = httptest.NewServer(mux)
	t.Cleanup(idp.srv.Close)
	return idp
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeIdP) token(t *testing.T, nonce string) string {
	return fakeJWT(t, map[string]any{
		"iss":   f.srv.URL,
		"aud":   testClientID,
		"sub":   "abc123",
		"nonce": nonce,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
}

func newTestProvider(t *testing.T, idp *fakeIdP, scopes ...string) *Provider {
	t.Helper()
	p, err := New(context.Background(), Options{
		Name:        "office365",
		Issuer:      idp.srv.URL,
		ClientID:    testClientID,
		RedirectURL: "https://app.test/auth/office365.callback",
		Scopes:      scopes,
		Timeout:     time.Second,
		KeySet:      payloadKeySet{},
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	return p
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), Options{Name: "office365"}, zap.NewNop().Sugar())
	require.Error(t, err)
}

func TestNewFailsWhenDiscoveryFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := New(context.Background(), Options{
		Name:        "google",
		Issuer:      srv.URL,
		ClientID:    testClientID,
		RedirectURL: "https://app.test/auth/google.callback",
	}, zap.NewNop().Sugar())
	require.Error(t, err)
}

func TestAuthorizationURL(t *testing.T) {
	idp := newFakeIdP(t)
	p := newTestProvider(t, idp, "User.Read")

	u, err := url.Parse(p.AuthorizationURL("nonce-1"))
	require.NoError(t, err)

	q := u.Query()
	require.Equal(t, idp.srv.URL+"/authorize", u.Scheme+"://"+u.Host+u.Path)
	require.Equal(t, "id_token token", q.Get("response_type"))
	require.Equal(t, "form_post", q.Get("response_mode"))
	require.Equal(t, "nonce-1", q.Get("nonce"))
	require.Equal(t, testClientID, q.Get("client_id"))
	require.Equal(t, "https://app.test/auth/office365.callback", q.Get("redirect_uri"))
	require.Equal(t, "openid email profile User.Read", q.Get("scope"))
}

func TestExchangeImplicitTokens(t *testing.T) {
	idp := newFakeIdP(t)
	p := newTestProvider(t, idp)

	tokens, err := p.Exchange(context.Background(), provider.CallbackParams{
		IDToken:     idp.token(t, "nonce-1"),
		AccessToken: testAccessToken,
	}, "nonce-1")
	require.NoError(t, err)
	require.Equal(t, "abc123", tokens.Subject)
	require.Equal(t, testAccessToken, tokens.AccessToken)

	profile, err := p.Profile(context.Background(), tokens)
	require.NoError(t, err)
	require.Equal(t, auth.Profile{Provider: "office365", Subject: "abc123", Email: "alice@acme.com", Name: "Alice Smith"}, *profile)
}

func TestExchangeAuthorizationCode(t *testing.T) {
	idp := newFakeIdP(t)
	idp.idToken = idp.token(t, "nonce-2")
	p := newTestProvider(t, idp)

	tokens, err := p.Exchange(context.Background(), provider.CallbackParams{Code: "code-good"}, "nonce-2")
	require.NoError(t, err)
	require.Equal(t, testAccessToken, tokens.AccessToken)

	_, err = p.Exchange(context.Background(), provider.CallbackParams{Code: "code-bad"}, "nonce-2")
	require.ErrorIs(t, err, auth.ErrProviderHandshake)
}

func TestExchangeNonceMismatch(t *testing.T) {
	idp := newFakeIdP(t)
	p := newTestProvider(t, idp)
	params := provider.CallbackParams{IDToken: idp.token(t, "nonce-1"), AccessToken: testAccessToken}

	_, err := p.Exchange(context.Background(), params, "nonce-other")
	require.ErrorIs(t, err, auth.ErrNonceMismatch)

	_, err = p.Exchange(context.Background(), params, "")
	require.ErrorIs(t, err, auth.ErrNonceMismatch)
}

func TestExchangeHandshakeFailures(t *testing.T) {
	idp := newFakeIdP(t)
	p := newTestProvider(t, idp)

	_, err := p.Exchange(context.Background(), provider.CallbackParams{Error: "access_denied"}, "nonce-1")
	require.ErrorIs(t, err, auth.ErrProviderHandshake)

	_, err = p.Exchange(context.Background(), provider.CallbackParams{}, "nonce-1")
	require.ErrorIs(t, err, auth.ErrProviderHandshake)

	expired := fakeJWT(t, map[string]any{
		"iss":   idp.srv.URL,
		"aud":   testClientID,
		"sub":   "abc123",
		"nonce": "nonce-1",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})
	_, err = p.Exchange(context.Background(), provider.CallbackParams{IDToken: expired}, "nonce-1")
	require.ErrorIs(t, err, auth.ErrProviderHandshake)
	require.NotErrorIs(t, err, auth.ErrNonceMismatch)
}

func TestProfileFailures(t *testing.T) {
	idp := newFakeIdP(t)
	p := newTestProvider(t, idp)

	_, err := p.Profile(context.Background(), &provider.TokenSet{AccessToken: "wrong"})
	require.ErrorIs(t, err, auth.ErrProfileFetch)
	require.ErrorIs(t, err, auth.ErrProviderHandshake)

	_, err = p.Profile(context.Background(), &provider.TokenSet{AccessToken: testAccessToken, Subject: "someone-else"})
	require.ErrorIs(t, err, auth.ErrProfileFetch)

	idp.userinfo = map[string]any{"sub": "abc123", "name": "No Mail"}
	_, err = p.Profile(context.Background(), &provider.TokenSet{AccessToken: testAccessToken})
	require.ErrorIs(t, err, auth.ErrProfileFetch)
}

func TestProfileFallsBackToPreferredUsername(t *testing.T) {
	idp := newFakeIdP(t)
	idp.userinfo = map[string]any{"sub": "abc123", "preferred_username": "alice@acme.com", "name": "Alice"}
	p := newTestProvider(t, idp)

	profile, err := p.Profile(context.Background(), &provider.TokenSet{AccessToken: testAccessToken, Subject: "abc123"})
	require.NoError(t, err)
	require.Equal(t, "alice@acme.com", profile.Email)
}
