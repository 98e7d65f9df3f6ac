// Package oidc is the OpenID Connect provider shared by every identity
// provider the service supports. Discovery happens once in New; the
// returned Provider is immutable and safe for concurrent use.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"team-sso/internal/auth"
	"team-sso/internal/auth/provider"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	responseTypeImplicit = "id_token token"
	responseModeFormPost = "form_post"
)

// Options configures one provider instance.
type Options struct {
	Name         string
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Scopes are requested in addition to openid, email and profile.
	Scopes []string
	// Timeout bounds discovery, token and userinfo calls.
	Timeout time.Duration
	// MultiTenant accepts ID tokens whose issuer differs from the discovery
	// issuer, as with tenant-independent Microsoft endpoints.
	MultiTenant bool
	// KeySet overrides the discovered JWKS.
	KeySet gooidc.KeySet
}

type Provider struct {
	name     string
	log      *zap.SugaredLogger
	client   *http.Client
	oidc     *gooidc.Provider
	oauth    *oauth2.Config
	verifier *gooidc.IDTokenVerifier
}

var _ provider.Provider = (*Provider)(nil)

// New runs discovery against opts.Issuer and returns a ready provider.
func New(ctx context.Context, opts Options, log *zap.SugaredLogger) (*Provider, error) {
	if opts.Name == "" || opts.Issuer == "" || opts.ClientID == "" || opts.RedirectURL == "" {
		return nil, errors.New("oidc provider config missing required fields")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	client := &http.Client{Timeout: opts.Timeout}
	discoveryCtx := gooidc.ClientContext(ctx, client)
	if opts.MultiTenant {
		discoveryCtx = gooidc.InsecureIssuerURLContext(discoveryCtx, opts.Issuer)
	}

	op, err := gooidc.NewProvider(discoveryCtx, opts.Issuer)
	if err != nil {
		return nil, fmt.Errorf("init %s oidc provider: %w", opts.Name, err)
	}

	verifierCfg := &gooidc.Config{
		ClientID:        opts.ClientID,
		SkipIssuerCheck: opts.MultiTenant,
	}
	var verifier *gooidc.IDTokenVerifier
	if opts.KeySet != nil {
		verifier = gooidc.NewVerifier(opts.Issuer, opts.KeySet, verifierCfg)
	} else {
		verifier = op.Verifier(verifierCfg)
	}

	scopes := []string{gooidc.ScopeOpenID, "email", "profile"}
	scopes = append(scopes, opts.Scopes...)

	return &Provider{
		name:   opts.Name,
		log:    log.Named("provider." + opts.Name),
		client: client,
		oidc:   op,
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Endpoint:     op.Endpoint(),
			Scopes:       scopes,
		},
		verifier: verifier,
	}, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return p.name
}

// AuthorizationURL asks for an implicit id_token + access token pair posted
// back as a form. The nonce doubles as the state parameter.
func (p *Provider) AuthorizationURL(nonce string) string {
	return p.oauth.AuthCodeURL(
		nonce,
		oauth2.SetAuthURLParam("response_type", responseTypeImplicit),
		oauth2.SetAuthURLParam("response_mode", responseModeFormPost),
		gooidc.Nonce(nonce),
	)
}

func (p *Provider) Exchange(ctx context.Context, params provider.CallbackParams, nonce string) (*provider.TokenSet, error) {
	if params.Error != "" {
		return nil, fmt.Errorf("%w: %s: %s", auth.ErrProviderHandshake, params.Error, params.ErrorDescription)
	}
	if nonce == "" {
		return nil, fmt.Errorf("%w: no nonce stored", auth.ErrNonceMismatch)
	}

	ctx = gooidc.ClientContext(ctx, p.client)

	rawIDToken, accessToken := params.IDToken, params.AccessToken
	if rawIDToken == "" && params.Code != "" {
		token, err := p.oauth.Exchange(ctx, params.Code)
		if err != nil {
			return nil, fmt.Errorf("%w: %s token exchange: %v", auth.ErrProviderHandshake, p.name, err)
		}
		rawIDToken, _ = token.Extra("id_token").(string)
		accessToken = token.AccessToken
	}
	if rawIDToken == "" {
		return nil, fmt.Errorf("%w: %s did not return id_token", auth.ErrProviderHandshake, p.name)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %s id_token verification: %v", auth.ErrProviderHandshake, p.name, err)
	}
	if idToken.Nonce != nonce {
		return nil, auth.ErrNonceMismatch
	}
	if accessToken != "" && idToken.AccessTokenHash != "" {
		if err := idToken.VerifyAccessToken(accessToken); err != nil {
			return nil, fmt.Errorf("%w: %s access token hash: %v", auth.ErrProviderHandshake, p.name, err)
		}
	}

	p.log.Debugw("id_token verified",
		"issuer", idToken.Issuer,
		"audience", idToken.Audience,
		"expiry_unix", idToken.Expiry.Unix(),
	)

	return &provider.TokenSet{
		AccessToken: accessToken,
		IDToken:     rawIDToken,
		Subject:     idToken.Subject,
	}, nil
}

// Profile reads the userinfo endpoint. The userinfo subject must match the
// verified ID token subject.
func (p *Provider) Profile(ctx context.Context, tokens *provider.TokenSet) (*auth.Profile, error) {
	if tokens == nil || tokens.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token", auth.ErrProfileFetch)
	}

	ctx = gooidc.ClientContext(ctx, p.client)
	info, err := p.oidc.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: tokens.AccessToken,
		TokenType:   "Bearer",
	}))
	if err != nil {
		return nil, fmt.Errorf("%w: %s userinfo: %v", auth.ErrProfileFetch, p.name, err)
	}

	var claims struct {
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
		Mail              string `json:"mail"`
	}
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %s userinfo claims: %v", auth.ErrProfileFetch, p.name, err)
	}

	email := info.Email
	if email == "" {
		email = claims.Mail
	}
	if email == "" && strings.Contains(claims.PreferredUsername, "@") {
		email = claims.PreferredUsername
	}

	if info.Subject == "" || email == "" {
		return nil, fmt.Errorf("%w: %s userinfo missing sub or email", auth.ErrProfileFetch, p.name)
	}
	if tokens.Subject != "" && info.Subject != tokens.Subject {
		return nil, fmt.Errorf("%w: %s userinfo subject differs from id_token", auth.ErrProfileFetch, p.name)
	}

	return &auth.Profile{
		Provider: p.name,
		Subject:  info.Subject,
		Email:    email,
		Name:     claims.Name,
	}, nil
}
