// Package google signs users in through Google accounts. Teams are keyed
// by the email domain in teams.google_id.
package google

import (
	"context"
	"time"

	"team-sso/internal/auth/provider/oidc"

	"go.uber.org/zap"
)

const (
	Name = "google"

	defaultIssuer = "https://accounts.google.com"
)

type Config struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration
}

func New(ctx context.Context, cfg Config, log *zap.SugaredLogger) (*oidc.Provider, error) {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = defaultIssuer
	}
	return oidc.New(ctx, oidc.Options{
		Name:         Name,
		Issuer:       issuer,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Timeout:      cfg.Timeout,
	}, log)
}
