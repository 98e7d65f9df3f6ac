// Package office365 signs users in through Microsoft identity. Teams are
// keyed by the email domain in teams.office365_id.
package office365

import (
	"context"
	"strings"
	"time"

	"team-sso/internal/auth/provider/oidc"

	"go.uber.org/zap"
)

const (
	Name = "office365"

	scopeUserRead = "User.Read"
)

// tenant-independent authorities issue tokens under the user's own tenant.
var multiTenantAuthorities = []string{"/common/", "/organizations/", "/consumers/"}

type Config struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration
}

func New(ctx context.Context, cfg Config, log *zap.SugaredLogger) (*oidc.Provider, error) {
	return oidc.New(ctx, oidc.Options{
		Name:         Name,
		Issuer:       cfg.Issuer,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{scopeUserRead},
		Timeout:      cfg.Timeout,
		MultiTenant:  isMultiTenant(cfg.Issuer),
	}, log)
}

func isMultiTenant(issuer string) bool {
	issuer = strings.TrimRight(issuer, "/") + "/"
	for _, a := range multiTenantAuthorities {
		if strings.Contains(issuer, a) {
			return true
		}
	}
	return false
}
