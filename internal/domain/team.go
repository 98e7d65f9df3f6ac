package domain

import (
	"net/url"
	"time"
)

// Team is a tenant of the application. Each external identity provider
// contributes an optional, globally unique external id (for office365 and
// google this is the email domain).
type Team struct {
	ID             string
	Name           string
	AvatarURL      string
	SlackID        *string
	GoogleID       *string
	Office365ID    *string
	Subdomain      *string
	Sharing        bool
	GuestSignin    bool
	DocumentEmbeds bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t Team) SlackConnected() bool     { return t.SlackID != nil && *t.SlackID != "" }
func (t Team) GoogleConnected() bool    { return t.GoogleID != nil && *t.GoogleID != "" }
func (t Team) Office365Connected() bool { return t.Office365ID != nil && *t.Office365ID != "" }

// SigninMethods describes, for display, how members of the team sign in.
func SigninMethods(t Team) string {
	if t.SlackConnected() && t.GoogleConnected() {
		return "Slack or Google"
	}
	if t.Office365Connected() {
		return "Office 365"
	}
	if t.SlackConnected() {
		return "Slack"
	}
	return "Google"
}

// TeamURL returns the address a team is served on. With subdomains enabled
// and assigned it is https://<subdomain>.<base host>, otherwise the base URL.
func TeamURL(t Team, baseURL string, subdomainsEnabled bool) string {
	if !subdomainsEnabled || t.Subdomain == nil || *t.Subdomain == "" {
		return baseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	u.Host = *t.Subdomain + "." + u.Host
	u.Path = ""
	return u.String()
}
