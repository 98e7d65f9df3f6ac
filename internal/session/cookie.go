package session

import (
	"net"
	"net/http"
	"strings"
	"time"
)

// CookieName is shared by the base host and every team subdomain, so it
// cannot use the __Host- prefix.
const CookieName = "sso_session"

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if !o.HttpOnly {
		o.HttpOnly = true
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// SetCookie issues the session cookie to the client.
func SetCookie(w http.ResponseWriter, sessionID string, expiresAt time.Time, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Expires:  expiresAt,
		HttpOnly: opts.HttpOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// ClearCookie removes the session cookie from the client.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     opts.Path,
		Domain:   opts.Domain,
		MaxAge:   -1,
		HttpOnly: opts.HttpOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// CookieDomain picks the Domain attribute for cookies set while serving
// requestHost. Requests on the base host or one of its subdomains share
// the base host; anything else is a custom domain and keeps its own host.
func CookieDomain(requestHost, baseHost string) string {
	requestHost = stripPort(strings.ToLower(requestHost))
	baseHost = stripPort(strings.ToLower(baseHost))

	if baseHost == "" {
		return requestHost
	}
	if requestHost == baseHost || strings.HasSuffix(requestHost, "."+baseHost) {
		return baseHost
	}
	return requestHost
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
