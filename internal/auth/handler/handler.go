package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"team-sso/internal/auth/provider"
	"team-sso/internal/auth/resolver"
	"team-sso/internal/domain"
	"team-sso/internal/metrics"
	"team-sso/internal/session"
	"team-sso/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	callbackSuffix = ".callback"

	routeEmailLogin    = "email.login"
	routeEmailRegister = "email.register"
	routeLogout        = "logout"
)

// Store is the persistence the handler reads and updates directly.
type Store interface {
	store.TeamStore
	store.UserStore
}

// Credentials is the email/password sign-in path.
type Credentials interface {
	Register(ctx context.Context, team domain.Team, name, email, password, ip string) (*domain.User, error)
	Authenticate(ctx context.Context, teamID, email, password string) (*domain.User, error)
}

type Options struct {
	BaseURL           string
	SubdomainsEnabled bool
	SessionTTL        time.Duration
	SignupEnabled     bool
}

type Handler struct {
	log          *zap.SugaredLogger
	providers    *provider.Registry
	resolver     resolver.Resolver
	sessionStore session.Store
	store        Store
	credentials  Credentials
	metrics      *metrics.Signin
	opts         Options
	baseHost     string
	secure       bool
	now          func() time.Time
}

func NewHandler(
	registry *provider.Registry,
	sessionStore session.Store,
	resolver resolver.Resolver,
	st Store,
	credentials Credentials,
	m *metrics.Signin,
	opts Options,
	log *zap.SugaredLogger,
) *Handler {
	h := &Handler{
		log:          log.Named("auth"),
		providers:    registry,
		resolver:     resolver,
		sessionStore: sessionStore,
		store:        st,
		credentials:  credentials,
		metrics:      m,
		opts:         opts,
		now:          time.Now,
	}
	if u, err := url.Parse(opts.BaseURL); err == nil {
		h.baseHost = u.Host
		h.secure = u.Scheme == "https"
	}
	return h
}

// RegisterRoutes mounts the sign-in routes. Callbacks arrive as
// POST /auth/<provider>.callback, which gin cannot split from the static
// email and logout routes, so all POSTs go through one dispatcher.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/auth/:provider", h.get)
	r.POST("/auth/:provider", h.post)
}

func (h *Handler) get(c *gin.Context) {
	name := c.Param("provider")
	if p, ok := strings.CutSuffix(name, callbackSuffix); ok {
		h.callback(c, p)
		return
	}
	h.login(c, name)
}

func (h *Handler) post(c *gin.Context) {
	name := c.Param("provider")
	switch name {
	case routeEmailLogin:
		h.emailLogin(c)
	case routeEmailRegister:
		h.emailRegister(c)
	case routeLogout:
		h.logout(c)
	default:
		p, ok := strings.CutSuffix(name, callbackSuffix)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		h.callback(c, p)
	}
}

func (h *Handler) teamURL(t domain.Team) string {
	return strings.TrimRight(domain.TeamURL(t, h.opts.BaseURL, h.opts.SubdomainsEnabled), "/")
}

func (h *Handler) cookieDomain(c *gin.Context) string {
	return session.CookieDomain(c.Request.Host, h.baseHost)
}

// signIn establishes a session for user and returns where to send the
// browser next.
func (h *Handler) signIn(c *gin.Context, providerName string, team domain.Team, user domain.User, isFirstSignin bool) (string, error) {
	ctx := c.Request.Context()
	now := h.now()
	ip := c.ClientIP()

	if err := h.store.UpdateSignedIn(ctx, user.ID, ip, now); err != nil {
		return "", err
	}

	sessionID, err := session.GenerateID()
	if err != nil {
		return "", err
	}

	expiresAt := now.Add(h.opts.SessionTTL)
	if err := h.sessionStore.Create(ctx, session.Session{
		SessionID: sessionID,
		UserID:    user.ID,
		TeamID:    team.ID,
		Provider:  providerName,
		IP:        ip,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}); err != nil {
		return "", err
	}

	session.SetCookie(c.Writer, sessionID, expiresAt, session.CookieOptions{
		Domain:   h.cookieDomain(c),
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	h.log.Infow("signed in",
		"provider", providerName,
		"team_id", team.ID,
		"user_id", user.ID,
		"first_signin", isFirstSignin,
		"ip", ip,
	)

	target := h.teamURL(team) + "/home"
	if isFirstSignin {
		target += "?welcome"
	}
	return target, nil
}

func (h *Handler) logout(c *gin.Context) {
	if cookie, err := c.Request.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		if err := h.sessionStore.Delete(c.Request.Context(), cookie.Value); err != nil {
			h.log.Warnw("session delete failed", "error", err)
		}
	}

	session.ClearCookie(c.Writer, session.CookieOptions{
		Domain:   h.cookieDomain(c),
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	c.Status(http.StatusNoContent)
}
