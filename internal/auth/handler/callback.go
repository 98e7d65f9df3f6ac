package handler

import (
	"errors"
	"net/http"
	"time"

	"team-sso/internal/auth"
	"team-sso/internal/auth/provider"
	"team-sso/internal/auth/resolver"

	"github.com/gin-gonic/gin"
)

const (
	outcomeSuccess           = "success"
	outcomeIdPResponse       = "idp-response"
	outcomeNonceError        = "nonce-error"
	outcomeHandshakeError    = "handshake-error"
	outcomeDomainNotAllowed  = "hd-not-allowed"
	outcomeEmailAuthRequired = "email-auth-required"
	outcomeAuthError         = "auth-error"
	outcomeError             = "error"
)

func (h *Handler) login(c *gin.Context, providerName string) {
	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}

	nonce, err := h.issueNonce(c, providerName)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.Redirect(http.StatusFound, p.AuthorizationURL(nonce))
}

// formValue reads a callback parameter from the posted form, falling back
// to the query string for providers that redirect with GET.
func formValue(c *gin.Context, key string) string {
	if v := c.PostForm(key); v != "" {
		return v
	}
	return c.Query(key)
}

func (h *Handler) callback(c *gin.Context, providerName string) {
	start := time.Now()

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}

	nonce := h.consumeNonce(c, providerName)

	params := provider.CallbackParams{
		IDToken:          formValue(c, "id_token"),
		AccessToken:      formValue(c, "access_token"),
		Code:             formValue(c, "code"),
		State:            formValue(c, "state"),
		Error:            formValue(c, "error"),
		ErrorDescription: formValue(c, "error_description"),
	}

	if params.Error != "" {
		h.log.Warnw("provider returned error",
			"provider", providerName,
			"error", params.Error,
			"desc", params.ErrorDescription,
		)
		h.redirect(c, providerName, start, outcomeIdPResponse, "/?notice=auth-error&error=idp-response")
		return
	}
	if nonce == "" {
		h.redirect(c, providerName, start, outcomeNonceError, "/?notice=auth-error&error=nonce-error")
		return
	}

	ctx := c.Request.Context()

	tokens, err := p.Exchange(ctx, params, nonce)
	if err != nil {
		h.fail(c, providerName, start, err)
		return
	}

	profile, err := p.Profile(ctx, tokens)
	if err != nil {
		h.fail(c, providerName, start, err)
		return
	}

	res, err := h.resolver.Resolve(ctx, resolver.Request{Profile: *profile, IP: c.ClientIP()})
	if err != nil {
		h.fail(c, providerName, start, err)
		return
	}

	target, err := h.signIn(c, providerName, res.Team, res.User, res.IsFirstSigninOfUser)
	if err != nil {
		h.fail(c, providerName, start, err)
		return
	}

	h.redirect(c, providerName, start, outcomeSuccess, target)
}

func (h *Handler) redirect(c *gin.Context, providerName string, start time.Time, outcome, target string) {
	h.metrics.Observe(providerName, outcome, time.Since(start))
	c.Redirect(http.StatusFound, target)
}

// fail maps a sign-in error to its notice redirect. Errors outside the
// taxonomy end the request with a 500.
func (h *Handler) fail(c *gin.Context, providerName string, start time.Time, err error) {
	var teamErr *auth.TeamError

	switch {
	case errors.Is(err, auth.ErrNonceMismatch):
		h.log.Warnw("nonce mismatch", "provider", providerName)
		h.redirect(c, providerName, start, outcomeNonceError, "/?notice=auth-error&error=nonce-error")

	case errors.Is(err, auth.ErrDomainNotAllowed):
		h.log.Infow("domain not allowed", "provider", providerName, "error", err)
		h.redirect(c, providerName, start, outcomeDomainNotAllowed, "/?notice=hd-not-allowed")

	case errors.As(err, &teamErr) && errors.Is(err, auth.ErrEmailAuthRequired):
		h.redirect(c, providerName, start, outcomeEmailAuthRequired, h.teamURL(teamErr.Team)+"?notice=email-auth-required")

	case errors.As(err, &teamErr):
		h.redirect(c, providerName, start, outcomeAuthError, h.teamURL(teamErr.Team)+"?notice=auth-error")

	case errors.Is(err, auth.ErrProviderHandshake), errors.Is(err, auth.ErrInvalidProfile):
		h.log.Warnw("provider handshake failed", "provider", providerName, "error", err)
		h.redirect(c, providerName, start, outcomeHandshakeError, "/?notice=auth-error&error=handshake-error")

	default:
		h.log.Errorw("signin failed", "provider", providerName, "error", err)
		h.metrics.Observe(providerName, outcomeError, time.Since(start))
		_ = c.AbortWithError(http.StatusInternalServerError, err)
	}
}
