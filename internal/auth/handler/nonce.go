package handler

import (
	"net/http"
	"time"

	"team-sso/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	nonceBytes = 24
	nonceTTL   = 10 * time.Minute
)

func nonceCookieName(providerName string) string {
	return providerName + "Nonce"
}

// nonceCookie builds the cookie that carries the nonce across the provider
// round trip. form_post callbacks are cross-site, so SameSite=None is
// needed whenever the cookie can be Secure.
func (h *Handler) nonceCookie(c *gin.Context, providerName, value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteNoneMode
	if !h.secure {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     nonceCookieName(providerName),
		Value:    value,
		Path:     "/",
		Domain:   h.cookieDomain(c),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: sameSite,
	}
}

func (h *Handler) issueNonce(c *gin.Context, providerName string) (string, error) {
	nonce, err := utils.RandomString(nonceBytes)
	if err != nil {
		return "", err
	}
	http.SetCookie(c.Writer, h.nonceCookie(c, providerName, nonce, int(nonceTTL.Seconds())))
	return nonce, nil
}

// consumeNonce returns the stored nonce and clears it, so each nonce is
// usable for exactly one callback.
func (h *Handler) consumeNonce(c *gin.Context, providerName string) string {
	cookie, err := c.Request.Cookie(nonceCookieName(providerName))
	http.SetCookie(c.Writer, h.nonceCookie(c, providerName, "", -1))
	if err != nil {
		return ""
	}
	return cookie.Value
}
