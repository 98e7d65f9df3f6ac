package handler

import (
	"errors"
	"net/http"

	"team-sso/internal/auth"
	"team-sso/internal/domain"
	"team-sso/internal/store"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Subdomain string `form:"subdomain" json:"subdomain" binding:"required"`
	Email     string `form:"email" json:"email" binding:"required"`
	Password  string `form:"password" json:"password" binding:"required"`
}

func (h *Handler) emailLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	team, err := h.store.GetTeamBySubdomain(c.Request.Context(), req.Subdomain)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	user, err := h.credentials.Authenticate(c.Request.Context(), team.ID, req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.log.Infow("email login rejected", "team_id", team.ID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	target, err := h.signIn(c, domain.ServiceEmail, *team, *user, false)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged_in", "redirect": target})
}
