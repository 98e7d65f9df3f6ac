package handler

import (
	"errors"
	"net/http"

	"team-sso/internal/auth/credentials"
	"team-sso/internal/domain"
	"team-sso/internal/store"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Subdomain string `form:"subdomain" json:"subdomain" binding:"required"`
	Name      string `form:"name" json:"name"`
	Email     string `form:"email" json:"email" binding:"required"`
	Password  string `form:"password" json:"password" binding:"required"`
}

func (h *Handler) emailRegister(c *gin.Context) {
	if !h.opts.SignupEnabled {
		c.JSON(http.StatusForbidden, gin.H{"error": "signup disabled"})
		return
	}

	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	team, err := h.store.GetTeamBySubdomain(c.Request.Context(), req.Subdomain)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown team"})
		return
	}
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	user, err := h.credentials.Register(c.Request.Context(), *team, req.Name, req.Email, req.Password, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, credentials.ErrAlreadyRegistered):
			c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
		case errors.Is(err, credentials.ErrPasswordTooShort), errors.Is(err, credentials.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			_ = c.AbortWithError(http.StatusInternalServerError, err)
		}
		return
	}

	target, err := h.signIn(c, domain.ServiceEmail, *team, *user, true)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "registered", "redirect": target})
}
