package handler

import (
	"errors"
	"net/http"

	"team-sso/internal/middleware"
	"team-sso/internal/presenter"
	"team-sso/internal/store"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes mounts the session-scoped read routes. The group must
// already require authentication.
func (h *Handler) RegisterAPIRoutes(api gin.IRouter) {
	api.GET("/me", h.me)
	api.GET("/team", h.team)
}

func (h *Handler) me(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.store.GetUser(c.Request.Context(), sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": presenter.PresentUser(*user)})
}

func (h *Handler) team(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	team, err := h.store.GetTeam(c.Request.Context(), sess.TeamID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "team not found"})
		return
	}
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": presenter.PresentTeam(*team, h.opts.BaseURL, h.opts.SubdomainsEnabled)})
}
