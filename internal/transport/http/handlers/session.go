package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/guard"
	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

type pageView struct {
	Title   string
	Menu    []guard.MenuItem
	Session *domain.Session
}

func (h *AuthHandler) profilePage(c *gin.Context) {
	gate := guard.Elements(guard.ResolverFrom(c))
	h.pages.Render(c, http.StatusOK, "profile", gate, pageView{
		Title:   "Profil",
		Menu:    gate.FilterMenu(guard.DefaultMenu()),
		Session: guard.SessionFrom(c),
	})
}

// me returns the cached profile together with the resolved roles and permissions.
func (h *AuthHandler) me(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessionResponse(guard.SessionFrom(c)))
}

func (h *AuthHandler) updateProfile(c *gin.Context) {
	var update session.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid profile payload"))
		return
	}
	if update.Email != nil {
		trimmed := strings.TrimSpace(*update.Email)
		update.Email = &trimmed
	}

	profile, err := h.sessions.UpdateProfile(c.Request.Context(), session.ScopeFrom(c.Request.Context()), update)
	if err != nil {
		RespondUpstreamError(c, err, h.guard.LoginPath())
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: profile})
}

func (h *AuthHandler) sessionResponse(sess *domain.Session) SessionResponse {
	resp := SessionResponse{Roles: []domain.Role{}, Permissions: []string{}}
	if sess == nil {
		return resp
	}
	resp.User = sess.Profile
	resp.Roles = append(resp.Roles, sess.Roles...)
	for _, key := range sess.Permissions {
		resp.Permissions = append(resp.Permissions, string(key))
	}
	if !sess.ExpiresAt.IsZero() {
		at := sess.ExpiresAt.UTC()
		resp.ExpiresAt = &at
	}
	return resp
}
