package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

// changePassword forwards the change to the API after the local strength check. The
// session stays valid; the API does not revoke the current token.
func (h *AuthHandler) changePassword(c *gin.Context) {
	var change session.PasswordChange
	if err := c.ShouldBindJSON(&change); err != nil || change.OldPassword == "" || change.NewPassword == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "old_password and new_password are required"))
		return
	}

	if err := h.sessions.ChangePassword(c.Request.Context(), session.ScopeFrom(c.Request.Context()), change); err != nil {
		RespondUpstreamError(c, err, h.guard.LoginPath())
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}
