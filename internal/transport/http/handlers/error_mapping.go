package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

// RespondUpstreamError surfaces a failed API call. An expired session sends the user back to
// login; any other upstream status and message are relayed as a toast.
func RespondUpstreamError(c *gin.Context, err error, loginPath string) {
	_ = c.Error(err)

	if errors.Is(err, session.ErrSessionExpired) || errors.Is(err, session.ErrNotAuthenticated) {
		if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		resp := NewErrorResponse(c, session.MessageOf(err))
		resp.Redirect = loginPath
		c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
		return
	}

	status := session.StatusOf(err)
	switch {
	case status == 0:
		var apiErr *session.APIError
		if errors.As(err, &apiErr) {
			status = http.StatusBadGateway
		} else {
			status = http.StatusInternalServerError
		}
	case status < 400:
		status = http.StatusBadGateway
	}

	message := session.MessageOf(err)
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, NewErrorResponse(c, message))
}
