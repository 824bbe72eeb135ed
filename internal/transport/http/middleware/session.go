package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

// ScopeOptions configures the browser cookie that names a storage scope. An empty Domain
// yields a host-only cookie.
type ScopeOptions struct {
	CookieName string
	Secure     bool
	Domain     string
	MaxAge     time.Duration
}

// Scope binds every request to a storage scope taken from the session cookie, issuing a
// fresh identifier when the cookie is missing or malformed.
func Scope(opts ScopeOptions) gin.HandlerFunc {
	name := opts.CookieName
	if name == "" {
		name = "sid"
	}
	maxAge := int(opts.MaxAge.Seconds())

	return func(c *gin.Context) {
		scope, err := c.Cookie(name)
		if err != nil || uuid.Validate(scope) != nil {
			scope = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(name, scope, maxAge, "/", opts.Domain, opts.Secure, true)
		}

		c.Request = c.Request.WithContext(session.WithScope(c.Request.Context(), scope))
		c.Next()
	}
}
