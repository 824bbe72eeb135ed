package guard

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	applog "github.com/MHafidafandi/sipeduli-console/internal/infra/logger"
	"github.com/MHafidafandi/sipeduli-console/internal/permission"
	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

const (
	contextSessionKey  = "console.session"
	contextResolverKey = "console.resolver"

	restoreTimeout = 30 * time.Second
	loadingRetry   = 1
)

const loadingPage = `<!doctype html>
<html lang="id"><head><meta charset="utf-8"><title>Memuat...</title></head>
<body><div class="loading" role="status">Memuat sesi...</div></body></html>`

// StateSource exposes the session state of a scope. *session.Manager satisfies it.
type StateSource interface {
	State(scope string) session.State
	Restore(ctx context.Context, scope string) (*domain.Session, error)
}

// RouteGate renders the loading state, redirects to login, redirects to the fallback, or
// lets the request through, depending on Evaluate.
func (g *Guard) RouteGate(source StateSource, req Requirement, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		scope := session.ScopeFrom(c.Request.Context())
		state := g.awaitState(c.Request.Context(), source, scope, logger)
		decision := g.Evaluate(state, req)
		g.observe(decision.Outcome)

		switch decision.Outcome {
		case Loading:
			respondLoading(c)
		case Unauthenticated:
			target := decision.RedirectTo
			if c.Request.Method == http.MethodGet {
				target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
			}
			respondRedirect(c, http.StatusUnauthorized, "unauthenticated", target)
		case AuthenticatedDenied:
			logger.Info("Route access denied",
				zap.String("path", c.FullPath()),
				zap.String("user_id", decision.Session.UserID),
			)
			respondRedirect(c, http.StatusForbidden, "forbidden", decision.RedirectTo)
		default:
			c.Set(contextSessionKey, decision.Session)
			c.Set(contextResolverKey, decision.Resolver)
			c.Next()
		}
	}
}

// awaitState returns the cached state of scope or waits up to restoreWait for a restore.
// A restore that outlives the wait keeps running and the request sees the loading state.
func (g *Guard) awaitState(ctx context.Context, source StateSource, scope string, logger *zap.Logger) session.State {
	state := source.State(scope)
	if state.Session != nil {
		return state
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		restoreCtx, cancel := context.WithTimeout(session.WithScope(context.WithoutCancel(ctx), scope), restoreTimeout)
		defer cancel()
		if _, err := source.Restore(restoreCtx, scope); err != nil {
			logger.Warn("Session restore failed", zap.String("scope", applog.MaskSecret(scope)), zap.Error(err))
		}
	}()

	timer := time.NewTimer(g.restoreWait)
	defer timer.Stop()

	select {
	case <-done:
		return source.State(scope)
	case <-timer.C:
		return session.State{Loading: true}
	case <-ctx.Done():
		return session.State{Loading: true}
	}
}

// SessionFrom returns the session stored by RouteGate.
func SessionFrom(c *gin.Context) *domain.Session {
	if value, ok := c.Get(contextSessionKey); ok {
		if sess, ok := value.(*domain.Session); ok {
			return sess
		}
	}
	return nil
}

// ResolverFrom returns the resolver stored by RouteGate, or one that denies everything.
func ResolverFrom(c *gin.Context) permission.Resolver {
	if value, ok := c.Get(contextResolverKey); ok {
		if resolver, ok := value.(permission.Resolver); ok {
			return resolver
		}
	}
	return permission.NewServerDelivered(nil)
}

func wantsHTML(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML
}

func respondLoading(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	if wantsHTML(c) {
		c.Header("Refresh", strconv.Itoa(loadingRetry))
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loadingPage))
		c.Abort()
		return
	}
	c.Header("Retry-After", strconv.Itoa(loadingRetry))
	c.AbortWithStatusJSON(http.StatusAccepted, gin.H{"status": Loading.String()})
}

func respondRedirect(c *gin.Context, status int, code, target string) {
	if wantsHTML(c) {
		c.Redirect(http.StatusFound, target)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":    code,
		"redirect": target,
	})
}
