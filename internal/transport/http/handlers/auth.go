package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/guard"
	"github.com/MHafidafandi/sipeduli-console/internal/infra/logger"
	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

const invalidLoginMessage = "Email dan password wajib diisi dengan benar"

// SessionService is the session lifecycle the HTTP layer drives. *session.Manager satisfies it.
type SessionService interface {
	guard.StateSource
	Login(ctx context.Context, scope, email, password string) (*domain.Session, error)
	Logout(ctx context.Context, scope string) error
	Resolve(ctx context.Context, scope string) (session.State, error)
	UpdateProfile(ctx context.Context, scope string, update session.ProfileUpdate) (*domain.Profile, error)
	ChangePassword(ctx context.Context, scope string, change session.PasswordChange) error
}

// AuthHandler serves login, logout and the signed-in user's own account.
type AuthHandler struct {
	sessions SessionService
	guard    *guard.Guard
	pages    *Pages
	logger   *zap.Logger
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(sessions SessionService, g *guard.Guard, pages *Pages, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if pages == nil {
		pages = NewPages()
	}
	return &AuthHandler{sessions: sessions, guard: g, pages: pages, logger: log}
}

// RegisterRoutes binds the authentication routes. loginMiddlewares run ahead of POST /login.
func (h *AuthHandler) RegisterRoutes(r gin.IRouter, loginMiddlewares ...gin.HandlerFunc) {
	r.GET("/login", h.loginPage)
	r.POST("/login", append(append([]gin.HandlerFunc{}, loginMiddlewares...), h.login)...)
	r.POST("/logout", h.logout)

	signedIn := h.guard.RouteGate(h.sessions, guard.Requirement{}, h.logger)
	r.GET("/profile", signedIn, h.profilePage)
	r.GET("/auth/me", signedIn, h.me)
	r.PUT("/auth/me", signedIn, h.updateProfile)
	r.PUT("/auth/me/password", signedIn, h.changePassword)
}

type loginView struct {
	Title string
	Email string
	Next  string
	Error string
}

func (h *AuthHandler) loginPage(c *gin.Context) {
	scope := session.ScopeFrom(c.Request.Context())
	state, err := h.sessions.Resolve(c.Request.Context(), scope)
	if err != nil {
		h.logger.Warn("Session restore on login page failed", zap.String("scope", logger.MaskSecret(scope)), zap.Error(err))
	}
	if state.Session != nil {
		c.Redirect(http.StatusFound, h.redirectTarget(state.Session, c.Query("next")))
		return
	}

	h.pages.Render(c, http.StatusOK, "login", guard.Elements(nil), loginView{Title: "Masuk", Next: safeNext(c.Query("next"))})
}

func (h *AuthHandler) login(c *gin.Context) {
	html := wantsHTML(c)

	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		if html {
			h.pages.Render(c, http.StatusBadRequest, "login", guard.Elements(nil), loginView{Title: "Masuk", Email: req.Email, Next: safeNext(req.Next), Error: invalidLoginMessage})
			return
		}
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, invalidLoginMessage))
		return
	}

	scope := session.ScopeFrom(c.Request.Context())
	sess, err := h.sessions.Login(c.Request.Context(), scope, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		h.logger.Info("Login rejected",
			zap.String("email", logger.MaskEmail(req.Email)),
			zap.Int("upstream_status", session.StatusOf(err)),
		)
		if html {
			h.pages.Render(c, loginFailureStatus(err), "login", guard.Elements(nil), loginView{Title: "Masuk", Email: req.Email, Next: safeNext(req.Next), Error: session.MessageOf(err)})
			return
		}
		c.JSON(loginFailureStatus(err), NewErrorResponse(c, session.MessageOf(err)))
		return
	}

	target := h.redirectTarget(sess, req.Next)
	if html {
		c.Redirect(http.StatusSeeOther, target)
		return
	}
	resp := h.sessionResponse(sess)
	resp.Redirect = target
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) logout(c *gin.Context) {
	scope := session.ScopeFrom(c.Request.Context())
	if err := h.sessions.Logout(c.Request.Context(), scope); err != nil {
		h.logger.Warn("Clearing session storage failed", zap.String("scope", logger.MaskSecret(scope)), zap.Error(err))
	}

	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, h.guard.LoginPath())
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out", Redirect: h.guard.LoginPath()})
}

// redirectTarget honours a same-origin next path, otherwise picks the landing page the
// user's permissions allow.
func (h *AuthHandler) redirectTarget(sess *domain.Session, next string) string {
	if next = safeNext(next); next != "" {
		return next
	}
	return guard.LandingPath(h.guard.Resolver(sess))
}

func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	if next == "/login" || strings.HasPrefix(next, "/login?") {
		return ""
	}
	return next
}

func loginFailureStatus(err error) int {
	var apiErr *session.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

func wantsHTML(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML
}
