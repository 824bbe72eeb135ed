package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/guard"
	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

// MenuResponse is the navigation visible to the current user.
type MenuResponse struct {
	Items   []guard.MenuItem `json:"items"`
	Landing string           `json:"landing"`
}

// RegisterDashboard binds the dashboard page and the menu endpoint.
func (h *AuthHandler) RegisterDashboard(r gin.IRouter) {
	r.GET("/dashboard", h.guard.RouteGate(h.sessions, guard.Require(domain.PermViewDashboard), h.logger), h.dashboardPage)
	r.GET("/api/menu", h.guard.RouteGate(h.sessions, guard.Requirement{}, h.logger), h.menu)
	r.GET("/", h.home)
}

// home sends signed-in users to their landing page and everyone else to login.
func (h *AuthHandler) home(c *gin.Context) {
	state, _ := h.sessions.Resolve(c.Request.Context(), session.ScopeFrom(c.Request.Context()))
	if state.Session == nil {
		c.Redirect(http.StatusFound, h.guard.LoginPath())
		return
	}
	c.Redirect(http.StatusFound, guard.LandingPath(h.guard.Resolver(state.Session)))
}

func (h *AuthHandler) dashboardPage(c *gin.Context) {
	gate := guard.Elements(guard.ResolverFrom(c))
	h.pages.Render(c, http.StatusOK, "dashboard", gate, pageView{
		Title:   "Dashboard",
		Menu:    gate.FilterMenu(guard.DefaultMenu()),
		Session: guard.SessionFrom(c),
	})
}

func (h *AuthHandler) menu(c *gin.Context) {
	resolver := guard.ResolverFrom(c)
	c.JSON(http.StatusOK, MenuResponse{
		Items:   guard.Elements(resolver).FilterMenu(guard.DefaultMenu()),
		Landing: guard.LandingPath(resolver),
	})
}
