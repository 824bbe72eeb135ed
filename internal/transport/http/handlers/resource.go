package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MHafidafandi/sipeduli-console/internal/api"
	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/guard"
	"github.com/MHafidafandi/sipeduli-console/internal/session"
)

// maxUploadSize bounds files relayed to the API.
const maxUploadSize = 10 << 20

// ResourceHandler proxies the dashboard's data calls to the API. Every route is gated by
// the permission its action needs.
type ResourceHandler struct {
	services *api.Services
	guard    *guard.Guard
	sessions guard.StateSource
	logger   *zap.Logger
}

// NewResourceHandler constructs ResourceHandler.
func NewResourceHandler(services *api.Services, g *guard.Guard, sessions guard.StateSource, log *zap.Logger) *ResourceHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResourceHandler{services: services, guard: g, sessions: sessions, logger: log}
}

// RegisterRoutes binds every resource group below r.
func (h *ResourceHandler) RegisterRoutes(r gin.IRouter) {
	h.registerUsers(r.Group("/users"))
	h.registerRoles(r.Group("/roles"))
	h.registerDivisions(r.Group("/divisions"))
	h.registerActivities(r)
	h.registerDonations(r.Group("/donations"))
	h.registerInventory(r.Group("/inventory"))
	h.registerRecruitments(r.Group("/recruitment"))
	h.registerDocuments(r.Group("/documents"))
}

func (h *ResourceHandler) gate(key domain.PermissionKey) gin.HandlerFunc {
	return h.guard.RouteGate(h.sessions, guard.Require(key), h.logger)
}

func (h *ResourceHandler) gateAny(keys ...domain.PermissionKey) gin.HandlerFunc {
	return h.guard.RouteGate(h.sessions, guard.Requirement{Permissions: keys, AnyPermission: true}, h.logger)
}

// reply writes data, or the upstream failure when err is set.
func (h *ResourceHandler) reply(c *gin.Context, status int, data any, err error) {
	if err != nil {
		RespondUpstreamError(c, err, h.guard.LoginPath())
		return
	}
	c.JSON(status, data)
}

func (h *ResourceHandler) done(c *gin.Context, message string, err error) {
	h.reply(c, http.StatusOK, MessageResponse{Message: message}, err)
}

func bindList(c *gin.Context) (api.ListParams, bool) {
	var params api.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid query parameters"))
		return params, false
	}
	return params, true
}

func bindBody(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return false
	}
	return true
}

// formFile reads the multipart part named field into memory.
func formFile(c *gin.Context, field string) (session.FormFile, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, fmt.Sprintf("%s is required", field)))
		return session.FormFile{}, false
	}
	if header.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse(c, "file too large"))
		return session.FormFile{}, false
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unreadable upload"))
		return session.FormFile{}, false
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil || len(content) > maxUploadSize {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unreadable upload"))
		return session.FormFile{}, false
	}
	return session.FormFile{
		Field:       field,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, true
}
