package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MHafidafandi/sipeduli-console/internal/api"
	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

type bulkStatusRequest struct {
	IDs    []string          `json:"ids" binding:"required,min=1"`
	Status domain.UserStatus `json:"status" binding:"required"`
}

type roleIDsRequest struct {
	RoleIDs []string `json:"role_ids" binding:"required"`
}

type divisionRequest struct {
	DivisionID string `json:"division_id" binding:"required"`
}

func (h *ResourceHandler) registerUsers(r gin.IRouter) {
	users := h.services.Users

	r.GET("", h.gate(domain.PermViewUsers), func(c *gin.Context) {
		var filter api.UserFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid query parameters"))
			return
		}
		page, err := users.List(c.Request.Context(), filter)
		h.reply(c, http.StatusOK, page, err)
	})
	r.GET("/statistics", h.gate(domain.PermViewUsers), func(c *gin.Context) {
		stats, err := users.Statistics(c.Request.Context())
		h.reply(c, http.StatusOK, DataResponse{Data: stats}, err)
	})
	r.GET("/:id", h.gate(domain.PermViewUsers), func(c *gin.Context) {
		user, err := users.Get(c.Request.Context(), c.Param("id"))
		h.reply(c, http.StatusOK, DataResponse{Data: user}, err)
	})
	r.POST("", h.gate(domain.PermCreateUsers), func(c *gin.Context) {
		var input api.CreateUserInput
		if !bindBody(c, &input) {
			return
		}
		if input.Status == "" {
			input.Status = domain.UserStatusActive
		}
		user, err := users.Create(c.Request.Context(), input)
		h.reply(c, http.StatusCreated, DataResponse{Data: user}, err)
	})
	r.PUT("/:id", h.gate(domain.PermEditUsers), func(c *gin.Context) {
		var input api.UpdateUserInput
		if !bindBody(c, &input) {
			return
		}
		user, err := users.Update(c.Request.Context(), c.Param("id"), input)
		h.reply(c, http.StatusOK, DataResponse{Data: user}, err)
	})
	r.DELETE("/:id", h.gate(domain.PermDeleteUsers), func(c *gin.Context) {
		h.done(c, "user deleted", users.Delete(c.Request.Context(), c.Param("id")))
	})

	r.POST("/:id/activate", h.gate(domain.PermEditUsers), func(c *gin.Context) {
		h.done(c, "user activated", users.Activate(c.Request.Context(), c.Param("id")))
	})
	r.POST("/:id/deactivate", h.gate(domain.PermEditUsers), func(c *gin.Context) {
		h.done(c, "user deactivated", users.Deactivate(c.Request.Context(), c.Param("id")))
	})
	r.POST("/:id/alumni", h.gate(domain.PermEditUsers), func(c *gin.Context) {
		h.done(c, "user marked as alumni", users.MarkAlumni(c.Request.Context(), c.Param("id")))
	})
	r.POST("/bulk-status", h.gate(domain.PermEditUsers), func(c *gin.Context) {
		var req bulkStatusRequest
		if !bindBody(c, &req) {
			return
		}
		h.done(c, "status updated", users.BulkStatus(c.Request.Context(), req.IDs, req.Status))
	})

	r.GET("/:id/roles", h.gate(domain.PermViewUsers), func(c *gin.Context) {
		roles, err := users.Roles(c.Request.Context(), c.Param("id"))
		h.reply(c, http.StatusOK, DataResponse{Data: roles}, err)
	})
	r.POST("/:id/roles", h.gate(domain.PermAssignRoles), func(c *gin.Context) {
		var req roleIDsRequest
		if !bindBody(c, &req) {
			return
		}
		h.done(c, "roles assigned", users.AssignRoles(c.Request.Context(), c.Param("id"), req.RoleIDs))
	})
	r.PUT("/:id/roles", h.gate(domain.PermAssignRoles), func(c *gin.Context) {
		var req roleIDsRequest
		if !bindBody(c, &req) {
			return
		}
		h.done(c, "roles replaced", users.ReplaceRoles(c.Request.Context(), c.Param("id"), req.RoleIDs))
	})
	r.DELETE("/:id/roles", h.gate(domain.PermAssignRoles), func(c *gin.Context) {
		var req roleIDsRequest
		if !bindBody(c, &req) {
			return
		}
		h.done(c, "roles removed", users.RemoveRoles(c.Request.Context(), c.Param("id"), req.RoleIDs))
	})
	r.PUT("/:id/division", h.gate(domain.PermEditUsers), func(c *gin.Context) {
		var req divisionRequest
		if !bindBody(c, &req) {
			return
		}
		h.done(c, "division assigned", users.AssignDivision(c.Request.Context(), c.Param("id"), req.DivisionID))
	})
}
