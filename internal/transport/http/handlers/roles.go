package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MHafidafandi/sipeduli-console/internal/api"
	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

func (h *ResourceHandler) registerRoles(r gin.IRouter) {
	roles := h.services.Roles

	r.GET("", h.gate(domain.PermViewRoles), func(c *gin.Context) {
		params, ok := bindList(c)
		if !ok {
			return
		}
		page, err := roles.List(c.Request.Context(), params)
		h.reply(c, http.StatusOK, page, err)
	})
	r.GET("/statistics", h.gate(domain.PermViewRoles), func(c *gin.Context) {
		stats, err := roles.Statistics(c.Request.Context())
		h.reply(c, http.StatusOK, DataResponse{Data: stats}, err)
	})
	r.GET("/:id", h.gate(domain.PermViewRoles), func(c *gin.Context) {
		role, err := roles.Get(c.Request.Context(), c.Param("id"))
		h.reply(c, http.StatusOK, DataResponse{Data: role}, err)
	})
	r.POST("", h.gate(domain.PermCreateRoles), func(c *gin.Context) {
		input, ok := bindRole(c)
		if !ok {
			return
		}
		role, err := roles.Create(c.Request.Context(), input)
		h.reply(c, http.StatusCreated, DataResponse{Data: role}, err)
	})
	r.PUT("/:id", h.gate(domain.PermEditRoles), func(c *gin.Context) {
		input, ok := bindRole(c)
		if !ok {
			return
		}
		role, err := roles.Update(c.Request.Context(), c.Param("id"), input)
		h.reply(c, http.StatusOK, DataResponse{Data: role}, err)
	})
	r.DELETE("/:id", h.gate(domain.PermDeleteRoles), func(c *gin.Context) {
		h.done(c, "role deleted", roles.Delete(c.Request.Context(), c.Param("id")))
	})
}

// bindRole trims the payload and rejects permissions outside the known taxonomy.
func bindRole(c *gin.Context) (api.RoleInput, bool) {
	var input api.RoleInput
	if !bindBody(c, &input) {
		return input, false
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "role name cannot be empty"))
		return input, false
	}

	for i, perm := range input.Permissions {
		perm = strings.TrimSpace(perm)
		if !domain.IsKnownPermission(domain.PermissionKey(perm)) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown permission: "+perm))
			return input, false
		}
		input.Permissions[i] = perm
	}
	return input, true
}

func (h *ResourceHandler) registerDivisions(r gin.IRouter) {
	divisions := h.services.Divisions

	r.GET("", h.gate(domain.PermViewDivisions), func(c *gin.Context) {
		params, ok := bindList(c)
		if !ok {
			return
		}
		page, err := divisions.List(c.Request.Context(), params)
		h.reply(c, http.StatusOK, page, err)
	})
	r.GET("/statistics", h.gate(domain.PermViewDivisions), func(c *gin.Context) {
		stats, err := divisions.Statistics(c.Request.Context())
		h.reply(c, http.StatusOK, DataResponse{Data: stats}, err)
	})
	r.GET("/:id", h.gate(domain.PermViewDivisions), func(c *gin.Context) {
		division, err := divisions.Get(c.Request.Context(), c.Param("id"))
		h.reply(c, http.StatusOK, DataResponse{Data: division}, err)
	})
	r.GET("/:id/stats", h.gate(domain.PermViewDivisions), func(c *gin.Context) {
		stats, err := divisions.MemberStats(c.Request.Context(), c.Param("id"))
		h.reply(c, http.StatusOK, DataResponse{Data: stats}, err)
	})
	r.POST("", h.gate(domain.PermCreateDivisions), func(c *gin.Context) {
		var input api.DivisionInput
		if !bindBody(c, &input) {
			return
		}
		division, err := divisions.Create(c.Request.Context(), input)
		h.reply(c, http.StatusCreated, DataResponse{Data: division}, err)
	})
	r.PUT("/:id", h.gate(domain.PermEditDivisions), func(c *gin.Context) {
		var input api.DivisionInput
		if !bindBody(c, &input) {
			return
		}
		division, err := divisions.Update(c.Request.Context(), c.Param("id"), input)
		h.reply(c, http.StatusOK, DataResponse{Data: division}, err)
	})
	r.DELETE("/:id", h.gate(domain.PermDeleteDivisions), func(c *gin.Context) {
		h.done(c, "division deleted", divisions.Delete(c.Request.Context(), c.Param("id")))
	})
}
