package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MHafidafandi/sipeduli-console/internal/api"
	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/guard"
)

type registrantStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *ResourceHandler) registerRecruitments(r gin.IRouter) {
	recruitments := h.services.Recruitments

	r.GET("", h.gate(domain.PermViewRecruitments), func(c *gin.Context) {
		params, ok := bindList(c)
		if !ok {
			return
		}
		page, err := recruitments.List(c.Request.Context(), params)
		h.reply(c, http.StatusOK, page, err)
	})
	r.GET("/:id", h.gate(domain.PermViewRecruitments), func(c *gin.Context) {
		recruitment, err := recruitments.Get(c.Request.Context(), c.Param("id"))
		h.reply(c, http.StatusOK, DataResponse{Data: recruitment}, err)
	})
	r.POST("", h.gate(domain.PermCreateRecruitments), func(c *gin.Context) {
		var input api.RecruitmentInput
		if !bindBody(c, &input) {
			return
		}
		recruitment, err := recruitments.Create(c.Request.Context(), input)
		h.reply(c, http.StatusCreated, DataResponse{Data: recruitment}, err)
	})
	r.PUT("/:id", h.gate(domain.PermEditRecruitments), func(c *gin.Context) {
		var input api.RecruitmentInput
		if !bindBody(c, &input) {
			return
		}
		recruitment, err := recruitments.Update(c.Request.Context(), c.Param("id"), input)
		h.reply(c, http.StatusOK, DataResponse{Data: recruitment}, err)
	})
	r.DELETE("/:id", h.gate(domain.PermDeleteRecruitments), func(c *gin.Context) {
		h.done(c, "recruitment deleted", recruitments.Delete(c.Request.Context(), c.Param("id")))
	})

	// Any signed-in member may apply.
	r.POST("/:id/register", h.guard.RouteGate(h.sessions, guard.Requirement{}, h.logger), func(c *gin.Context) {
		h.done(c, "registered", recruitments.Register(c.Request.Context(), c.Param("id")))
	})

	r.GET("/:id/registrants", h.gate(domain.PermManageRegistrants), func(c *gin.Context) {
		params, ok := bindList(c)
		if !ok {
			return
		}
		page, err := recruitments.Registrants(c.Request.Context(), c.Param("id"), params)
		h.reply(c, http.StatusOK, page, err)
	})
	r.PATCH("/:id/registrants/:registrant/status", h.gate(domain.PermManageRegistrants), func(c *gin.Context) {
		var req registrantStatusRequest
		if !bindBody(c, &req) {
			return
		}
		err := recruitments.UpdateRegistrantStatus(c.Request.Context(), c.Param("id"), c.Param("registrant"), req.Status)
		h.done(c, "registrant updated", err)
	})
	r.DELETE("/:id/registrants/:registrant", h.gate(domain.PermManageRegistrants), func(c *gin.Context) {
		h.done(c, "registrant removed", recruitments.DeleteRegistrant(c.Request.Context(), c.Param("id"), c.Param("registrant")))
	})
}

func (h *ResourceHandler) registerDocuments(r gin.IRouter) {
	documents := h.services.Documents

	r.GET("", h.gate(domain.PermViewDocuments), func(c *gin.Context) {
		var filter api.DocumentFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid query parameters"))
			return
		}
		page, err := documents.List(c.Request.Context(), filter)
		h.reply(c, http.StatusOK, page, err)
	})
	r.GET("/:id", h.gate(domain.PermViewDocuments), func(c *gin.Context) {
		doc, err := documents.Get(c.Request.Context(), c.Param("id"))
		h.reply(c, http.StatusOK, DataResponse{Data: doc}, err)
	})
	r.POST("", h.gate(domain.PermCreateDocuments), func(c *gin.Context) {
		var input api.DocumentInput
		if err := c.ShouldBind(&input); err != nil || input.Judul == "" {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "judul is required"))
			return
		}
		file, ok := formFile(c, "file")
		if !ok {
			return
		}
		doc, err := documents.Create(c.Request.Context(), input, file)
		h.reply(c, http.StatusCreated, DataResponse{Data: doc}, err)
	})
	r.PUT("/:id", h.gate(domain.PermEditDocuments), func(c *gin.Context) {
		var input api.DocumentInput
		if !bindBody(c, &input) {
			return
		}
		doc, err := documents.Update(c.Request.Context(), c.Param("id"), input)
		h.reply(c, http.StatusOK, DataResponse{Data: doc}, err)
	})
	r.DELETE("/:id", h.gate(domain.PermDeleteDocuments), func(c *gin.Context) {
		h.done(c, "document deleted", documents.Delete(c.Request.Context(), c.Param("id")))
	})
}
