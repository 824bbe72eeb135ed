package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MHafidafandi/sipeduli-console/internal/api"
	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

func (h *ResourceHandler) registerActivities(r gin.IRouter) {
	activities := h.services.Activities

	group := r.Group("/activities")
	group.GET("", h.gate(domain.PermViewActivities), func(c *gin.Context) {
		params, ok := bindList(c)
		if !ok {
			return
		}
		page, err := activities.List(c.Request.Context(), params)
		h.reply(c, http.StatusOK, page, err)
	})
	group.GET("/:id", h.gate(domain.PermViewActivities), func(c *gin.Context) {
		activity, err := activities.Get(c.Request.Context(), c.Param("id"))
		h.reply(c, http.StatusOK, DataResponse{Data: activity}, err)
	})
	group.POST("", h.gate(domain.PermCreateActivities), func(c *gin.Context) {
		var input api.ActivityInput
		if !bindBody(c, &input) {
			return
		}
		activity, err := activities.Create(c.Request.Context(), input)
		h.reply(c, http.StatusCreated, DataResponse{Data: activity}, err)
	})
	group.PUT("/:id", h.gate(domain.PermEditActivities), func(c *gin.Context) {
		var input api.ActivityInput
		if !bindBody(c, &input) {
			return
		}
		activity, err := activities.Update(c.Request.Context(), c.Param("id"), input)
		h.reply(c, http.StatusOK, DataResponse{Data: activity}, err)
	})
	group.DELETE("/:id", h.gate(domain.PermDeleteActivities), func(c *gin.Context) {
		h.done(c, "activity deleted", activities.Delete(c.Request.Context(), c.Param("id")))
	})

	group.GET("/:id/progress-reports", h.gate(domain.PermViewProgressReports), func(c *gin.Context) {
		params, ok := bindList(c)
		if !ok {
			return
		}
		page, err := activities.ProgressReports(c.Request.Context(), c.Param("id"), params)
		h.reply(c, http.StatusOK, page, err)
	})
	group.GET("/:id/documentations", h.gate(domain.PermViewDocumentations), func(c *gin.Context) {
		page, err := activities.Documentations(c.Request.Context(), c.Param("id"))
		h.reply(c, http.StatusOK, page, err)
	})
	group.GET("/:id/lpj", h.gate(domain.PermViewLPJ), func(c *gin.Context) {
		page, err := activities.LPJ(c.Request.Context(), c.Param("id"))
		h.reply(c, http.StatusOK, page, err)
	})

	reports := r.Group("/progress-reports")
	reports.POST("", h.gate(domain.PermCreateProgressReports), func(c *gin.Context) {
		var input api.ProgressReportInput
		if !bindBody(c, &input) {
			return
		}
		report, err := activities.CreateProgressReport(c.Request.Context(), input)
		h.reply(c, http.StatusCreated, DataResponse{Data: report}, err)
	})
	reports.PUT("/:id", h.gate(domain.PermEditProgressReports), func(c *gin.Context) {
		var input api.ProgressReportInput
		if !bindBody(c, &input) {
			return
		}
		report, err := activities.UpdateProgressReport(c.Request.Context(), c.Param("id"), input)
		h.reply(c, http.StatusOK, DataResponse{Data: report}, err)
	})
	reports.DELETE("/:id", h.gate(domain.PermDeleteProgressReports), func(c *gin.Context) {
		h.done(c, "progress report deleted", activities.DeleteProgressReport(c.Request.Context(), c.Param("id")))
	})

	docs := r.Group("/documentations")
	docs.POST("", h.gate(domain.PermCreateDocumentations), func(c *gin.Context) {
		var input api.DocumentationInput
		if !bindBody(c, &input) {
			return
		}
		doc, err := activities.CreateDocumentation(c.Request.Context(), input)
		h.reply(c, http.StatusCreated, DataResponse{Data: doc}, err)
	})
	docs.DELETE("/:id", h.gate(domain.PermDeleteDocumentations), func(c *gin.Context) {
		h.done(c, "documentation deleted", activities.DeleteDocumentation(c.Request.Context(), c.Param("id")))
	})

	lpj := r.Group("/lpj")
	lpj.POST("", h.gate(domain.PermCreateLPJ), func(c *gin.Context) {
		var input api.LPJInput
		if !bindBody(c, &input) {
			return
		}
		report, err := activities.CreateLPJ(c.Request.Context(), input)
		h.reply(c, http.StatusCreated, DataResponse{Data: report}, err)
	})
	lpj.DELETE("/:id", h.gate(domain.PermDeleteLPJ), func(c *gin.Context) {
		h.done(c, "lpj deleted", activities.DeleteLPJ(c.Request.Context(), c.Param("id")))
	})
}
