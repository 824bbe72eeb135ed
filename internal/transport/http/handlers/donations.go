package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MHafidafandi/sipeduli-console/internal/api"
	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
)

type verifyDonationRequest struct {
	Status domain.DonationStatus `json:"status" binding:"required,oneof=verified rejected"`
}

func (h *ResourceHandler) registerDonations(r gin.IRouter) {
	donations := h.services.Donations

	r.GET("", h.gate(domain.PermViewDonations), func(c *gin.Context) {
		params, ok := bindList(c)
		if !ok {
			return
		}
		page, err := donations.List(c.Request.Context(), params)
		h.reply(c, http.StatusOK, page, err)
	})
	r.GET("/stats", h.gate(domain.PermViewDonations), func(c *gin.Context) {
		stats, err := donations.Stats(c.Request.Context())
		h.reply(c, http.StatusOK, DataResponse{Data: stats}, err)
	})
	r.GET("/:id", h.gate(domain.PermViewDonations), func(c *gin.Context) {
		donation, err := donations.Get(c.Request.Context(), c.Param("id"))
		h.reply(c, http.StatusOK, DataResponse{Data: donation}, err)
	})
	r.POST("", h.gate(domain.PermCreateDonations), func(c *gin.Context) {
		var input api.DonationInput
		if !bindBody(c, &input) {
			return
		}
		donation, err := donations.Create(c.Request.Context(), input)
		h.reply(c, http.StatusCreated, DataResponse{Data: donation}, err)
	})
	r.PUT("/:id", h.gate(domain.PermEditDonations), func(c *gin.Context) {
		var input api.DonationInput
		if !bindBody(c, &input) {
			return
		}
		// Status changes go through the verify route.
		input.Status = ""
		donation, err := donations.Update(c.Request.Context(), c.Param("id"), input)
		h.reply(c, http.StatusOK, DataResponse{Data: donation}, err)
	})
	r.POST("/:id/verify", h.gate(domain.PermVerifyDonations), func(c *gin.Context) {
		var req verifyDonationRequest
		if !bindBody(c, &req) {
			return
		}
		donation, err := donations.Verify(c.Request.Context(), c.Param("id"), req.Status)
		h.reply(c, http.StatusOK, DataResponse{Data: donation}, err)
	})
	r.POST("/:id/proof", h.gateAny(domain.PermCreateDonations, domain.PermEditDonations), func(c *gin.Context) {
		file, ok := formFile(c, "file")
		if !ok {
			return
		}
		result, err := donations.UploadProof(c.Request.Context(), c.Param("id"), file)
		h.reply(c, http.StatusOK, DataResponse{Data: result}, err)
	})
	r.DELETE("/:id", h.gate(domain.PermDeleteDonations), func(c *gin.Context) {
		h.done(c, "donation deleted", donations.Delete(c.Request.Context(), c.Param("id")))
	})
}

func (h *ResourceHandler) registerInventory(r gin.IRouter) {
	inventory := h.services.Inventory

	assets := r.Group("/assets")
	assets.GET("", h.gate(domain.PermViewAssets), func(c *gin.Context) {
		params, ok := bindList(c)
		if !ok {
			return
		}
		page, err := inventory.Assets(c.Request.Context(), params)
		h.reply(c, http.StatusOK, page, err)
	})
	assets.GET("/:id", h.gate(domain.PermViewAssets), func(c *gin.Context) {
		asset, err := inventory.Asset(c.Request.Context(), c.Param("id"))
		h.reply(c, http.StatusOK, DataResponse{Data: asset}, err)
	})
	assets.POST("", h.gate(domain.PermCreateAssets), func(c *gin.Context) {
		var input api.AssetInput
		if !bindBody(c, &input) {
			return
		}
		asset, err := inventory.CreateAsset(c.Request.Context(), input)
		h.reply(c, http.StatusCreated, DataResponse{Data: asset}, err)
	})
	assets.PUT("/:id", h.gate(domain.PermEditAssets), func(c *gin.Context) {
		var input api.AssetInput
		if !bindBody(c, &input) {
			return
		}
		asset, err := inventory.UpdateAsset(c.Request.Context(), c.Param("id"), input)
		h.reply(c, http.StatusOK, DataResponse{Data: asset}, err)
	})
	assets.POST("/:id/image", h.gate(domain.PermEditAssets), func(c *gin.Context) {
		file, ok := formFile(c, "file")
		if !ok {
			return
		}
		result, err := inventory.UploadAssetImage(c.Request.Context(), c.Param("id"), file)
		h.reply(c, http.StatusOK, DataResponse{Data: result}, err)
	})
	assets.DELETE("/:id", h.gate(domain.PermDeleteAssets), func(c *gin.Context) {
		h.done(c, "asset deleted", inventory.DeleteAsset(c.Request.Context(), c.Param("id")))
	})

	loans := r.Group("/loans")
	loans.GET("", h.gate(domain.PermViewLoans), func(c *gin.Context) {
		params, ok := bindList(c)
		if !ok {
			return
		}
		page, err := inventory.Loans(c.Request.Context(), params)
		h.reply(c, http.StatusOK, page, err)
	})
	loans.POST("", h.gateAny(domain.PermCreateLoans, domain.PermManageLoans), func(c *gin.Context) {
		var input api.LoanInput
		if !bindBody(c, &input) {
			return
		}
		loan, err := inventory.CreateLoan(c.Request.Context(), input)
		h.reply(c, http.StatusCreated, DataResponse{Data: loan}, err)
	})
	loans.POST("/:id/return", h.gateAny(domain.PermEditLoans, domain.PermManageLoans), func(c *gin.Context) {
		var input api.ReturnInput
		if !bindBody(c, &input) {
			return
		}
		loan, err := inventory.ReturnLoan(c.Request.Context(), c.Param("id"), input)
		h.reply(c, http.StatusOK, DataResponse{Data: loan}, err)
	})
}
