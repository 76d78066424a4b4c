package handlers

import (
	"net/http"

	"github.com/Wikid82/warden/backend/internal/agents"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// VendorHandler serves the vendor inventory. MARS and DORA back the
// remediation-status and inventory views.
type VendorHandler struct {
	service *services.VendorService
	agents  *agents.Set
}

func NewVendorHandler(service *services.VendorService, set *agents.Set) *VendorHandler {
	return &VendorHandler{service: service, agents: set}
}

func (h *VendorHandler) List(c *gin.Context) {
	vendors, page, err := h.service.List(c.Request.Context(), services.VendorFilter{
		Status:   models.VendorStatus(c.Query("status")),
		RiskTier: models.RiskTier(c.Query("riskTier")),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		respondError(c, err, "Failed to fetch vendors")
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": vendors, "pagination": page})
}

func (h *VendorHandler) Create(c *gin.Context) {
	var in services.VendorInput
	if !bindJSON(c, &in) {
		return
	}
	if in.Name == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": []FieldError{{Field: "name", Message: "is required"}},
		})
		return
	}

	vendor, err := h.service.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err, "Failed to create vendor")
		return
	}
	c.JSON(http.StatusCreated, vendor)
}

func (h *VendorHandler) Get(c *gin.Context) {
	vendor, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch vendor")
		return
	}
	c.JSON(http.StatusOK, vendor)
}

func (h *VendorHandler) Update(c *gin.Context) {
	var in services.VendorInput
	if !bindJSON(c, &in) {
		return
	}
	vendor, err := h.service.Update(c.Request.Context(), actor(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err, "Failed to update vendor")
		return
	}
	c.JSON(http.StatusOK, vendor)
}

func (h *VendorHandler) Delete(c *gin.Context) {
	if err := h.service.Terminate(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, err, "Failed to terminate vendor")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vendor terminated successfully"})
}

func (h *VendorHandler) RemediationStatus(c *gin.Context) {
	if !h.requireVendor(c) {
		return
	}
	res := h.agents.MARS.VendorRemediationStatus(c.Request.Context(), c.Param("id"))
	if !res.Success {
		respondError(c, res.Err(), "Failed to compute remediation status")
		return
	}
	c.JSON(http.StatusOK, res.Data)
}

func (h *VendorHandler) Inventory(c *gin.Context) {
	if !h.requireVendor(c) {
		return
	}
	res := h.agents.DORA.CheckDocumentInventory(c.Request.Context(), c.Param("id"))
	if !res.Success {
		respondError(c, res.Err(), "Failed to check document inventory")
		return
	}
	c.JSON(http.StatusOK, res.Data)
}

func (h *VendorHandler) requireVendor(c *gin.Context) bool {
	ok, err := h.service.Exists(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch vendor")
		return false
	}
	if !ok {
		respondError(c, services.ErrVendorNotFound, "")
		return false
	}
	return true
}
