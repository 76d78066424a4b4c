package handlers

import (
	"net/http"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type FindingHandler struct {
	service *services.FindingService
}

func NewFindingHandler(service *services.FindingService) *FindingHandler {
	return &FindingHandler{service: service}
}

func (h *FindingHandler) List(c *gin.Context) {
	findings, page, err := h.service.List(c.Request.Context(), services.FindingFilter{
		VendorID: c.Query("vendorId"),
		Severity: models.Severity(c.Query("severity")),
		Status:   models.FindingStatus(c.Query("status")),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		respondError(c, err, "Failed to fetch findings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"findings": findings, "pagination": page})
}

func (h *FindingHandler) Get(c *gin.Context) {
	finding, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch finding")
		return
	}
	c.JSON(http.StatusOK, finding)
}

func (h *FindingHandler) Update(c *gin.Context) {
	var in services.FindingUpdate
	if !bindJSON(c, &in) {
		return
	}
	finding, err := h.service.Update(c.Request.Context(), actor(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err, "Failed to update finding")
		return
	}
	c.JSON(http.StatusOK, finding)
}

func (h *FindingHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch finding statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}
