package handlers

import (
	"net/http"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	service *services.DocumentService
}

func NewDocumentHandler(service *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.service.List(c.Request.Context(), services.DocumentFilter{
		VendorID: c.Query("vendorId"),
		Status:   models.DocumentStatus(c.Query("status")),
		Type:     models.DocumentType(c.Query("type")),
	})
	if err != nil {
		respondError(c, err, "Failed to fetch documents")
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *DocumentHandler) Create(c *gin.Context) {
	var in services.DocumentInput
	if !bindJSON(c, &in) {
		return
	}
	doc, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "Failed to create document")
		return
	}
	c.JSON(http.StatusCreated, doc)
}
