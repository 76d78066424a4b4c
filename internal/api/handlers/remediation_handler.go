package handlers

import (
	"net/http"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type RemediationHandler struct {
	service *services.RemediationService
}

func NewRemediationHandler(service *services.RemediationService) *RemediationHandler {
	return &RemediationHandler{service: service}
}

func (h *RemediationHandler) List(c *gin.Context) {
	actions, err := h.service.List(c.Request.Context(), services.RemediationFilter{
		VendorID:  c.Query("vendorId"),
		FindingID: c.Query("findingId"),
		Status:    models.RemediationStatus(c.Query("status")),
		Overdue:   c.Query("overdue") == "true",
	})
	if err != nil {
		respondError(c, err, "Failed to fetch remediation actions")
		return
	}
	c.JSON(http.StatusOK, actions)
}

func (h *RemediationHandler) Transition(c *gin.Context) {
	var in services.TransitionInput
	if !bindJSON(c, &in) {
		return
	}
	action, err := h.service.Transition(c.Request.Context(), actor(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err, "Failed to update remediation action")
		return
	}
	c.JSON(http.StatusOK, action)
}
