package handlers

import (
	"net/http"

	"github.com/Wikid82/warden/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	service *services.DashboardService
}

func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) Get(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch dashboard data")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"alerts":  h.service.Alerts(summary),
	})
}
