package handlers

import (
	"fmt"
	"net/http"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/services"
	"github.com/Wikid82/warden/backend/internal/util"
	"github.com/gin-gonic/gin"
)

type NotificationProviderHandler struct {
	service *services.NotificationService
}

func NewNotificationProviderHandler(service *services.NotificationService) *NotificationProviderHandler {
	return &NotificationProviderHandler{service: service}
}

func (h *NotificationProviderHandler) List(c *gin.Context) {
	providers, err := h.service.ListProviders(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list providers")
		return
	}
	c.JSON(http.StatusOK, providers)
}

func (h *NotificationProviderHandler) Create(c *gin.Context) {
	var provider models.NotificationProvider
	if !bindJSON(c, &provider) {
		return
	}
	provider.ID = ""
	if err := h.service.CreateProvider(c.Request.Context(), &provider); err != nil {
		respondError(c, err, "Failed to create provider")
		return
	}
	c.JSON(http.StatusCreated, provider)
}

func (h *NotificationProviderHandler) Update(c *gin.Context) {
	var provider models.NotificationProvider
	if !bindJSON(c, &provider) {
		return
	}
	provider.ID = c.Param("id")
	if err := h.service.UpdateProvider(c.Request.Context(), &provider); err != nil {
		respondError(c, err, "Failed to update provider")
		return
	}
	c.JSON(http.StatusOK, provider)
}

func (h *NotificationProviderHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteProvider(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete provider")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Provider deleted"})
}

// Test sends a canned message through an unsaved provider. A failure is
// also recorded as an internal notification.
func (h *NotificationProviderHandler) Test(c *gin.Context) {
	var provider models.NotificationProvider
	if !bindJSON(c, &provider) {
		return
	}
	ctx := c.Request.Context()

	if err := h.service.TestProvider(ctx, provider); err != nil {
		_ = h.service.Create(ctx, &models.Notification{
			Type:          models.NotificationTypeInfo,
			RecipientType: models.RecipientInternal,
			Title:         "Test Failed",
			Message:       fmt.Sprintf("Provider %s test failed: %v", util.SanitizeForLog(provider.Name), err),
			SentBy:        "SYSTEM",
		})
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test notification sent"})
}
