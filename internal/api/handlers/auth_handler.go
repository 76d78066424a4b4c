package handlers

import (
	"errors"
	"net/http"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	case errors.Is(err, services.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": "Account disabled"})
		return
	case err != nil:
		respondError(c, err, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

type RegisterRequest struct {
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Name     string      `json:"name" binding:"required"`
	Role     models.Role `json:"role" binding:"omitempty,oneof=ADMIN ANALYST VIEWER"`
}

// Register creates a user. Routes restrict it to administrators once the
// first account exists.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		respondError(c, err, "Failed to register user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := c.Get("userID")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	u, err := h.authService.GetUserByID(c.Request.Context(), userID.(uint))
	if err != nil {
		respondError(c, err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, u)
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := c.Get("userID")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), userID.(uint), req.OldPassword, req.NewPassword)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
		return
	}
	if err != nil {
		respondError(c, err, "Failed to change password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
