package handlers

import (
	"net/http"

	"github.com/Wikid82/warden/backend/internal/version"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports service metadata and database reachability.
type HealthHandler struct {
	db          *gorm.DB
	llmProvider string
}

func NewHealthHandler(db *gorm.DB, llmProvider string) *HealthHandler {
	return &HealthHandler{db: db, llmProvider: llmProvider}
}

func (h *HealthHandler) Check(c *gin.Context) {
	status, code := "ok", http.StatusOK
	dbStatus := "ok"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status, code, dbStatus = "degraded", http.StatusServiceUnavailable, "unreachable"
	}
	llmStatus := h.llmProvider
	if llmStatus == "" {
		llmStatus = "disabled"
	}
	c.JSON(code, gin.H{
		"status":     status,
		"service":    version.Name,
		"version":    version.Version,
		"git_commit": version.GitCommit,
		"build_time": version.BuildTime,
		"database":   dbStatus,
		"llm":        llmStatus,
	})
}
