package routes

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/Wikid82/warden/backend/internal/agents"
	"github.com/Wikid82/warden/backend/internal/api/handlers"
	"github.com/Wikid82/warden/backend/internal/api/middleware"
	"github.com/Wikid82/warden/backend/internal/config"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/orchestrator"
	"github.com/Wikid82/warden/backend/internal/services"
)

// Deps are the long-lived collaborators the API is built on. Registry may be
// nil, in which case /metrics is not exposed.
type Deps struct {
	DB            *gorm.DB
	Config        config.Config
	Agents        *agents.Set
	Orchestrator  *orchestrator.Orchestrator
	Notifications *services.NotificationService
	Registry      *prometheus.Registry
}

// Register wires up API routes.
func Register(router *gin.Engine, deps Deps) error {
	if deps.DB == nil {
		return errors.New("routes: database is required")
	}
	if deps.Agents == nil || deps.Orchestrator == nil {
		return errors.New("routes: agents and orchestrator are required")
	}
	if deps.Notifications == nil {
		deps.Notifications = services.NewNotificationService(deps.DB)
	}
	cfg := deps.Config

	handlers.RegisterValidation()

	if deps.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	healthHandler := handlers.NewHealthHandler(deps.DB, cfg.LLM.ResolvedProvider())
	router.GET("/api/v1/health", healthHandler.Check)

	vendorService := services.NewVendorService(deps.DB)
	activityService := services.NewActivityService(deps.DB)

	api := router.Group("/api")

	protected := api.Group("/")
	if cfg.AuthEnabled() {
		authService := services.NewAuthService(deps.DB, cfg.Auth)
		authHandler := handlers.NewAuthHandler(authService)
		api.POST("/auth/login", authHandler.Login)

		protected.Use(middleware.AuthMiddleware(authService))
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/change-password", authHandler.ChangePassword)
		protected.POST("/auth/register", middleware.RequireRole(models.RoleAdmin), authHandler.Register)
	}

	// Viewers are read-only; every write below requires ADMIN or ANALYST.
	write := middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst)
	admin := middleware.RequireRole(models.RoleAdmin)

	vendorHandler := handlers.NewVendorHandler(vendorService, deps.Agents)
	vendors := protected.Group("/vendors")
	vendors.GET("", vendorHandler.List)
	vendors.POST("", write, vendorHandler.Create)
	vendors.GET("/:id", vendorHandler.Get)
	vendors.PUT("/:id", write, vendorHandler.Update)
	vendors.DELETE("/:id", admin, vendorHandler.Delete)
	vendors.GET("/:id/remediation-status", vendorHandler.RemediationStatus)
	vendors.GET("/:id/inventory", vendorHandler.Inventory)

	documentService := services.NewDocumentService(deps.DB)
	documentHandler := handlers.NewDocumentHandler(documentService)
	protected.GET("/documents", documentHandler.List)
	protected.POST("/documents", write, documentHandler.Create)

	findingHandler := handlers.NewFindingHandler(services.NewFindingService(deps.DB))
	findings := protected.Group("/findings")
	findings.GET("", findingHandler.List)
	findings.GET("/stats", findingHandler.Stats)
	findings.GET("/:id", findingHandler.Get)
	findings.PATCH("/:id", write, findingHandler.Update)

	remediationHandler := handlers.NewRemediationHandler(services.NewRemediationService(deps.DB))
	protected.GET("/remediation-actions", remediationHandler.List)
	protected.POST("/remediation-actions/:id/transition", write, remediationHandler.Transition)

	agentHandler := handlers.NewAgentHandler(deps.Agents, vendorService, activityService)
	agentRoutes := protected.Group("/agents")
	agentRoutes.POST("/vera", write, agentHandler.Profile)
	agentRoutes.POST("/cara", write, agentHandler.Assess)
	agentRoutes.POST("/sara", write, agentHandler.Analyze)
	agentRoutes.POST("/dora", write, agentHandler.RequestDocuments)
	agentRoutes.POST("/rita", write, agentHandler.Report)
	agentRoutes.GET("/rita", agentHandler.ExecutiveDashboard)
	agentRoutes.POST("/mars", write, agentHandler.PlanRemediation)
	agentRoutes.PUT("/mars", admin, agentHandler.AcceptRisk)
	agentRoutes.GET("/mars", write, agentHandler.CheckOverdue)
	agentRoutes.GET("/activity", agentHandler.Activity)

	orchestratorHandler := handlers.NewOrchestratorHandler(deps.Orchestrator, vendorService, documentService, cfg.Maintenance.Schedule)
	protected.POST("/orchestrator", write, orchestratorHandler.Onboard)
	protected.PUT("/orchestrator", write, orchestratorHandler.ProcessDocument)
	protected.PATCH("/orchestrator", write, orchestratorHandler.RunMaintenance)
	protected.GET("/orchestrator", orchestratorHandler.Status)

	dashboardHandler := handlers.NewDashboardHandler(services.NewDashboardService(deps.DB))
	protected.GET("/dashboard", dashboardHandler.Get)

	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)
	protected.GET("/notifications", notificationHandler.List)
	protected.POST("/notifications/:id/read", notificationHandler.MarkAsRead)
	protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)

	providerHandler := handlers.NewNotificationProviderHandler(deps.Notifications)
	providers := protected.Group("/notifications/providers")
	providers.GET("", providerHandler.List)
	providers.POST("", admin, providerHandler.Create)
	providers.PUT("/:id", admin, providerHandler.Update)
	providers.DELETE("/:id", admin, providerHandler.Delete)
	providers.POST("/test", admin, providerHandler.Test)

	return nil
}
