package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/warden/backend/internal/api/middleware"
	"github.com/Wikid82/warden/backend/internal/api/routes"
	"github.com/Wikid82/warden/backend/internal/logger"
)

// Server wraps the HTTP engine and shared dependencies for easier testing.
type Server struct {
	Engine *gin.Engine
	deps   routes.Deps
}

// New wires up the HTTP router, the middleware chain and the API routes.
func New(deps routes.Deps) (*Server, error) {
	cfg := deps.Config
	gin.SetMode(gin.ReleaseMode)
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(cfg.Log.Debug),
		middleware.RequestLogger(),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{
			IsDevelopment:  cfg.IsDevelopment(),
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}),
	)

	if err := routes.Register(router, deps); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})
	router.HandleMethodNotAllowed = true

	return &Server{Engine: router, deps: deps}, nil
}

// Run starts the HTTP server and shuts it down gracefully when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.deps.Config.Server.HTTPPort),
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log().WithField("addr", srv.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		timeout := s.deps.Config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
