// Package server configures the HTTP server and routes.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexusdash/analyst-service/internal/config"
	"github.com/nexusdash/analyst-service/internal/handler"
	"github.com/nexusdash/analyst-service/internal/middleware"
	"github.com/nexusdash/analyst-service/internal/service"
	"github.com/nexusdash/analyst-service/internal/storage"
)

// Deps holds the wired dependencies the routes need. Passed explicitly so
// every handler's requirements are visible at the call site.
type Deps struct {
	Analysis *service.AnalysisService
	Calls    storage.AnalysisCallRepository
}

// RegisterRoutes sets up all HTTP routes on the Gin engine.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	analysisHandler := handler.NewAnalysisHandler(deps.Analysis, logger)
	adminHandler := handler.NewAdminHandler(deps.Calls, logger)

	// Public endpoint, no auth.
	r.GET("/healthz", healthHandler.Healthz)

	// CORS applies to the entire API group.
	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	authed.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		authed.POST("/analysis", analysisHandler.Analyze)
		authed.GET("/providers", analysisHandler.Providers)
	}

	// Admin endpoints use separate keys.
	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
	{
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/calls", adminHandler.Calls)
	}
}
