package server

import (
	"github.com/gin-gonic/gin"
	"github.com/nulzo/analytics-api/internal/server/middleware"
	v1 "github.com/nulzo/analytics-api/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.Tracing(s.config.Tracing.ServiceName))
	s.router.Use(middleware.Metrics(s.deps.Metrics))
	s.router.Use(middleware.CORS(s.config.Server.AllowedOrigins))
	s.router.Use(middleware.ErrorHandler(s.logger))

	// Public probes
	healthHandler := v1.NewHealthHandler(s.deps.Version, s.deps.Checks)
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/ready", healthHandler.Ready)
	s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))

	api := s.router.Group("/api/analytics")
	api.Use(middleware.Auth(s.deps.Verifier, s.logger))
	api.Use(middleware.RequireRole(s.config.Auth.RequiredRole))
	if s.rateLimiter != nil {
		api.Use(s.rateLimiter.Middleware())
	}
	{
		h := v1.NewAnalyticsHandler(s.deps.Service)

		api.GET("/users-stats/growth", h.UserGrowth)
		api.GET("/users-stats/growth/non-cumulative", h.UserGrowthNonCumulative)

		api.GET("/reports-stats/volume", h.ReportVolume)
		api.GET("/posts-stats/volume", h.ReportVolume)

		api.GET("/posts-stats/reported", h.ReportedContent)
		api.GET("/posts-stats/top-interacted", h.TopInteracted)
		api.GET("/posts-stats/total", h.PostVolume)
	}
}
