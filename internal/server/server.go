package server

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/nulzo/analytics-api/internal/analytics"
	"github.com/nulzo/analytics-api/internal/auth"
	"github.com/nulzo/analytics-api/internal/config"
	"github.com/nulzo/analytics-api/internal/platform/metrics"
	"github.com/nulzo/analytics-api/internal/server/middleware"
	v1 "github.com/nulzo/analytics-api/internal/server/v1"
	"github.com/nulzo/analytics-api/internal/server/validator"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Service  analytics.Service
	Verifier *auth.Verifier
	Metrics  *metrics.Metrics
	// Checks are pinged by /ready, keyed by dependency name.
	Checks  map[string]v1.Pinger
	Version string
}

type Server struct {
	router      *gin.Engine
	config      *config.Config
	logger      *zap.Logger
	deps        Deps
	rateLimiter *middleware.RateLimiter
}

func New(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}

	validator.InitValidator()

	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(ginzap.RecoveryWithZap(logger, true))
	engine.Use(middleware.Logger(logger))

	s := &Server{
		router: engine,
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	if cfg.RateLimit.Enabled {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger, deps.Metrics)
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// RateLimiter is nil when rate limiting is disabled.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}
