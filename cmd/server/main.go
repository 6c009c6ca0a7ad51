package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nulzo/analytics-api/internal/analytics"
	"github.com/nulzo/analytics-api/internal/auth"
	"github.com/nulzo/analytics-api/internal/config"
	"github.com/nulzo/analytics-api/internal/platform/logger"
	"github.com/nulzo/analytics-api/internal/platform/metrics"
	"github.com/nulzo/analytics-api/internal/platform/otel"
	"github.com/nulzo/analytics-api/internal/server"
	v1 "github.com/nulzo/analytics-api/internal/server/v1"
	"github.com/nulzo/analytics-api/internal/store"
	"github.com/nulzo/analytics-api/internal/store/cache"
	"github.com/nulzo/analytics-api/internal/store/postgres"
	"github.com/nulzo/analytics-api/internal/store/sqlite"
	"github.com/nulzo/analytics-api/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Get().Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.Initialize(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		EnableColor: !cfg.IsProduction(),
		Service:     cfg.Tracing.ServiceName,
	})
	if err != nil {
		logger.Get().Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Updates.Enabled {
		go version.NewChecker(cfg.Updates.URL, version.Version).CheckForUpdates(ctx, log)
	}

	shutdownTracer, err := otel.InitTracer(otel.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, log, os.Stdout)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	repo, err := openStore(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer func() {
		_ = repo.Close()
	}()

	checks := map[string]v1.Pinger{"database": repo}

	resultCache, redisClient := openCache(ctx, cfg, log)
	if redisClient != nil {
		defer func() {
			_ = redisClient.Close()
		}()
		checks["redis"] = resultCache.(*cache.RedisCache)
	}

	m := metrics.New(prometheus.NewRegistry())

	svc := analytics.NewService(repo, analytics.Options{
		Cache:    resultCache,
		CacheTTL: cfg.Cache.TTL,
		Metrics:  m,
		Logger:   log.Named("analytics"),
	})

	if resultCache != nil && cfg.Cache.WarmInterval > 0 {
		warmer := analytics.NewWarmer(log.Named("warmer"), svc, resultCache, analytics.WarmerConfig{
			Interval: cfg.Cache.WarmInterval,
			Days:     cfg.Cache.WarmDays,
		})
		warmer.Start(ctx)
		defer warmer.Stop()
	}

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatal("Failed to configure authentication", zap.Error(err))
	}

	srv := server.New(cfg, log, server.Deps{
		Service:  svc,
		Verifier: verifier,
		Metrics:  m,
		Checks:   checks,
		Version:  version.Version,
	})

	if rl := srv.RateLimiter(); rl != nil {
		go sweepRateLimiter(ctx, rl.Cleanup, log)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("Starting analytics API",
			zap.String("port", cfg.Server.Port),
			zap.String("env", cfg.Server.Env),
			zap.String("version", version.Version),
			zap.String("database", cfg.Database.Driver),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}
}

func openStore(cfg config.DatabaseConfig, log *zap.Logger) (store.Repository, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.NewPostgresStorage(cfg.DSN, cfg.MaxOpenConns, log)
	default:
		return sqlite.NewSQLiteStorage(cfg.DSN, log)
	}
}

// openCache prefers redis, falls back to the in-process LRU when redis is
// disabled or unreachable, and returns nil when caching is off.
func openCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (cache.CacheService, *redis.Client) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err == nil {
			log.Info("Using redis result cache", zap.String("addr", cfg.Redis.Addr))
			return cache.NewRedisCache(client, cfg.Cache.Prefix), client
		}
		log.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(err))
	}

	return cache.NewMemoryCache(cfg.Cache.Size, cfg.Cache.TTL), nil
}

func sweepRateLimiter(ctx context.Context, cleanup func(time.Duration) int, log *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := cleanup(10 * time.Minute); n > 0 {
				log.Debug("Dropped idle rate limit buckets", zap.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}
