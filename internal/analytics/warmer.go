package analytics

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/nulzo/analytics-api/internal/series"
	"github.com/nulzo/analytics-api/internal/store/cache"
	"go.uber.org/zap"
)

// Warmer periodically recomputes the dashboard's default views (the last
// Days days at every granularity) so that first requests hit the cache.
type Warmer interface {
	Start(ctx context.Context)
	Stop()
	// WarmOnce refreshes every default view and returns the number of
	// computations that failed.
	WarmOnce(ctx context.Context) int
}

type WarmerConfig struct {
	Interval time.Duration
	Days     int
}

type warmer struct {
	logger   *zap.Logger
	svc      Service
	cache    cache.CacheService
	interval time.Duration
	days     int
	now      func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewWarmer(logger *zap.Logger, svc Service, c cache.CacheService, cfg WarmerConfig) Warmer {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Days <= 0 {
		cfg.Days = 30
	}
	return &warmer{
		logger:   logger,
		svc:      svc,
		cache:    c,
		interval: cfg.Interval,
		days:     cfg.Days,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

func (w *warmer) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.worker(ctx)
}

// Stop signals the worker and waits for the refresh in flight to finish.
func (w *warmer) Stop() {
	w.once.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *warmer) worker(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.WarmOnce(ctx)
	for {
		select {
		case <-ticker.C:
			w.WarmOnce(ctx)
		case <-w.stop:
			w.logger.Info("Cache warmer stopped")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *warmer) WarmOnce(ctx context.Context) int {
	end := series.Date(w.now())
	start := end.AddDate(0, 0, -w.days)

	failed := 0
	for _, g := range []series.Granularity{series.Daily, series.Weekly, series.Monthly} {
		r, err := series.NewRange(start, end, g)
		if err != nil {
			w.logger.Error("Invalid warm range", zap.Error(err))
			failed++
			continue
		}

		jobs := []struct {
			op    string
			extra string
			run   func() error
		}{
			{opUserGrowth, "true", func() error { _, err := w.svc.UserGrowth(ctx, r, true); return err }},
			{opUserGrowth, "false", func() error { _, err := w.svc.UserGrowth(ctx, r, false); return err }},
			{opReportVolume, "", func() error { _, err := w.svc.ReportVolume(ctx, r); return err }},
			{opReportedContent, "", func() error { _, err := w.svc.ReportedContent(ctx, r); return err }},
			{opPostVolume, "", func() error { _, err := w.svc.PostVolume(ctx, r); return err }},
			{opTopInteracted, strconv.Itoa(DefaultTopLimit), func() error { _, err := w.svc.TopInteractedPosts(ctx, r, DefaultTopLimit); return err }},
		}

		for _, job := range jobs {
			if w.cache != nil {
				if err := Invalidate(ctx, w.cache, job.op, r, job.extra); err != nil {
					w.logger.Warn("Cache invalidation failed", zap.String("op", job.op), zap.Error(err))
				}
			}
			if err := job.run(); err != nil {
				failed++
				w.logger.Error("Failed to warm analytics cache",
					zap.String("op", job.op),
					zap.Stringer("range", r),
					zap.Error(err),
				)
			}
		}
	}

	w.logger.Debug("Analytics cache warmed", zap.Int("failed", failed))
	return failed
}
