package analytics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nulzo/analytics-api/internal/platform/metrics"
	"github.com/nulzo/analytics-api/internal/series"
	"github.com/nulzo/analytics-api/internal/store"
	"github.com/nulzo/analytics-api/internal/store/cache"
	"github.com/nulzo/analytics-api/pkg/api"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultTopLimit = 3
	MaxTopLimit     = 10
)

// operation names, shared by cache keys, span names and metric labels
const (
	opUserGrowth      = "user_growth"
	opReportVolume    = "report_volume"
	opReportedContent = "reported_content"
	opPostVolume      = "post_volume"
	opTopInteracted   = "top_interacted"
)

type Service interface {
	UserGrowth(ctx context.Context, r series.Range, cumulative bool) (*api.UserGrowthStats, error)
	ReportVolume(ctx context.Context, r series.Range) (*api.ReportVolumeStats, error)
	ReportedContent(ctx context.Context, r series.Range) (*api.ReportedContentStats, error)
	PostVolume(ctx context.Context, r series.Range) (*api.PostVolumeStats, error)
	TopInteractedPosts(ctx context.Context, r series.Range, limit int) (*api.TopPostsStats, error)
}

// Options carries the optional collaborators of the service. A nil Cache
// disables caching.
type Options struct {
	Cache    cache.CacheService
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

type service struct {
	repo    store.Repository
	cache   cache.CacheService
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
	tracer  trace.Tracer
}

func NewService(repo store.Repository, opts Options) Service {
	s := &service{
		repo:    repo,
		cache:   opts.Cache,
		ttl:     opts.CacheTTL,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		tracer:  otel.Tracer("github.com/nulzo/analytics-api/internal/analytics"),
	}
	if s.metrics == nil {
		s.metrics = metrics.NewNop()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.ttl <= 0 {
		s.ttl = 5 * time.Minute
	}
	return s
}

func (s *service) UserGrowth(ctx context.Context, r series.Range, cumulative bool) (*api.UserGrowthStats, error) {
	return cached(ctx, s, opUserGrowth, r, strconv.FormatBool(cumulative), func(ctx context.Context) (*api.UserGrowthStats, error) {
		sparse, err := s.repo.Users().Signups(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("fetching signups: %w", err)
		}
		points, total, err := build(sparse, r, cumulative)
		if err != nil {
			return nil, err
		}

		totalUsers, err := s.repo.Users().Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting users: %w", err)
		}
		activeUsers, err := s.repo.Users().CountActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting active users: %w", err)
		}

		return &api.UserGrowthStats{
			Series:               points,
			Total:                total,
			TotalUsers:           totalUsers,
			TotalActiveUsers:     activeUsers,
			Cumulative:           cumulative,
			AggregatedByInterval: string(r.Granularity),
		}, nil
	})
}

func (s *service) ReportVolume(ctx context.Context, r series.Range) (*api.ReportVolumeStats, error) {
	return cached(ctx, s, opReportVolume, r, "", func(ctx context.Context) (*api.ReportVolumeStats, error) {
		sparse, err := s.repo.Reports().Volume(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("fetching report volume: %w", err)
		}
		points, total, err := build(sparse, r, false)
		if err != nil {
			return nil, err
		}

		overall, err := s.repo.Reports().Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting reports: %w", err)
		}

		return &api.ReportVolumeStats{
			Series:               points,
			Total:                total,
			OverallTotal:         overall,
			AggregatedByInterval: string(r.Granularity),
		}, nil
	})
}

func (s *service) ReportedContent(ctx context.Context, r series.Range) (*api.ReportedContentStats, error) {
	return cached(ctx, s, opReportedContent, r, "", func(ctx context.Context) (*api.ReportedContentStats, error) {
		sparse, err := s.repo.Reports().ReportedContent(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("fetching reported content: %w", err)
		}
		points, total, err := build(sparse, r, false)
		if err != nil {
			return nil, err
		}

		return &api.ReportedContentStats{
			Metrics:              points,
			Total:                total,
			AggregatedByInterval: string(r.Granularity),
		}, nil
	})
}

func (s *service) PostVolume(ctx context.Context, r series.Range) (*api.PostVolumeStats, error) {
	return cached(ctx, s, opPostVolume, r, "", func(ctx context.Context) (*api.PostVolumeStats, error) {
		sparse, err := s.repo.Posts().Volume(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("fetching post volume: %w", err)
		}
		points, total, err := build(sparse, r, false)
		if err != nil {
			return nil, err
		}

		overall, err := s.repo.Posts().CountActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting active posts: %w", err)
		}

		return &api.PostVolumeStats{
			Series:               points,
			Total:                total,
			OverallTotal:         overall,
			AggregatedByInterval: string(r.Granularity),
		}, nil
	})
}

func (s *service) TopInteractedPosts(ctx context.Context, r series.Range, limit int) (*api.TopPostsStats, error) {
	limit = clampLimit(limit)
	return cached(ctx, s, opTopInteracted, r, strconv.Itoa(limit), func(ctx context.Context) (*api.TopPostsStats, error) {
		rows, err := s.repo.Posts().TopInteracted(ctx, r, limit)
		if err != nil {
			return nil, fmt.Errorf("fetching top interacted posts: %w", err)
		}

		grouped := make(map[string][]api.PostDetail)
		for _, row := range rows {
			p, err := series.ParseKey(row.Period, r.Granularity)
			if err != nil {
				return nil, err
			}
			if len(grouped[p.Key]) >= limit {
				continue
			}
			grouped[p.Key] = append(grouped[p.Key], toPostDetail(row))
		}

		slots := series.Fill(grouped, r)
		out := make([]api.PeriodPosts, len(slots))
		for i, slot := range slots {
			posts := slot.Value
			if posts == nil {
				posts = []api.PostDetail{}
			}
			out[i] = api.PeriodPosts{Date: slot.Period.Label(), Posts: posts}
		}

		return &api.TopPostsStats{
			Metrics:              out,
			AggregatedByInterval: string(r.Granularity),
			Limit:                limit,
		}, nil
	})
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultTopLimit
	case limit > MaxTopLimit:
		return MaxTopLimit
	default:
		return limit
	}
}

// build densifies sparse over r. The total is always the sum of the
// per-period counts, also when the returned series is cumulative.
func build(sparse []series.DataPoint, r series.Range, cumulative bool) ([]api.SeriesPoint, int64, error) {
	points, err := series.Build(sparse, r, false)
	if err != nil {
		return nil, 0, err
	}
	total := series.Total(points)
	if cumulative {
		points = series.Accumulate(points)
	}

	out := make([]api.SeriesPoint, len(points))
	for i, p := range points {
		out[i] = api.SeriesPoint{Date: p.Date, Count: p.Count}
	}
	return out, total, nil
}

// cacheKey identifies one computation: operation, range and any extra flags.
func cacheKey(op string, r series.Range, extra string) string {
	if extra == "" {
		return cache.Key("analytics", op, r.String())
	}
	return cache.Key("analytics", op, r.String(), extra)
}

// cached wraps compute with a span, metrics and a cache-aside lookup. Cache
// failures are logged and never fail the request.
func cached[T any](ctx context.Context, s *service, op string, r series.Range, extra string, compute func(context.Context) (*T, error)) (*T, error) {
	ctx, span := s.tracer.Start(ctx, "analytics."+op, trace.WithAttributes(
		attribute.String("analytics.interval", string(r.Granularity)),
		attribute.String("analytics.range", r.String()),
	))
	defer span.End()

	start := time.Now()
	key := cacheKey(op, r, extra)

	if s.cache != nil {
		var hit T
		err := s.cache.Get(ctx, key, &hit)
		switch {
		case err == nil:
			s.metrics.CacheHit(op)
			s.metrics.ObserveQuery(op, string(r.Granularity), nil, time.Since(start))
			span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
			return &hit, nil
		case errors.Is(err, cache.ErrMiss):
			s.metrics.CacheMiss(op)
		default:
			s.metrics.CacheMiss(op)
			s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
	}
	span.SetAttributes(attribute.Bool("analytics.cache_hit", false))

	out, err := compute(ctx)
	s.metrics.ObserveQuery(op, string(r.Granularity), err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out, s.ttl); err != nil {
			s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

// Invalidate drops the cached result of one computation. extra must match
// the flag the operation was called with ("true"/"false" for user growth,
// the limit for top posts).
func Invalidate(ctx context.Context, c cache.CacheService, op string, r series.Range, extra string) error {
	return c.Delete(ctx, cacheKey(op, r, extra))
}
