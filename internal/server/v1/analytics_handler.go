package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/analytics-api/internal/analytics"
	"github.com/nulzo/analytics-api/internal/series"
	"github.com/nulzo/analytics-api/internal/server/validator"
	"github.com/nulzo/analytics-api/pkg/api"
)

type AnalyticsHandler struct {
	service analytics.Service
	now     func() time.Time
}

func NewAnalyticsHandler(service analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		now:     time.Now,
	}
}

// WithClock fixes "today" for default ranges.
func (h *AnalyticsHandler) WithClock(now func() time.Time) *AnalyticsHandler {
	h.now = now
	return h
}

// bind parses and validates the query string. On failure the problem has
// already been pushed and the caller must return.
func (h *AnalyticsHandler) bind(c *gin.Context) (statsQuery, series.Range, bool) {
	var q statsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return q, series.Range{}, false
	}

	r, err := q.resolve(h.now())
	if err != nil {
		_ = c.Error(err)
		return q, series.Range{}, false
	}
	return q, r, true
}

func respond(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, api.Response{
		Message: api.DefaultMessage,
		Data:    data,
	})
}

// UserGrowth serves signups per period, cumulative unless cumulative=false.
//
// GET /api/analytics/users-stats/growth
func (h *AnalyticsHandler) UserGrowth(c *gin.Context) {
	q, r, ok := h.bind(c)
	if !ok {
		return
	}

	cumulative := true
	if q.Cumulative != nil {
		cumulative = *q.Cumulative
	}
	h.userGrowth(c, r, cumulative)
}

// GET /api/analytics/users-stats/growth/non-cumulative
func (h *AnalyticsHandler) UserGrowthNonCumulative(c *gin.Context) {
	_, r, ok := h.bind(c)
	if !ok {
		return
	}
	h.userGrowth(c, r, false)
}

func (h *AnalyticsHandler) userGrowth(c *gin.Context, r series.Range, cumulative bool) {
	stats, err := h.service.UserGrowth(c.Request.Context(), r, cumulative)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to fetch user growth statistics", err))
		return
	}
	respond(c, stats)
}

// GET /api/analytics/reports-stats/volume
func (h *AnalyticsHandler) ReportVolume(c *gin.Context) {
	_, r, ok := h.bind(c)
	if !ok {
		return
	}

	stats, err := h.service.ReportVolume(c.Request.Context(), r)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to fetch report volume statistics", err))
		return
	}
	respond(c, stats)
}

// GET /api/analytics/posts-stats/reported
func (h *AnalyticsHandler) ReportedContent(c *gin.Context) {
	_, r, ok := h.bind(c)
	if !ok {
		return
	}

	stats, err := h.service.ReportedContent(c.Request.Context(), r)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to fetch reported content statistics", err))
		return
	}
	respond(c, stats)
}

// GET /api/analytics/posts-stats/total
func (h *AnalyticsHandler) PostVolume(c *gin.Context) {
	_, r, ok := h.bind(c)
	if !ok {
		return
	}

	stats, err := h.service.PostVolume(c.Request.Context(), r)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to fetch post statistics", err))
		return
	}
	respond(c, stats)
}

// GET /api/analytics/posts-stats/top-interacted
func (h *AnalyticsHandler) TopInteracted(c *gin.Context) {
	q, r, ok := h.bind(c)
	if !ok {
		return
	}

	limit := analytics.DefaultTopLimit
	if q.Limit != nil {
		limit = *q.Limit
	}

	stats, err := h.service.TopInteractedPosts(c.Request.Context(), r, limit)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to fetch top interacted posts", err))
		return
	}
	respond(c, stats)
}
