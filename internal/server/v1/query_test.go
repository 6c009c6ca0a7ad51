package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/analytics-api/internal/series"
	"github.com/nulzo/analytics-api/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := series.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestResolve_Defaults(t *testing.T) {
	now := time.Date(2025, 5, 7, 18, 30, 0, 0, time.UTC)

	r, err := statsQuery{}.resolve(now)
	require.NoError(t, err)

	assert.Equal(t, series.Daily, r.Granularity)
	assert.Equal(t, date(t, "2025-05-07"), r.End)
	assert.Equal(t, date(t, "2025-04-07"), r.Start)
}

func TestResolve_AliasesAndPrecedence(t *testing.T) {
	now := time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC)

	r, err := statsQuery{Range: "weekly", Period: "monthly"}.resolve(now)
	require.NoError(t, err)
	assert.Equal(t, series.Weekly, r.Granularity)

	r, err = statsQuery{Interval: "monthly", Range: "weekly"}.resolve(now)
	require.NoError(t, err)
	assert.Equal(t, series.Monthly, r.Granularity)

	r, err = statsQuery{LegacyStart: "2025-01-01", EndDate: "2025-01-31T23:00:00Z"}.resolve(now)
	require.NoError(t, err)
	assert.Equal(t, date(t, "2025-01-01"), r.Start)
	assert.Equal(t, date(t, "2025-01-31"), r.End)
}

func TestResolve_EndOnlyMovesWindow(t *testing.T) {
	r, err := statsQuery{EndDate: "2024-03-01"}.resolve(time.Now())
	require.NoError(t, err)
	assert.Equal(t, date(t, "2024-01-31"), r.Start)
}

func TestResolve_StartAfterEnd(t *testing.T) {
	_, err := statsQuery{StartDate: "2025-02-01", EndDate: "2025-01-01"}.resolve(time.Now())

	var problem *api.Problem
	require.ErrorAs(t, err, &problem)
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, map[string]string{"startDate": "must not be after endDate"}, problem.Extensions["errors"])
}

func TestHandler_UsesClockForDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fixed := time.Date(2023, 1, 3, 12, 0, 0, 0, time.UTC)

	var got series.Range
	h := NewAnalyticsHandler(nil).WithClock(func() time.Time { return fixed })

	engine := gin.New()
	engine.GET("/probe", func(c *gin.Context) {
		_, r, ok := h.bind(c)
		require.True(t, ok)
		got = r
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe?interval=weekly", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, series.Weekly, got.Granularity)
	assert.Equal(t, date(t, "2023-01-03"), got.End)
	assert.Equal(t, date(t, "2022-12-04"), got.Start)
}
