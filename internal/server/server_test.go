package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/analytics-api/internal/auth"
	"github.com/nulzo/analytics-api/internal/config"
	"github.com/nulzo/analytics-api/internal/series"
	v1 "github.com/nulzo/analytics-api/internal/server/v1"
	"github.com/nulzo/analytics-api/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test-secret"

// MockService is a mock implementation of analytics.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) UserGrowth(ctx context.Context, r series.Range, cumulative bool) (*api.UserGrowthStats, error) {
	args := m.Called(ctx, r, cumulative)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.UserGrowthStats), args.Error(1)
}

func (m *MockService) ReportVolume(ctx context.Context, r series.Range) (*api.ReportVolumeStats, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.ReportVolumeStats), args.Error(1)
}

func (m *MockService) ReportedContent(ctx context.Context, r series.Range) (*api.ReportedContentStats, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.ReportedContentStats), args.Error(1)
}

func (m *MockService) PostVolume(ctx context.Context, r series.Range) (*api.PostVolumeStats, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.PostVolumeStats), args.Error(1)
}

func (m *MockService) TopInteractedPosts(ctx context.Context, r series.Range, limit int) (*api.TopPostsStats, error) {
	args := m.Called(ctx, r, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.TopPostsStats), args.Error(1)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Env: "test", AllowedOrigins: []string{"https://admin.example.com"}},
		Auth:      config.AuthConfig{JWTSecret: secret, RequiredRole: auth.RoleAdmin},
		RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerSecond: 100, Burst: 100},
		Tracing:   config.TracingConfig{ServiceName: "analytics-test"},
	}
}

func setupServer(t *testing.T, cfg *config.Config, svc *MockService, checks map[string]v1.Pinger) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	verifier, err := auth.NewVerifier(secret)
	require.NoError(t, err)
	return New(cfg, zap.NewNop(), Deps{
		Service:  svc,
		Verifier: verifier,
		Checks:   checks,
		Version:  "1.2.3",
	})
}

func token(t *testing.T, role string) string {
	t.Helper()
	issuer, err := auth.NewIssuer(secret, time.Hour)
	require.NoError(t, err)
	tok, err := issuer.Issue("", "someone@example.com", role)
	require.NoError(t, err)
	return tok
}

func get(s *Server, path, bearer string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func rangeOf(start, end string, g series.Granularity) series.Range {
	s, _ := series.ParseDate(start)
	e, _ := series.ParseDate(end)
	r, _ := series.NewRange(s, e, g)
	return r
}

func TestHealth(t *testing.T) {
	s := setupServer(t, testConfig(), new(MockService), nil)

	w := get(s, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","version":"1.2.3"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestReady(t *testing.T) {
	ok := setupServer(t, testConfig(), new(MockService), map[string]v1.Pinger{"database": pinger{}})
	w := get(ok, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	down := setupServer(t, testConfig(), new(MockService), map[string]v1.Pinger{
		"database": pinger{},
		"redis":    pinger{err: errors.New("connection refused")},
	})
	w = get(down, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, map[string]interface{}{"database": "ok", "redis": "unavailable"}, body["checks"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupServer(t, testConfig(), new(MockService), nil)
	get(s, "/health", "")

	w := get(s, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `analytics_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestAuth(t *testing.T) {
	s := setupServer(t, testConfig(), new(MockService), nil)

	tests := []struct {
		name   string
		bearer string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"invalid token", "garbage", http.StatusUnauthorized},
		{"non admin", token(t, "user"), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(s, "/api/analytics/users-stats/growth", tt.bearer)
			assert.Equal(t, tt.status, w.Code)
			body := decodeProblem(t, w)
			assert.Equal(t, float64(tt.status), body["status"])
			assert.Equal(t, "/api/analytics/users-stats/growth", body["instance"])
		})
	}
}

func TestUserGrowth_DefaultsToCumulative(t *testing.T) {
	svc := new(MockService)
	s := setupServer(t, testConfig(), svc, nil)
	r := rangeOf("2023-01-01", "2023-01-03", series.Daily)

	stats := &api.UserGrowthStats{
		Series: []api.SeriesPoint{
			{Date: "2023-01-01", Count: 5},
			{Date: "2023-01-02", Count: 5},
			{Date: "2023-01-03", Count: 8},
		},
		Total:                8,
		TotalUsers:           100,
		TotalActiveUsers:     50,
		Cumulative:           true,
		AggregatedByInterval: "daily",
	}
	svc.On("UserGrowth", mock.Anything, r, true).Return(stats, nil)

	w := get(s, "/api/analytics/users-stats/growth?startDate=2023-01-01&endDate=2023-01-03&interval=daily", token(t, auth.RoleAdmin))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"message": "Analytics data fetched successfully",
		"data": {
			"series": [
				{"date": "2023-01-01", "count": 5},
				{"date": "2023-01-02", "count": 5},
				{"date": "2023-01-03", "count": 8}
			],
			"total": 8,
			"totalUsers": 100,
			"totalActiveUsers": 50,
			"cumulative": true,
			"aggregatedByInterval": "daily"
		}
	}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestUserGrowth_CumulativeOverrides(t *testing.T) {
	svc := new(MockService)
	s := setupServer(t, testConfig(), svc, nil)
	r := rangeOf("2023-01-01", "2023-01-31", series.Weekly)
	svc.On("UserGrowth", mock.Anything, r, false).Return(&api.UserGrowthStats{}, nil).Twice()

	admin := token(t, auth.RoleAdmin)
	w := get(s, "/api/analytics/users-stats/growth?startDate=2023-01-01&endDate=2023-01-31&interval=weekly&cumulative=false", admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(s, "/api/analytics/users-stats/growth/non-cumulative?startDate=2023-01-01&endDate=2023-01-31&interval=weekly&cumulative=true", admin)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestValidationErrors(t *testing.T) {
	s := setupServer(t, testConfig(), new(MockService), nil)
	admin := token(t, auth.RoleAdmin)

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"unknown interval", "interval=hourly", "interval"},
		{"bad start date", "startDate=01-02-2023", "startDate"},
		{"start after end", "startDate=2023-02-01&endDate=2023-01-01", "startDate"},
		{"limit too large", "limit=11", "limit"},
		{"limit too small", "limit=0", "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(s, "/api/analytics/posts-stats/top-interacted?"+tt.query, admin)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeProblem(t, w)
			fields, ok := body["errors"].(map[string]interface{})
			require.True(t, ok, "errors extension missing: %v", body)
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestTopInteracted_RangeAliasAndLimit(t *testing.T) {
	svc := new(MockService)
	s := setupServer(t, testConfig(), svc, nil)
	r := rangeOf("2025-05-01", "2025-05-31", series.Monthly)

	svc.On("TopInteractedPosts", mock.Anything, r, 5).Return(&api.TopPostsStats{
		Metrics: []api.PeriodPosts{{
			Date:  "2025-05 (2025-05-01 to 2025-05-31)",
			Posts: []api.PostDetail{},
		}},
		AggregatedByInterval: "monthly",
		Limit:                5,
	}, nil)

	w := get(s, "/api/analytics/posts-stats/top-interacted?range=monthly&startDate=2025-05-01&endDate=2025-05-31&limit=5", token(t, auth.RoleAdmin))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"message": "Analytics data fetched successfully",
		"data": {
			"metrics": [{"date": "2025-05 (2025-05-01 to 2025-05-31)", "posts": []}],
			"aggregatedByInterval": "monthly",
			"limit": 5
		}
	}`, w.Body.String())
}

func TestPostVolume_LegacyParams(t *testing.T) {
	svc := new(MockService)
	s := setupServer(t, testConfig(), svc, nil)
	r := rangeOf("2023-01-02", "2023-01-15", series.Weekly)
	svc.On("PostVolume", mock.Anything, r).Return(&api.PostVolumeStats{AggregatedByInterval: "weekly"}, nil)

	w := get(s, "/api/analytics/posts-stats/total?period=weekly&start_date=2023-01-02&end_date=2023-01-15", token(t, auth.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestReportRoutes(t *testing.T) {
	svc := new(MockService)
	s := setupServer(t, testConfig(), svc, nil)
	r := rangeOf("2023-01-01", "2023-01-01", series.Daily)
	admin := token(t, auth.RoleAdmin)

	svc.On("ReportVolume", mock.Anything, r).Return(&api.ReportVolumeStats{}, nil).Twice()
	svc.On("ReportedContent", mock.Anything, r).Return(&api.ReportedContentStats{}, nil).Once()

	for _, path := range []string{"/api/analytics/reports-stats/volume", "/api/analytics/posts-stats/volume", "/api/analytics/posts-stats/reported"} {
		w := get(s, path+"?startDate=2023-01-01&endDate=2023-01-01", admin)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	svc.AssertExpectations(t)
}

func TestServiceErrorIsInternal(t *testing.T) {
	svc := new(MockService)
	s := setupServer(t, testConfig(), svc, nil)
	svc.On("ReportedContent", mock.Anything, mock.Anything).Return(nil, errors.New("pq: relation \"reports\" does not exist"))

	w := get(s, "/api/analytics/posts-stats/reported", token(t, auth.RoleAdmin))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, "Failed to fetch reported content statistics", body["detail"])
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1}

	svc := new(MockService)
	svc.On("ReportedContent", mock.Anything, mock.Anything).Return(&api.ReportedContentStats{}, nil)
	s := setupServer(t, cfg, svc, nil)
	admin := token(t, auth.RoleAdmin)

	assert.Equal(t, http.StatusOK, get(s, "/api/analytics/posts-stats/reported", admin).Code)

	w := get(s, "/api/analytics/posts-stats/reported", admin)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestCORSPreflight(t *testing.T) {
	s := setupServer(t, testConfig(), new(MockService), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/api/analytics/users-stats/growth", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://admin.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
