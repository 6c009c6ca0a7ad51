package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/analytics-api/internal/platform/metrics"
)

// Metrics records request counts and latency per route template, so
// "/api/analytics/users-stats/growth" rather than the raw URL.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
