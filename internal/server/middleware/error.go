package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/analytics-api/pkg/api"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error pushed by a handler as an RFC 9457
// problem document.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var problem *api.Problem
		if !errors.As(err, &problem) {
			logger.Error("Unhandled error",
				zap.Error(err),
				zap.String("request_id", RequestIDFrom(c)),
			)
			problem = api.NewProblem(
				http.StatusInternalServerError,
				"Internal Server Error",
				"An unexpected error occurred.",
			)
		} else if problem.Log != nil {
			logger.Error("Request failed",
				zap.Int("status", problem.Status),
				zap.String("detail", problem.Detail),
				zap.Error(problem.Log),
				zap.String("request_id", RequestIDFrom(c)),
			)
		}

		if problem.Instance == "" {
			problem.Instance = c.Request.URL.Path
		}

		// gin keeps an explicit Content-Type when rendering JSON
		c.Header("Content-Type", "application/problem+json")
		c.JSON(problem.Status, problem)
		c.Abort()
	}
}
