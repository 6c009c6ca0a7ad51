package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/analytics-api/internal/auth"
	"github.com/nulzo/analytics-api/pkg/api"
	"go.uber.org/zap"
)

const claimsKey = "auth.claims"

// Auth requires a valid Bearer JWT and stores its claims on the context.
func Auth(verifier *auth.Verifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			_ = c.Error(api.UnauthorizedError("Missing Authorization header"))
			c.Abort()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			_ = c.Error(api.UnauthorizedError("Invalid Authorization header format"))
			c.Abort()
			return
		}

		claims, err := verifier.Parse(strings.TrimSpace(token))
		if err != nil {
			logger.Debug("Rejected token", zap.Error(err), zap.String("ip", c.ClientIP()))
			_ = c.Error(api.UnauthorizedError("Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole lets through only callers whose token carries role. It must
// run after Auth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			_ = c.Error(api.UnauthorizedError("Authentication required"))
			c.Abort()
			return
		}
		if claims.Role != role {
			_ = c.Error(api.ForbiddenError("Insufficient permissions"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Claims returns the claims stored by Auth.
func Claims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
