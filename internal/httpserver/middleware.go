package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dassyor/internal/model"
	"dassyor/internal/util"
	"dassyor/pkg/metrics"
	"dassyor/pkg/trace"
)

// TraceMiddleware tags every request with a trace id, accepting one from
// the caller or minting a new one.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(trace.HeaderName)
		if traceID == "" {
			traceID = trace.GenerateTraceID()
		}

		ctx := trace.WithContext(c.Request.Context(), traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(trace.HeaderName, traceID)
		c.Next()
	}
}

// MetricsMiddleware records request durations per route.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}

// AuthRequired verifies the bearer token and stores the caller's identity
// in the gin context. Every decode failure is the same 401.
func AuthRequired(tokens *util.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.Verify(util.ExtractToken(c.Request))
		if err != nil || claims.TokenType != util.TokenTypeAccess {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.Failure("invalid token"))
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.Failure("invalid token"))
			return
		}

		c.Set("user_id", userID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole gates a route on an exact, case-sensitive role match.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, exists := c.Get("role")
		if !exists || current.(string) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, model.Failure("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// RequireSharedPassword gates internal endpoints on a shared secret in the
// Authorization header.
func RequireSharedPassword(password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if password == "" || c.GetHeader("Authorization") != password {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.Failure("unauthorized"))
			return
		}
		c.Next()
	}
}
