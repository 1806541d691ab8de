package server

import (
	"context"
	"time"

	"gig-market/internal/ctxutil"
	"gig-market/internal/identity"
	"gig-market/services/market/helpers"
	"gig-market/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
		"caller":  ctxutil.CallerFromContext(c.Request.Context()),
	})
}

// OperationTimeoutMiddleware bounds the store work of each request
func OperationTimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireIdentityMiddleware rejects requests the provider cannot identify and stores the
// caller id in the request context for the handlers.
func RequireIdentityMiddleware(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := provider.Identify(c.Request)
		if err != nil {
			helpers.HandleServiceError(c, "RequireIdentityMiddleware", err, map[string]any{
				"path": c.Request.URL.Path,
			})
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(ctxutil.WithCallerID(c.Request.Context(), userID))
		c.Next()
	}
}
