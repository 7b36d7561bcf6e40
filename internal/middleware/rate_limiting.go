package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"lorewiki-backend/internal/config"
)

const rateLimitManagerKey = "rateLimitManager"

// RateLimitMiddleware limits request rate per client IP. The manager is
// injected through the context by the application; without one the
// middleware is a no-op.
func RateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if shouldBypassRateLimit(c.Request) {
			c.Next()
			return
		}

		manager := managerFromContext(c)
		if manager == nil {
			c.Next()
			return
		}

		limiter := manager.GetVisitor(
			c.ClientIP(),
			cfg.RateLimitRequests,
			cfg.RateLimitWindow,
			cfg.RateLimitBurst,
		)
		if !allow(limiter) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, please try again later",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// UploadRateLimitMiddleware throttles file uploads per IP on top of the
// general limit.
func UploadRateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		manager := managerFromContext(c)
		if manager == nil {
			c.Next()
			return
		}

		limiter := manager.GetUploadVisitor(c.ClientIP(), cfg.UploadRateLimitRequests, cfg.UploadRateLimitWindow)
		if !allow(limiter) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "upload rate limit exceeded",
				"retry_after": cfg.UploadRateLimitWindow,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// AuthRateLimitMiddleware throttles login and registration attempts
// per IP.
func AuthRateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		manager := managerFromContext(c)
		if manager == nil {
			c.Next()
			return
		}

		limiter := manager.GetAuthVisitor(c.ClientIP(), cfg.AuthRateLimitRequests, cfg.AuthRateLimitWindow)
		if !allow(limiter) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many attempts, please try again later",
				"retry_after": cfg.AuthRateLimitWindow,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func managerFromContext(c *gin.Context) *RateLimitManager {
	value, exists := c.Get(rateLimitManagerKey)
	if !exists {
		return nil
	}
	manager, ok := value.(*RateLimitManager)
	if !ok {
		return nil
	}
	return manager
}

// allow treats a nil limiter as unlimited.
func allow(limiter *rate.Limiter) bool {
	return limiter == nil || limiter.Allow()
}

// InjectRateLimitManager makes the manager reachable from the limiting
// middlewares further down the chain.
func InjectRateLimitManager(manager *RateLimitManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager != nil {
			c.Set(rateLimitManagerKey, manager)
		}
		c.Next()
	}
}

func shouldBypassRateLimit(r *http.Request) bool {
	if r == nil || r.URL == nil {
		return false
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}

	path := r.URL.Path
	if path == "" {
		return false
	}

	if strings.HasPrefix(path, "/uploads/") {
		return true
	}

	switch path {
	case "/favicon.ico", "/health", "/metrics":
		return true
	}

	return false
}
