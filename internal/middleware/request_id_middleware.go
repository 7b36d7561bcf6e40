package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lorewiki-backend/pkg/logger"
)

// RequestIDMiddleware tags every request with an id, honoring one the
// caller supplied, and threads it into the request-scoped logger.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Request.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		ctx := logger.ContextWithFields(c.Request.Context(), map[string]interface{}{"request_id": requestID})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
