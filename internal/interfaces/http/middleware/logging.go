package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"cdrcgi/internal/shared/logger"
)

// Logging records one structured line per completed request; the level
// follows the response status.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"body_size", c.Writer.Size(),
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("HTTP request completed with server error", args...)
		case status >= 400:
			logger.Warn("HTTP request completed with client error", args...)
		default:
			logger.Debug("HTTP request completed", args...)
		}
	}
}
