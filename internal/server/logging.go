package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"motoserve/internal/logger"
)

// RequestLoggingMiddleware writes one access-log line per completed request.
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if query := c.Request.URL.RawQuery; query != "" {
			path += "?" + query
		}

		logger.Infof("%s %s %d %dms %s",
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
			c.ClientIP(),
		)
	}
}
