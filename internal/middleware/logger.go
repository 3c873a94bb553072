package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lchampz/saas-bakery/internal/logger"
)

// RequestLogger logs one line per request, at a level chosen by status class
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			log.Error("🌐 Request failed", kv...)
		case status >= 400:
			log.Warn("🌐 Request rejected", kv...)
		default:
			log.Info("🌐 Request", kv...)
		}
	}
}
