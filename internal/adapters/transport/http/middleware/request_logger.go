package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs each request at completion. Header values that may
// carry credentials are never logged.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if log.Core().Enabled(zap.DebugLevel) {
			scrubbed := c.Request.Header.Clone()
			for k := range scrubbed {
				if sensitiveHeader(k) {
					scrubbed[k] = []string{"[redacted]"}
				}
			}
			log.Debug("incoming request",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("hdr", scrubbed),
			)
		}

		ts := time.Now()
		c.Next()

		latency := time.Since(ts)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		}

		if len(c.Errors) > 0 {
			for _, e := range c.Errors {
				log.Error("handler error", append(fields, zap.Error(e))...)
			}
			return
		}

		log.Info("completed", fields...)
	}
}

func sensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "authorization") || strings.Contains(lower, "cookie")
}
