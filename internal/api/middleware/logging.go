package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// SkipLoggingKey marks a request that should not produce an access log line
const SkipLoggingKey = "skip_logging"

// Logging logs HTTP requests with structured fields
func Logging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if c.GetBool(SkipLoggingKey) {
			return
		}

		if raw != "" {
			path = path + "?" + raw
		}

		attrs := []any{
			"component", "api",
			"request_id", c.GetString(RequestIDKey),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			attrs = append(attrs, "error", errorMessage)
		}

		if c.Writer.Status() >= 500 {
			logger.Error("HTTP request", attrs...)
			return
		}
		logger.Info("HTTP request", attrs...)
	}
}
