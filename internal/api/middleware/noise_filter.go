package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthenticatedKey is set by the API key check on accepted requests
const AuthenticatedKey = "authenticated"

var scannerPrefixes = []string{
	"/admin",
	"/phpmyadmin",
	"/wp-admin",
	"/wp-login",
	"/.env",
	"/.git",
	"/backup",
	"/.aws",
	"/console",
	"/actuator",
	"/cgi-bin",
	"/.well-known",
	"/robots.txt",
	"/favicon.ico",
}

var scannerExtensions = []string{".php", ".asp", ".aspx", ".jsp", ".bak", ".sql", ".zip", ".gz"}

// NoiseFilter keeps scanner probes out of the access log. It must run
// inside Logging so the flag is set before Logging looks at it.
func NoiseFilter(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.GetBool(AuthenticatedKey) {
			return
		}

		path := c.Request.URL.Path
		status := c.Writer.Status()

		if status == http.StatusMethodNotAllowed || (status >= 400 && isScannerPath(path)) {
			c.Set(SkipLoggingKey, true)
			logger.Debug("Scanner request filtered",
				"path", path,
				"method", c.Request.Method,
				"status", status,
				"client_ip", c.ClientIP())
		}
	}
}

// isScannerPath checks if a path is commonly probed by scanners
func isScannerPath(path string) bool {
	lower := strings.ToLower(path)
	for _, prefix := range scannerPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	for _, ext := range scannerExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
