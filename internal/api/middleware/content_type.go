package middleware

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContentType enforces a JSON media type on POST and PATCH requests that
// carry a body. Bodyless actions like /start pass through.
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if (method == http.MethodPost || method == http.MethodPatch) && c.Request.ContentLength != 0 {
			if !isJSON(c.GetHeader("Content-Type")) {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"error": "Content-Type must be application/json",
					"code":  "INVALID_CONTENT_TYPE",
				})
				return
			}
		}
		c.Next()
	}
}

// isJSON accepts application/json and application/*+json, with parameters
func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" ||
		(strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"))
}
