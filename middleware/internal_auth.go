package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InternalAuthHeader carries the shared secret for internal endpoints.
const InternalAuthHeader = "X-Internal-Auth"

// InternalAuthMiddleware guards internal endpoints with a shared token.
// An empty token disables them: every request gets 404.
func InternalAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		authToken := c.GetHeader(InternalAuthHeader)
		if subtle.ConstantTimeCompare([]byte(authToken), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Forbidden",
			})
			return
		}

		c.Next()
	}
}
