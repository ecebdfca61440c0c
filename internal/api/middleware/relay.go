package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"hogis-registration/pkg/response"
)

// RelaySecret guards the email relay. An empty secret leaves the endpoints
// open, which only suits local development.
func RelaySecret(header, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader(header)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			response.NotifyError(c, http.StatusUnauthorized, "Unauthorized", "")
			c.Abort()
			return
		}
		c.Next()
	}
}
