package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// contentSecurityPolicy the API serves JSON and file downloads only; data:
// images are allowed so a browser can preview passport photos returned
// inline by the admin detail endpoint.
const contentSecurityPolicy = "default-src 'none'; img-src 'self' data:; frame-ancestors 'none'"

// SecurityHeaders hardening headers; HSTS only over TLS
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			h.Set("Strict-Transport-Security", "max-age=31536000")
		}
		// admin responses carry applicant personal data
		if strings.HasPrefix(c.Request.URL.Path, "/api/v1/admin") {
			h.Set("Cache-Control", "no-store")
		}

		c.Next()
	}
}
