package handler

import (
	"github.com/gin-gonic/gin"

	"hogis-registration/pkg/jwt"
	"hogis-registration/pkg/response"
)

// ClaimsKey context key the auth middleware stores admin claims under
const ClaimsKey = "claims"

// MustGetClaims reads the admin claims injected by the auth middleware.
// Writes 401 and returns false when they are missing.
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		response.Unauthorized(c, 10002, "Unauthorized")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "Unauthorized")
		return nil, false
	}
	return claims, true
}
