package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"hogis-registration/config"
	"hogis-registration/internal/dto"
	"hogis-registration/internal/service"
	"hogis-registration/pkg/response"
)

// AuthHandler admin login/logout
type AuthHandler struct {
	authSvc service.AuthService
	cfg     *config.AuthConfig
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(authSvc service.AuthService, cfg *config.AuthConfig) *AuthHandler {
	if cfg == nil {
		cfg = &config.AuthConfig{}
	}
	return &AuthHandler{authSvc: authSvc, cfg: cfg}
}

// Login admin login; sets the httpOnly admin cookie
// POST /api/v1/admin/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Unauthorized(c, 11001, "Invalid credentials")
		case errors.Is(err, service.ErrAuthNotConfigured):
			response.Error(c, http.StatusServiceUnavailable, 11002, "Admin login is not configured")
		default:
			_ = c.Error(err)
			response.InternalError(c)
		}
		return
	}

	h.setCookie(c, result.Token, result.ExpiresIn)
	response.OK(c, result)
}

// Logout revokes the current token and clears the cookie
// POST /api/v1/admin/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}
	// a failed revoke still clears the browser session
	if err := h.authSvc.Logout(c.Request.Context(), claims); err != nil {
		_ = c.Error(err)
	}
	h.setCookie(c, "", -1)
	response.OK(c, gin.H{"success": true})
}

// Verify current session
// GET /api/v1/admin/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}
	response.OK(c, dto.VerifyResponse{
		Valid:     true,
		Username:  claims.Username,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
	})
}

func (h *AuthHandler) setCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(sameSite(h.cfg.Cookie.SameSite))
	c.SetCookie(CookieName(h.cfg), token, maxAge, "/", h.cfg.Cookie.Domain, h.cfg.Cookie.Secure, true)
}

// CookieName admin cookie name, "admin-token" unless configured
func CookieName(cfg *config.AuthConfig) string {
	if cfg == nil || cfg.Cookie.Name == "" {
		return "admin-token"
	}
	return cfg.Cookie.Name
}

func sameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
