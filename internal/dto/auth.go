package dto

// ── admin auth DTO ──

// LoginRequest admin login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
