package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"hogis-registration/config"
	"hogis-registration/internal/dto"
	"hogis-registration/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAuthNotConfigured  = errors.New("admin login is not configured")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// TokenBlacklist revoked admin tokens, keyed by jti
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService admin authentication
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	Verify(ctx context.Context, token string) (*dto.VerifyResponse, error)
}

type authService struct {
	cfg       *config.AuthConfig
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService creates an AuthService. blacklist may be nil (no Redis);
// logout then only clears the cookie.
func NewAuthService(
	cfg *config.Config,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       &cfg.Auth,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if s.cfg.AdminPasswordHash == "" {
		s.logger.Error("admin login attempted but auth.admin_password_hash is empty")
		return nil, ErrAuthNotConfigured
	}

	// 1. username, compared in constant time
	username := strings.TrimSpace(req.Username)
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.AdminUsername)) == 1

	// 2. password (bcrypt runs regardless so timing does not leak the username)
	passErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(req.Password))
	if !userOK || passErr != nil {
		s.logger.Warn("admin login failed", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	// 3. token
	token, claims, err := s.jwtMgr.GenerateToken(s.cfg.AdminUsername, jwt.RoleAdmin)
	if err != nil {
		s.logger.Error("failed to sign admin token", zap.Error(err))
		return nil, err
	}

	s.logger.Info("admin logged in", zap.String("username", claims.Username))
	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: int(s.jwtMgr.TTL().Seconds()),
		Username:  claims.Username,
	}, nil
}

// Logout revokes the token until it would have expired
func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil || s.blacklist == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("failed to blacklist admin token", zap.String("jti", claims.ID), zap.Error(err))
		return err
	}
	s.logger.Info("admin logged out", zap.String("username", claims.Username))
	return nil
}

func (s *authService) Verify(ctx context.Context, token string) (*dto.VerifyResponse, error) {
	claims, err := s.jwtMgr.ParseToken(token)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() {
		return nil, jwt.ErrTokenInvalid
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			// Redis outage: accept the signed token
			s.logger.Warn("blacklist check failed", zap.Error(err))
		} else if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return &dto.VerifyResponse{
		Valid:     true,
		Username:  claims.Username,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
	}, nil
}
