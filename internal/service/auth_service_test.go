package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"hogis-registration/internal/dto"
	"hogis-registration/pkg/jwt"
)

// ── test helpers ──

func setupAuth(t *testing.T, blacklist TokenBlacklist) (AuthService, *jwt.Manager) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	cfg := newTestConfig()
	cfg.Auth.AdminPasswordHash = string(hash)
	mgr := jwt.NewManager(&cfg.Auth)
	return NewAuthService(cfg, mgr, blacklist, zap.NewNop()), mgr
}

// ── Login ──

func TestLogin_Success(t *testing.T) {
	svc, mgr := setupAuth(t, nil)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Username: " admin ", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.Username != "admin" || resp.ExpiresIn != 86400 {
		t.Errorf("unexpected response %+v", resp)
	}
	claims, err := mgr.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token should parse: %v", err)
	}
	if !claims.IsAdmin() {
		t.Error("token must carry the admin role")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := setupAuth(t, nil)

	cases := []dto.LoginRequest{
		{Username: "admin", Password: "wrong"},
		{Username: "root", Password: "s3cret-pass"},
		{Username: "", Password: ""},
	}
	for _, req := range cases {
		req := req
		if _, err := svc.Login(context.Background(), &req); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%+v: expected ErrInvalidCredentials, got %v", req, err)
		}
	}
}

func TestLogin_NotConfigured(t *testing.T) {
	cfg := newTestConfig()
	svc := NewAuthService(cfg, jwt.NewManager(&cfg.Auth), nil, zap.NewNop())

	if _, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "admin", Password: "x"}); !errors.Is(err, ErrAuthNotConfigured) {
		t.Errorf("expected ErrAuthNotConfigured, got %v", err)
	}
}

// ── Verify / Logout ──

func TestVerifyAndLogout(t *testing.T) {
	blacklist := newMockBlacklist()
	svc, mgr := setupAuth(t, blacklist)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &dto.LoginRequest{Username: "admin", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	v, err := svc.Verify(ctx, resp.Token)
	if err != nil || !v.Valid || v.Role != jwt.RoleAdmin {
		t.Fatalf("token should verify: %+v %v", v, err)
	}

	claims, _ := mgr.ParseToken(resp.Token)
	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if ttl := blacklist.revoked[claims.ID]; ttl <= 0 {
		t.Errorf("jti should be blacklisted with a positive ttl, got %s", ttl)
	}
	if _, err := svc.Verify(ctx, resp.Token); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("expected ErrTokenRevoked after logout, got %v", err)
	}
}

func TestVerify_NonAdminRole(t *testing.T) {
	svc, mgr := setupAuth(t, nil)
	token, _, _ := mgr.GenerateToken("someone", "viewer")

	if _, err := svc.Verify(context.Background(), token); !errors.Is(err, jwt.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_BlacklistOutageAcceptsToken(t *testing.T) {
	blacklist := newMockBlacklist()
	blacklist.err = errors.New("redis: connection refused")
	svc, mgr := setupAuth(t, blacklist)
	token, _, _ := mgr.GenerateToken("admin", jwt.RoleAdmin)

	if _, err := svc.Verify(context.Background(), token); err != nil {
		t.Errorf("a blacklist outage should not lock the admin out: %v", err)
	}
}

func TestLogout_WithoutBlacklist(t *testing.T) {
	svc, mgr := setupAuth(t, nil)
	_, claims, _ := mgr.GenerateToken("admin", jwt.RoleAdmin)

	if err := svc.Logout(context.Background(), claims); err != nil {
		t.Errorf("logout without redis should be a no-op, got %v", err)
	}
}
