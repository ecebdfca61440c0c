package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"hogis-registration/config"
	"hogis-registration/internal/api/handler"
	"hogis-registration/pkg/jwt"
	"hogis-registration/pkg/notify"
)

// countingLimiter allows limit calls per key inside the window
type countingLimiter struct {
	mu   sync.Mutex
	hits map[string]int
}

func (l *countingLimiter) CheckRateLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hits == nil {
		l.hits = make(map[string]int)
	}
	l.hits[key]++
	return l.hits[key] <= limit, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.BodyLimitBytes = 1 << 20
	cfg.Auth = config.AuthConfig{JWTSecret: "test-secret-key-for-unit-testing-2025", TokenTTL: time.Hour}
	return cfg
}

func testHandlers(cfg *config.Config) *handler.Handler {
	return &handler.Handler{
		Auth:         handler.NewAuthHandler(nil, &cfg.Auth),
		Registration: handler.NewRegistrationHandler(nil),
		Admin:        handler.NewAdminHandler(nil),
		Export:       handler.NewExportHandler(nil),
		Notify:       handler.NewNotifyHandler(nil),
		Health:       handler.NewHealthHandler(nil),
	}
}

func newTestEngine(t *testing.T) (http.Handler, *jwt.Manager) {
	t.Helper()
	cfg := testConfig()
	mgr := jwt.NewManager(&cfg.Auth)
	return Setup(cfg, testHandlers(cfg), mgr, nil, zap.NewNop()), mgr
}

// newRelayEngine wires a limiter so the relay group's limits apply
func newRelayEngine(t *testing.T, limit int, secret string) http.Handler {
	t.Helper()
	cfg := testConfig()
	cfg.Mail.RelayRateLimit = limit
	cfg.Mail.RelayRateWindow = time.Minute
	cfg.Mail.RelaySecret = secret
	return setup(cfg, testHandlers(cfg), jwt.NewManager(&cfg.Auth), &countingLimiter{}, nil, zap.NewNop())
}

// relayPost sends a body the handler rejects before reaching the mail service
func relayPost(engine http.Handler, path, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(notify.RelaySecretHeader, secret)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicRoutes(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, path := range []string{"/health", "/metrics"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s: expected X-Request-ID header", path)
		}
	}
}

func TestRouter_AdminRoutesRequireToken(t *testing.T) {
	engine, _ := newTestEngine(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/admin/verify"},
		{http.MethodGet, "/api/v1/admin/registrations"},
		{http.MethodGet, "/api/v1/admin/registrations/reg-1"},
		{http.MethodPost, "/api/v1/admin/registrations/reg-1/accept"},
		{http.MethodPost, "/api/v1/admin/registrations/reg-1/reject"},
		{http.MethodGet, "/api/v1/admin/export"},
		{http.MethodPost, "/api/v1/admin/logout"},
	}
	for _, rt := range routes {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", rt.method, rt.path, w.Code)
		}
	}
}

func TestRouter_AdminVerifyWithCookie(t *testing.T) {
	engine, mgr := newTestEngine(t)
	token, _, err := mgr.GenerateToken("admin", jwt.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/verify", nil)
	req.AddCookie(&http.Cookie{Name: "admin-token", Value: token})
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRouter_RelayIsRateLimited(t *testing.T) {
	engine := newRelayEngine(t, 2, "")

	for i := 1; i <= 2; i++ {
		if w := relayPost(engine, "/api/v1/notify/confirmation", ""); w.Code != http.StatusBadRequest {
			t.Fatalf("request %d: expected 400 from the handler, got %d", i, w.Code)
		}
	}
	w := relayPost(engine, "/api/v1/notify/confirmation", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the limit, got %d", w.Code)
	}

	// limits are per route
	if w := relayPost(engine, "/api/v1/notify/status", ""); w.Code != http.StatusBadRequest {
		t.Errorf("status route has its own budget, got %d", w.Code)
	}
}

func TestRouter_RelaySecret(t *testing.T) {
	engine := newRelayEngine(t, 100, "relay-secret")

	tests := []struct {
		name   string
		secret string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "guess", http.StatusUnauthorized},
		{"matching", "relay-secret", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := relayPost(engine, "/api/v1/notify/status", tt.secret)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}
