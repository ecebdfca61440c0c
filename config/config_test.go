package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-key-for-unit-testing-2025"

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("HOGIS_AUTH_JWT_SECRET", testSecret)
	t.Setenv("HOGIS_DB_DRIVER", "sqlite")
	t.Setenv("HOGIS_SUBMISSION_MAX_ATTEMPTS", "5")
	t.Setenv("HOGIS_MAIL_RELAY_SECRET", "relay-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for an explicit missing file, got %+v", cfg)
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Auth.JWTSecret != testSecret {
		t.Errorf("secret not read from env")
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected sqlite driver, got %s", cfg.Database.Driver)
	}
	if cfg.Submission.MaxAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", cfg.Submission.MaxAttempts)
	}
	if cfg.Mail.RelaySecret != "relay-secret" || cfg.Mail.RelayRateLimit != 20 || cfg.Mail.RelayRateWindow != 10*time.Minute {
		t.Errorf("unexpected relay settings %q %d %s", cfg.Mail.RelaySecret, cfg.Mail.RelayRateLimit, cfg.Mail.RelayRateWindow)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Photo.ChunkSize != 800000 || cfg.Photo.MaxUploadBytes != 5<<20 {
		t.Errorf("unexpected photo defaults %+v", cfg.Photo)
	}
	if cfg.Submission.BaseDelay != 500*time.Millisecond || cfg.Submission.RateWindow != 10*time.Minute {
		t.Errorf("unexpected durations %s %s", cfg.Submission.BaseDelay, cfg.Submission.RateWindow)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour || cfg.Auth.Cookie.Name != "admin-token" {
		t.Errorf("unexpected auth defaults %+v", cfg.Auth)
	}
	if cfg.Triage.Reviewer != "Admin" {
		t.Errorf("unexpected reviewer %s", cfg.Triage.Reviewer)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
auth:
  jwt_secret: "` + testSecret + `"
db:
  driver: sqlite
  path: ./test.db
photo:
  chunk_size: 1000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOGIS_SERVER_PORT", "9191")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("env should override file, got port %d", cfg.Server.Port)
	}
	if cfg.Photo.ChunkSize != 1000 || cfg.Database.Path != "./test.db" {
		t.Errorf("file values not applied: %+v %+v", cfg.Photo, cfg.Database)
	}
}

func validConfig() Config {
	return Config{
		Server:     ServerConfig{Port: 8080},
		Database:   DatabaseConfig{Driver: "postgres"},
		Auth:       AuthConfig{JWTSecret: testSecret},
		Photo:      PhotoConfig{ChunkSize: 800000, Quality: 60, FallbackQuality: 40, SoftLimitBytes: 1, HardLimitBytes: 2},
		Submission: SubmissionConfig{MaxAttempts: 3},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no secret", func(c *Config) { c.Auth.JWTSecret = "" }, "jwt_secret must not be empty"},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "at least 16"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "db.driver"},
		{"zero chunk", func(c *Config) { c.Photo.ChunkSize = 0 }, "chunk_size"},
		{"bad quality", func(c *Config) { c.Photo.Quality = 101 }, "quality"},
		{"limits inverted", func(c *Config) { c.Photo.SoftLimitBytes = 3 }, "soft_limit_bytes"},
		{"no attempts", func(c *Config) { c.Submission.MaxAttempts = 0 }, "max_attempts"},
		{"sheets without id", func(c *Config) { c.Sheets.Enabled = true }, "spreadsheet_id"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "hogis", SSLMode: "disable", Timezone: "Africa/Lagos"}
	want := "host=db port=5432 user=u password=p dbname=hogis sslmode=disable TimeZone=Africa/Lagos"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
