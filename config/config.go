package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config application-wide configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Mail       MailConfig       `mapstructure:"mail"`
	Photo      PhotoConfig      `mapstructure:"photo"`
	Submission SubmissionConfig `mapstructure:"submission"`
	Triage     TriageConfig     `mapstructure:"triage"`
	Sheets     SheetsConfig     `mapstructure:"sheets"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	BaseURL        string     `mapstructure:"base_url"`
	BodyLimitBytes int64      `mapstructure:"body_limit_bytes"`
	CORS           CORSConfig `mapstructure:"cors"`
}

// CORSConfig cross-origin settings
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig database settings. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"` // sqlite only
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN builds the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig admin authentication settings
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	AdminUsername     string        `mapstructure:"admin_username"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"` // bcrypt
	Cookie            CookieConfig  `mapstructure:"cookie"`
}

// CookieConfig admin cookie settings
type CookieConfig struct {
	Name     string `mapstructure:"name"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
	Domain   string `mapstructure:"domain"`
}

// MailConfig notification delivery settings.
// Provider is one of "smtp", "sendgrid", "remote" or "log".
// RelaySecret, when set, must arrive in the X-Relay-Secret header on the
// /notify endpoints and is sent by the remote provider.
type MailConfig struct {
	Provider        string        `mapstructure:"provider"`
	SMTPHost        string        `mapstructure:"smtp_host"`
	SMTPPort        int           `mapstructure:"smtp_port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SendGridAPIKey  string        `mapstructure:"sendgrid_api_key"`
	RemoteBaseURL   string        `mapstructure:"remote_base_url"`
	From            string        `mapstructure:"from"`
	FromName        string        `mapstructure:"from_name"`
	RelaySecret     string        `mapstructure:"relay_secret"`
	RelayRateLimit  int           `mapstructure:"relay_rate_limit"`
	RelayRateWindow time.Duration `mapstructure:"relay_rate_window"`
}

// PhotoConfig passport photo encoding and storage settings
type PhotoConfig struct {
	MaxUploadBytes  int64  `mapstructure:"max_upload_bytes"`
	MaxDimension    int    `mapstructure:"max_dimension"`
	Quality         int    `mapstructure:"quality"`
	FallbackQuality int    `mapstructure:"fallback_quality"`
	SoftLimitBytes  int    `mapstructure:"soft_limit_bytes"`
	HardLimitBytes  int    `mapstructure:"hard_limit_bytes"`
	ChunkSize       int    `mapstructure:"chunk_size"`
	BlobBucket      string `mapstructure:"blob_bucket"`
	BlobCredentials string `mapstructure:"blob_credentials_file"`
}

// SubmissionConfig public registration rules and write policy
type SubmissionConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	BaseDelay     time.Duration `mapstructure:"base_delay"`
	MinAge        int           `mapstructure:"min_age"`
	MaxAge        int           `mapstructure:"max_age"`
	ConsentAge    int           `mapstructure:"consent_age"`
	MinMotivation int           `mapstructure:"min_motivation"`
	RateLimit     int           `mapstructure:"rate_limit"`
	RateWindow    time.Duration `mapstructure:"rate_window"`
}

// TriageConfig admin review settings
type TriageConfig struct {
	Reviewer string `mapstructure:"reviewer"`
}

// SheetsConfig accepted-participant roster sync
type SheetsConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	CredentialsFile string `mapstructure:"credentials_file"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	Sheet           string `mapstructure:"sheet"`
}

// LogConfig logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment.
// Precedence: environment > config file > defaults. A .env file, if present,
// is merged into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("HOGIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// no config file: defaults and environment only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// ── server ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.body_limit_bytes", 6<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	// ── database ──
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.path", "hogis.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "hogis")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Africa/Lagos")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	// ── redis ──
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// ── auth ──
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("auth.cookie.domain", "")
	v.SetDefault("auth.cookie.name", "admin-token")
	v.SetDefault("auth.cookie.secure", false)
	v.SetDefault("auth.cookie.same_site", "Strict")

	// ── mail ──
	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.smtp_host", "")
	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.sendgrid_api_key", "")
	v.SetDefault("mail.remote_base_url", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.from_name", "HOGIS Foundation")
	v.SetDefault("mail.relay_secret", "")
	v.SetDefault("mail.relay_rate_limit", 20)
	v.SetDefault("mail.relay_rate_window", "10m")

	// ── photo ──
	v.SetDefault("photo.max_upload_bytes", 5<<20)
	v.SetDefault("photo.max_dimension", 600)
	v.SetDefault("photo.quality", 60)
	v.SetDefault("photo.fallback_quality", 40)
	v.SetDefault("photo.soft_limit_bytes", 500<<10)
	v.SetDefault("photo.hard_limit_bytes", 650<<10)
	v.SetDefault("photo.chunk_size", 800000)
	v.SetDefault("photo.blob_bucket", "")
	v.SetDefault("photo.blob_credentials_file", "")

	// ── submission ──
	v.SetDefault("submission.max_attempts", 3)
	v.SetDefault("submission.base_delay", "500ms")
	v.SetDefault("submission.min_age", 10)
	v.SetDefault("submission.max_age", 19)
	v.SetDefault("submission.consent_age", 18)
	v.SetDefault("submission.min_motivation", 20)
	v.SetDefault("submission.rate_limit", 10)
	v.SetDefault("submission.rate_window", "10m")

	// ── triage ──
	v.SetDefault("triage.reviewer", "Admin")

	// ── sheets ──
	v.SetDefault("sheets.enabled", false)
	v.SetDefault("sheets.sheet", "Accepted")
	v.SetDefault("sheets.credentials_file", "")
	v.SetDefault("sheets.spreadsheet_id", "")

	// ── log ──
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks the settings the process cannot run without
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("invalid config: auth.jwt_secret must not be empty")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("invalid config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid config: db.driver %q is not supported", c.Database.Driver)
	}
	if c.Photo.ChunkSize < 1 {
		return fmt.Errorf("invalid config: photo.chunk_size must be positive")
	}
	if c.Photo.Quality < 1 || c.Photo.Quality > 100 || c.Photo.FallbackQuality < 1 || c.Photo.FallbackQuality > 100 {
		return fmt.Errorf("invalid config: photo quality must be between 1 and 100")
	}
	if c.Photo.SoftLimitBytes > c.Photo.HardLimitBytes {
		return fmt.Errorf("invalid config: photo.soft_limit_bytes exceeds photo.hard_limit_bytes")
	}
	if c.Submission.MaxAttempts < 1 {
		return fmt.Errorf("invalid config: submission.max_attempts must be at least 1")
	}
	if c.Sheets.Enabled && c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("invalid config: sheets.spreadsheet_id is required when sheets.enabled")
	}
	return nil
}
