package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/mail"
	"github.com/aussiebroadwan/smartlegal/internal/auth/reset"
	"github.com/aussiebroadwan/smartlegal/internal/auth/service"
	"github.com/aussiebroadwan/smartlegal/pkg/cryptox"
	"github.com/aussiebroadwan/smartlegal/pkg/httpx"
	"github.com/aussiebroadwan/smartlegal/pkg/jwtx"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the optional YAML file whose keys mirror the
// environment variables below. The environment wins over the file.
const ConfigFileEnv = "SMARTLEGAL_CONFIG"

type Config struct {
	JWTSecret   string        // Required outside dev: HMAC secret, at least 32 bytes
	Issuer      string        // Token issuer (default: SmartLegalApi)
	AccessTTL   time.Duration // Access token lifetime (default: 24h)
	RefreshTTL  time.Duration // Refresh token lifetime (default: 168h)
	HeaderName  string        // Header carrying the bearer token (default: Authorization)
	TokenPrefix string        // Prefix before the token (default: "Bearer ")

	ResetTokenTTL    time.Duration // Password reset token lifetime (default: 1h)
	ResetStore       string        // memory or redis (default: memory)
	Redis            reset.RedisConfig
	ExposeResetToken bool // Echo reset tokens in the API response (dev only)
	SMTP             mail.SMTPConfig

	DBDriver     string // sqlite or postgres (default: sqlite)
	DatabaseFile string // SQLite file (default: ./smartlegal.db)
	DatabaseURL  string // Postgres DSN
	PepperFile   string // Password hashing pepper (default: ./pepper)

	AuditRetention time.Duration // default: 90 days
	AuditBuffer    int           // default: 256

	Env                  string        // dev, staging, prod (default: dev)
	LogLevel             string        // debug, info, warn, error (default: info)
	LogFormat            string        // json, text (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // default: 10s
	HousekeepingInterval time.Duration // default: 1h
	MetricsEnabled       bool          // Serve /metrics (default: true)

	RateLimits httpx.RateLimits // RATELIMIT_{STRICT,MODERATE,LENIENT,PUBLIC}_{REQUESTS,WINDOW_SEC,BURST}
}

// LoadConfig reads .env (without overriding the process environment), then
// the optional YAML file, then the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	src := source{}
	if path := os.Getenv(ConfigFileEnv); path != "" {
		file, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		src.file = file
	}

	cfg := Config{
		JWTSecret:   src.getString("JWT_SECRET", ""),
		Issuer:      src.getString("JWT_ISSUER", "SmartLegalApi"),
		AccessTTL:   src.getDuration("JWT_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:  src.getDuration("JWT_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		HeaderName:  src.getString("JWT_HEADER_NAME", httpx.DefaultAuthHeader),
		TokenPrefix: src.getString("JWT_TOKEN_PREFIX", httpx.DefaultTokenPrefix),

		ResetTokenTTL: src.getDuration("RESET_TOKEN_TTL", reset.DefaultTTL),
		ResetStore:    strings.ToLower(src.getString("RESET_STORE", "memory")),
		Redis: reset.RedisConfig{
			Addr:     src.getString("REDIS_ADDR", "localhost:6379"),
			Password: src.getString("REDIS_PASSWORD", ""),
			DB:       src.getInt("REDIS_DB", 0),
		},
		ExposeResetToken: src.getBool("EXPOSE_RESET_TOKEN", false),
		SMTP: mail.SMTPConfig{
			Host:     src.getString("SMTP_HOST", ""),
			Port:     src.getInt("SMTP_PORT", 587),
			Username: src.getString("SMTP_USERNAME", ""),
			Password: src.getString("SMTP_PASSWORD", ""),
			From:     src.getString("SMTP_FROM", ""),
			TLSMode:  strings.ToLower(src.getString("SMTP_TLS_MODE", "starttls")),
			ResetURL: src.getString("SMTP_RESET_URL", ""),
		},

		DBDriver:     strings.ToLower(src.getString("DB_DRIVER", "sqlite")),
		DatabaseFile: src.getString("DATABASE_FILE", "smartlegal.db"),
		DatabaseURL:  src.getString("DATABASE_URL", ""),
		PepperFile:   src.getString("PEPPER_FILE", "pepper"),

		AuditRetention: src.getDuration("AUDIT_RETENTION", service.DefaultAuditRetention),
		AuditBuffer:    src.getInt("AUDIT_BUFFER", service.DefaultAuditBuffer),

		Env:                  src.getString("ENV", "dev"),
		LogLevel:             src.getString("LOG_LEVEL", "info"),
		LogFormat:            src.getString("LOG_FORMAT", "json"),
		Port:                 src.getInt("PORT", 8080),
		ShutdownGracePeriod:  src.getDuration("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: src.getDuration("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		MetricsEnabled:       src.getBool("METRICS_ENABLED", true),

		RateLimits: httpx.LoadRateLimits(src.lookup),
	}

	return cfg, cfg.Validate()
}

func (c Config) IsDev() bool { return c.Env == "dev" }

// Validate rejects configurations the service cannot run with. A missing
// secret is accepted in dev; see EnsureSecret.
func (c Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" && !c.IsDev() {
		errs = append(errs, errors.New("JWT_SECRET is required outside dev"))
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < jwtx.MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}

	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}

	switch c.ResetStore {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis reset store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown RESET_STORE %q", c.ResetStore))
	}

	if c.SMTP.Host != "" && c.SMTP.From == "" {
		errs = append(errs, errors.New("SMTP_FROM is required when SMTP_HOST is set"))
	}
	if c.SMTP.Host == "" && !c.IsDev() && !c.ExposeResetToken {
		errs = append(errs, errors.New("SMTP_HOST is required outside dev"))
	}

	return errors.Join(errs...)
}

// EnsureSecret fills in a random secret for dev runs without one. It
// reports whether it did; tokens then die with the process.
func (c *Config) EnsureSecret() (bool, error) {
	if c.JWTSecret != "" {
		return false, nil
	}
	if !c.IsDev() {
		return false, errors.New("JWT_SECRET is required outside dev")
	}

	b, err := cryptox.GenerateSecret()
	if err != nil {
		return false, err
	}
	c.JWTSecret = string(b)
	return true, nil
}

func readConfigFile(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}

// source resolves a key from the environment, then the config file.
type source struct {
	file map[string]string
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

func (s source) getString(key, defaultValue string) string {
	if value := s.lookup(key); value != "" {
		return value
	}
	return defaultValue
}

func (s source) getInt(key string, defaultValue int) int {
	value := s.lookup(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func (s source) getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(s.lookup(key)); err == nil {
		return b
	}
	return defaultValue
}

func (s source) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := s.lookup(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
