package slogx

import (
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

type Config struct {
	Service string
	Version string
	Env     string // dev, staging, prod
	Level   string // debug, info, warn, error
	Format  string // json, text

	// Output defaults to stdout.
	Output io.Writer
}

// Redacted replaces the value of attributes whose key names a credential.
const Redacted = "[REDACTED]"

// secretKeys are attribute keys never written in clear outside dev. Reset
// tokens are only printed by the development notifier.
var secretKeys = []string{
	"password", "senha", "secret", "pepper",
	"authorization", "access_token", "refresh_token", "token",
}

// New builds the process logger and installs it as the slog default.
// Outside dev, credential attributes are redacted.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	dev := cfg.Env == "dev"
	opts := &slog.HandlerOptions{
		AddSource: dev,
		Level:     ParseLevel(cfg.Level),
	}
	if !dev {
		opts.ReplaceAttr = redact
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)

	slog.SetDefault(logger)
	return logger
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if slices.Contains(secretKeys, strings.ToLower(a.Key)) {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// ParseLevel maps a level name onto slog.Level, defaulting to info.
func ParseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
