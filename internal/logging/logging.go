// Package logging builds the process-wide slog handler
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/errors"
)

// Config selects the handler format and minimum level
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// ParseLevel maps debug/info/warn/error onto slog levels
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.InvalidArgumentf("unknown log level %q", level)
}

// New builds a logger for cfg
func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Output == nil {
		return nil, errors.InvalidArgument("log output is required")
	}

	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(cfg.Output, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(cfg.Output, opts)), nil
	}
	return nil, errors.InvalidArgumentf("unknown log format %q", cfg.Format)
}

// Setup builds the logger and installs it as the slog default
func Setup(cfg Config) (*slog.Logger, error) {
	logger, err := New(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
