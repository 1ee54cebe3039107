package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	EnvLogLevel  = "UNDERWRITER_LOG_LEVEL"
	EnvLogFormat = "UNDERWRITER_LOG_FORMAT"
)

// LoggingConfig selects the slog handler. Level is debug, info, warn or
// error; Format is text or json.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func (c *LoggingConfig) Finalize() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Format = v
	}
	c.Level = strings.ToLower(pickString(c.Level, "info"))
	c.Format = strings.ToLower(pickString(c.Format, "text"))

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("invalid level %q", c.Level)
	}
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("invalid format %q", c.Format)
	}
	return nil
}

func (c *LoggingConfig) Merge(overlay *LoggingConfig) {
	c.Level = pickString(overlay.Level, c.Level)
	c.Format = pickString(overlay.Format, c.Format)
}

// NewLogger builds the configured handler over w.
func (c *LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	var lvl slog.Level
	_ = lvl.UnmarshalText([]byte(c.Level))
	opts := &slog.HandlerOptions{Level: lvl}

	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func pickString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
