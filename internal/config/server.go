package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "UNDERWRITER_SERVER_HOST"
	EnvServerPort              = "UNDERWRITER_SERVER_PORT"
	EnvServerReadHeaderTimeout = "UNDERWRITER_SERVER_READ_HEADER_TIMEOUT"
	EnvServerReadTimeout       = "UNDERWRITER_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout      = "UNDERWRITER_SERVER_WRITE_TIMEOUT"
	EnvServerShutdownTimeout   = "UNDERWRITER_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP listener settings. Durations are Go duration
// strings. WriteTimeout bounds synchronous decision runs; event streams
// clear it per request.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	ReadTimeout       string `toml:"read_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
}

func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return mustDuration(c.ReadHeaderTimeout)
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration { return mustDuration(c.ReadTimeout) }

func (c *ServerConfig) WriteTimeoutDuration() time.Duration { return mustDuration(c.WriteTimeout) }

func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout)
}

// Finalize applies defaults, then UNDERWRITER_SERVER_* overrides, then validates.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for _, f := range c.durations(overlay) {
		if *f.src != "" {
			*f.dst = *f.src
		}
	}
}

type durationField struct {
	name string
	env  string
	def  string
	dst  *string
	src  *string
}

// durations pairs each duration field of c with its overlay counterpart.
// overlay may be nil.
func (c *ServerConfig) durations(overlay *ServerConfig) []durationField {
	if overlay == nil {
		overlay = &ServerConfig{}
	}
	return []durationField{
		{"read_header_timeout", EnvServerReadHeaderTimeout, "10s", &c.ReadHeaderTimeout, &overlay.ReadHeaderTimeout},
		{"read_timeout", EnvServerReadTimeout, "1m", &c.ReadTimeout, &overlay.ReadTimeout},
		{"write_timeout", EnvServerWriteTimeout, "15m", &c.WriteTimeout, &overlay.WriteTimeout},
		{"shutdown_timeout", EnvServerShutdownTimeout, "30s", &c.ShutdownTimeout, &overlay.ShutdownTimeout},
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	for _, f := range c.durations(nil) {
		if *f.dst == "" {
			*f.dst = f.def
		}
	}
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	for _, f := range c.durations(nil) {
		if v := os.Getenv(f.env); v != "" {
			*f.dst = v
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, f := range c.durations(nil) {
		if _, err := time.ParseDuration(*f.dst); err != nil {
			return fmt.Errorf("invalid %s: %w", f.name, err)
		}
	}
	return nil
}

// mustDuration is only called on validated fields.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
