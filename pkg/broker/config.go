package broker

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds Redis connection parameters.
type Config struct {
	Addr         string `toml:"addr"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"pool_size"`
	DialTimeout  string `toml:"dial_timeout"`
	ReadTimeout  string `toml:"read_timeout"`
	WriteTimeout string `toml:"write_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Addr     string
	Password string
	DB       string
	PoolSize string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Addr != "" {
		c.Addr = overlay.Addr
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.DB != 0 {
		c.DB = overlay.DB
	}
	if overlay.PoolSize != 0 {
		c.PoolSize = overlay.PoolSize
	}
	if overlay.DialTimeout != "" {
		c.DialTimeout = overlay.DialTimeout
	}
	if overlay.ReadTimeout != "" {
		c.ReadTimeout = overlay.ReadTimeout
	}
	if overlay.WriteTimeout != "" {
		c.WriteTimeout = overlay.WriteTimeout
	}
}

// DialTimeoutDuration returns DialTimeout as a time.Duration.
func (c *Config) DialTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.DialTimeout)
	return d
}

// ReadTimeoutDuration returns ReadTimeout as a time.Duration.
func (c *Config) ReadTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	return d
}

// WriteTimeoutDuration returns WriteTimeout as a time.Duration.
func (c *Config) WriteTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	return d
}

func (c *Config) loadDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.DialTimeout == "" {
		c.DialTimeout = "5s"
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "3s"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "3s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Addr != "" {
		if v := os.Getenv(env.Addr); v != "" {
			c.Addr = v
		}
	}
	if env.Password != "" {
		if v := os.Getenv(env.Password); v != "" {
			c.Password = v
		}
	}
	if env.DB != "" {
		if v := os.Getenv(env.DB); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.DB = n
			}
		}
	}
	if env.PoolSize != "" {
		if v := os.Getenv(env.PoolSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.PoolSize = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr required")
	}
	if c.DB < 0 {
		return fmt.Errorf("db must be non-negative")
	}
	for name, v := range map[string]string{
		"dial_timeout":  c.DialTimeout,
		"read_timeout":  c.ReadTimeout,
		"write_timeout": c.WriteTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}
