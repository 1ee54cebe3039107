package database

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds PostgreSQL connection and pool settings.
type Config struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
	ApplicationName string `toml:"application_name"`
}

// Env names the environment variables that override Config. Empty names
// are skipped.
type Env struct {
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    string
	MaxIdleConns    string
	ConnMaxLifetime string
	ConnTimeout     string
	ApplicationName string
}

func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

func (c *Config) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// Dsn renders a postgres:// URL with credentials escaped.
func (c *Config) Dsn() string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("application_name", c.ApplicationName)

	user := url.User(c.User)
	if c.Password != "" {
		user = url.UserPassword(c.User, c.Password)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Finalize fills defaults, applies env overrides, then validates.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge takes every non-zero field of overlay.
func (c *Config) Merge(o *Config) {
	mergeString(&c.Host, o.Host)
	mergeInt(&c.Port, o.Port)
	mergeString(&c.Name, o.Name)
	mergeString(&c.User, o.User)
	mergeString(&c.Password, o.Password)
	mergeString(&c.SSLMode, o.SSLMode)
	mergeInt(&c.MaxOpenConns, o.MaxOpenConns)
	mergeInt(&c.MaxIdleConns, o.MaxIdleConns)
	mergeString(&c.ConnMaxLifetime, o.ConnMaxLifetime)
	mergeString(&c.ConnTimeout, o.ConnTimeout)
	mergeString(&c.ApplicationName, o.ApplicationName)
}

func (c *Config) loadDefaults() {
	c.Host = pick(c.Host, "localhost")
	c.Port = pick(c.Port, 5432)
	c.SSLMode = pick(c.SSLMode, "disable")
	c.MaxOpenConns = pick(c.MaxOpenConns, 25)
	c.MaxIdleConns = pick(c.MaxIdleConns, 5)
	c.ConnMaxLifetime = pick(c.ConnMaxLifetime, "15m")
	c.ConnTimeout = pick(c.ConnTimeout, "5s")
	c.ApplicationName = pick(c.ApplicationName, "underwriter")
}

func (c *Config) loadEnv(env *Env) {
	envString(&c.Host, env.Host)
	envInt(&c.Port, env.Port)
	envString(&c.Name, env.Name)
	envString(&c.User, env.User)
	envString(&c.Password, env.Password)
	envString(&c.SSLMode, env.SSLMode)
	envInt(&c.MaxOpenConns, env.MaxOpenConns)
	envInt(&c.MaxIdleConns, env.MaxIdleConns)
	envString(&c.ConnMaxLifetime, env.ConnMaxLifetime)
	envString(&c.ConnTimeout, env.ConnTimeout)
	envString(&c.ApplicationName, env.ApplicationName)
}

func (c *Config) validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("name required")
	case c.User == "":
		return fmt.Errorf("user required")
	case c.MaxIdleConns > c.MaxOpenConns:
		return fmt.Errorf("max_idle_conns (%d) exceeds max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid conn_max_lifetime: %w", err)
	}
	if _, err := time.ParseDuration(c.ConnTimeout); err != nil {
		return fmt.Errorf("invalid conn_timeout: %w", err)
	}
	return nil
}

// pick returns def when v is the zero value.
func pick[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func envString(dst *string, name string) {
	if name == "" {
		return
	}
	mergeString(dst, os.Getenv(name))
}

func envInt(dst *int, name string) {
	if name == "" {
		return
	}
	if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
		*dst = n
	}
}
