// Package pagination turns list query parameters into bounded page windows.
package pagination

import (
	"fmt"
	"os"
	"strconv"
)

// Config bounds page sizes for every list endpoint.
type Config struct {
	DefaultPageSize int `toml:"default_page_size" json:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size" json:"max_page_size"`
}

// ConfigEnv names the environment variables that override Config.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
}

// Clamp maps a requested size onto the configured bounds. Sizes below 1 get
// the default.
func (c Config) Clamp(size int) int {
	if size < 1 {
		return c.DefaultPageSize
	}
	return min(size, c.MaxPageSize)
}

// Finalize fills defaults of 20 and 100, applies env overrides, then checks
// that the default fits under the maximum.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}

	if env != nil {
		envPositive(&c.DefaultPageSize, env.DefaultPageSize)
		envPositive(&c.MaxPageSize, env.MaxPageSize)
	}

	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default_page_size (%d) exceeds max_page_size (%d)", c.DefaultPageSize, c.MaxPageSize)
	}
	return nil
}

// Merge takes every positive field of overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultPageSize > 0 {
		c.DefaultPageSize = overlay.DefaultPageSize
	}
	if overlay.MaxPageSize > 0 {
		c.MaxPageSize = overlay.MaxPageSize
	}
}

// envPositive ignores unset, unparseable and non-positive values.
func envPositive(dst *int, name string) {
	if name == "" {
		return
	}
	if n, err := strconv.Atoi(os.Getenv(name)); err == nil && n > 0 {
		*dst = n
	}
}
