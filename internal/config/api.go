package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/underwriter/pkg/middleware"
	"github.com/JaimeStill/underwriter/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "UNDERWRITER_CORS_ENABLED",
	Origins:          "UNDERWRITER_CORS_ORIGINS",
	AllowedMethods:   "UNDERWRITER_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "UNDERWRITER_CORS_ALLOWED_HEADERS",
	AllowCredentials: "UNDERWRITER_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "UNDERWRITER_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "UNDERWRITER_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "UNDERWRITER_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, and pagination settings.
type APIConfig struct {
	BasePath   string                `toml:"base_path"`
	MaxBatch   int                   `toml:"max_batch"`
	CORS       middleware.CORSConfig `toml:"cors"`
	Pagination pagination.Config     `toml:"pagination"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if c.MaxBatch < 1 {
		return fmt.Errorf("max_batch must be positive")
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBatch != 0 {
		c.MaxBatch = overlay.MaxBatch
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBatch == 0 {
		c.MaxBatch = 50
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("UNDERWRITER_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("UNDERWRITER_API_MAX_BATCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxBatch = n
		}
	}
}
