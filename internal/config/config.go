// Package config loads service configuration from TOML files and
// UNDERWRITER_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/underwriter/pkg/broker"
	"github.com/JaimeStill/underwriter/pkg/database"
	"github.com/JaimeStill/underwriter/pkg/llm"
	"github.com/JaimeStill/underwriter/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvUnderwriterEnv             = "UNDERWRITER_ENV"
	EnvUnderwriterShutdownTimeout = "UNDERWRITER_SHUTDOWN_TIMEOUT"
	EnvUnderwriterVersion         = "UNDERWRITER_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "UNDERWRITER_DB_HOST",
	Port:            "UNDERWRITER_DB_PORT",
	Name:            "UNDERWRITER_DB_NAME",
	User:            "UNDERWRITER_DB_USER",
	Password:        "UNDERWRITER_DB_PASSWORD",
	SSLMode:         "UNDERWRITER_DB_SSL_MODE",
	MaxOpenConns:    "UNDERWRITER_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "UNDERWRITER_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "UNDERWRITER_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "UNDERWRITER_DB_CONN_TIMEOUT",
	ApplicationName: "UNDERWRITER_DB_APPLICATION_NAME",
}

var storageEnv = &storage.Env{
	Enabled:          "UNDERWRITER_STORAGE_ENABLED",
	ContainerName:    "UNDERWRITER_STORAGE_CONTAINER_NAME",
	ConnectionString: "UNDERWRITER_STORAGE_CONNECTION_STRING",
	AccountURL:       "UNDERWRITER_STORAGE_ACCOUNT_URL",
	Prefix:           "UNDERWRITER_STORAGE_PREFIX",
}

var brokerEnv = &broker.Env{
	Addr:     "UNDERWRITER_REDIS_ADDR",
	Password: "UNDERWRITER_REDIS_PASSWORD",
	DB:       "UNDERWRITER_REDIS_DB",
	PoolSize: "UNDERWRITER_REDIS_POOL_SIZE",
}

var llmEnv = &llm.Env{
	DefaultProvider: "UNDERWRITER_LLM_PROVIDER",
	BedrockRegion:   "UNDERWRITER_AWS_REGION",
	OpenAIBaseURL:   "UNDERWRITER_OPENAI_BASE_URL",
	OpenAIAPIKey:    "UNDERWRITER_OPENAI_API_KEY",
	AzureEndpoint:   "UNDERWRITER_AZURE_OPENAI_ENDPOINT",
	AzureDeployment: "UNDERWRITER_AZURE_OPENAI_DEPLOYMENT",
	AzureAPIVersion: "UNDERWRITER_AZURE_OPENAI_API_VERSION",
	AzureAPIKey:     "UNDERWRITER_AZURE_OPENAI_API_KEY",
}

// Config is the root configuration for the underwriter service.
type Config struct {
	Logging         LoggingConfig   `toml:"logging"`
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	Broker          broker.Config   `toml:"broker"`
	LLM             llm.Config      `toml:"llm"`
	Pipeline        PipelineConfig  `toml:"pipeline"`
	API             APIConfig       `toml:"api"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the UNDERWRITER_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvUnderwriterEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFrom(BaseConfigFile)
}

// LoadFrom is Load with an explicit base file path. The overlay is resolved
// relative to the same directory.
func LoadFrom(base string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(base); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	c.ShutdownTimeout = pickString(overlay.ShutdownTimeout, c.ShutdownTimeout)
	c.Version = pickString(overlay.Version, c.Version)
	c.Logging.Merge(&overlay.Logging)
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Broker.Merge(&overlay.Broker)
	c.LLM.Merge(&overlay.LLM)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"logging", c.Logging.Finalize},
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"broker", func() error { return c.Broker.Finalize(brokerEnv) }},
		{"llm", func() error { return c.LLM.Finalize(llmEnv) }},
		{"pipeline", c.Pipeline.Finalize},
		{"api", c.API.Finalize},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	c.ShutdownTimeout = pickString(c.ShutdownTimeout, "30s")
	c.Version = pickString(c.Version, "0.1.0")
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvUnderwriterShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvUnderwriterVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(base string) string {
	env := os.Getenv(EnvUnderwriterEnv)
	if env == "" {
		return ""
	}

	path := fmt.Sprintf(OverlayConfigPattern, env)
	if dir := filepath.Dir(base); dir != "." {
		path = filepath.Join(dir, path)
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
