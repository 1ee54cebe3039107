package llm

import (
	"fmt"
	"os"
	"time"
)

// Config selects the default provider and holds per-provider settings.
type Config struct {
	DefaultProvider string        `toml:"default_provider"`
	Bedrock         BedrockConfig `toml:"bedrock"`
	OpenAI          OpenAIConfig  `toml:"openai"`
	Azure           AzureConfig   `toml:"azure"`
}

// BedrockConfig holds Amazon Bedrock settings. Credentials come from the default AWS chain.
type BedrockConfig struct {
	Region string `toml:"region"`
}

// OpenAIConfig holds settings for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Timeout string `toml:"timeout"`
}

// AzureConfig holds Azure OpenAI settings. An empty APIKey selects Entra ID authentication.
type AzureConfig struct {
	Endpoint   string `toml:"endpoint"`
	Deployment string `toml:"deployment"`
	APIVersion string `toml:"api_version"`
	APIKey     string `toml:"api_key"`
	Timeout    string `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	DefaultProvider string
	BedrockRegion   string
	OpenAIBaseURL   string
	OpenAIAPIKey    string
	AzureEndpoint   string
	AzureDeployment string
	AzureAPIVersion string
	AzureAPIKey     string
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
	if overlay.DefaultProvider != "" {
		c.DefaultProvider = overlay.DefaultProvider
	}
	if overlay.Bedrock.Region != "" {
		c.Bedrock.Region = overlay.Bedrock.Region
	}
	c.OpenAI.Merge(&overlay.OpenAI)
	c.Azure.Merge(&overlay.Azure)
}

// Enabled reports whether an OpenAI key is configured.
func (c *OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *OpenAIConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Merge overwrites non-zero fields from overlay.
func (c *OpenAIConfig) Merge(overlay *OpenAIConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

// Enabled reports whether an Azure endpoint is configured.
func (c *AzureConfig) Enabled() bool {
	return c.Endpoint != ""
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *AzureConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Merge overwrites non-zero fields from overlay.
func (c *AzureConfig) Merge(overlay *AzureConfig) {
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.Deployment != "" {
		c.Deployment = overlay.Deployment
	}
	if overlay.APIVersion != "" {
		c.APIVersion = overlay.APIVersion
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.DefaultProvider == "" {
		c.DefaultProvider = ProviderBedrock
	}
	if c.Bedrock.Region == "" {
		c.Bedrock.Region = "us-east-1"
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.Timeout == "" {
		c.OpenAI.Timeout = "120s"
	}
	if c.Azure.APIVersion == "" {
		c.Azure.APIVersion = "2024-02-01"
	}
	if c.Azure.Timeout == "" {
		c.Azure.Timeout = "120s"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.DefaultProvider, &c.DefaultProvider)
	set(env.BedrockRegion, &c.Bedrock.Region)
	set(env.OpenAIBaseURL, &c.OpenAI.BaseURL)
	set(env.OpenAIAPIKey, &c.OpenAI.APIKey)
	set(env.AzureEndpoint, &c.Azure.Endpoint)
	set(env.AzureDeployment, &c.Azure.Deployment)
	set(env.AzureAPIVersion, &c.Azure.APIVersion)
	set(env.AzureAPIKey, &c.Azure.APIKey)
}

func (c *Config) validate() error {
	if err := ValidateProvider(c.DefaultProvider); err != nil {
		return fmt.Errorf("default_provider: %w", err)
	}
	if _, err := time.ParseDuration(c.OpenAI.Timeout); err != nil {
		return fmt.Errorf("invalid openai timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Azure.Timeout); err != nil {
		return fmt.Errorf("invalid azure timeout: %w", err)
	}
	if c.DefaultProvider == ProviderOpenAI && !c.OpenAI.Enabled() {
		return fmt.Errorf("openai api_key required when openai is the default provider")
	}
	if c.DefaultProvider == ProviderAzure && !c.Azure.Enabled() {
		return fmt.Errorf("azure endpoint required when azure is the default provider")
	}
	return nil
}

// ValidateProvider reports an error for names outside the supported providers.
// An empty name is valid and means the default provider.
func ValidateProvider(name string) error {
	switch name {
	case "", ProviderBedrock, ProviderOpenAI, ProviderAzure:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}
