package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/underwriter/pkg/llm"
)

const (
	modelHaiku  = "anthropic.claude-3-haiku-20240307-v1:0"
	modelSonnet = "anthropic.claude-3-sonnet-20240229-v1:0"
)

// StageConfig selects the model and invocation policy for one pipeline stage.
// A zero Timeout leaves the stage unbounded. Retries apply only to
// retryable invocation failures, with RetryBackoff doubling per attempt.
type StageConfig struct {
	Provider     string   `toml:"provider"`
	Model        string   `toml:"model"`
	MaxTokens    int      `toml:"max_tokens"`
	Temperature  *float64 `toml:"temperature"`
	Timeout      string   `toml:"timeout"`
	Retries      int      `toml:"retries"`
	RetryBackoff string   `toml:"retry_backoff"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *StageConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// RetryBackoffDuration returns RetryBackoff as a time.Duration.
func (c *StageConfig) RetryBackoffDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryBackoff)
	return d
}

// TemperatureValue returns the configured temperature, or zero if unset.
func (c *StageConfig) TemperatureValue() float64 {
	if c.Temperature == nil {
		return 0
	}
	return *c.Temperature
}

// Merge overwrites non-zero fields from overlay.
func (c *StageConfig) Merge(overlay *StageConfig) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
	if overlay.Temperature != nil {
		t := *overlay.Temperature
		c.Temperature = &t
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.Retries != 0 {
		c.Retries = overlay.Retries
	}
	if overlay.RetryBackoff != "" {
		c.RetryBackoff = overlay.RetryBackoff
	}
}

func (c *StageConfig) finalize(prefix string, defaults StageConfig) error {
	c.loadDefaults(defaults)
	c.loadEnv(prefix)
	return c.validate()
}

func (c *StageConfig) loadDefaults(d StageConfig) {
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.Temperature == nil {
		c.Temperature = d.Temperature
	}
	if c.Timeout == "" {
		c.Timeout = "0s"
	}
	if c.RetryBackoff == "" {
		c.RetryBackoff = "2s"
	}
}

func (c *StageConfig) loadEnv(prefix string) {
	if v := os.Getenv(prefix + "_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(prefix + "_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv(prefix + "_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxTokens = n
		}
	}
	if v := os.Getenv(prefix + "_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = &f
		}
	}
	if v := os.Getenv(prefix + "_TIMEOUT"); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(prefix + "_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retries = n
		}
	}
	if v := os.Getenv(prefix + "_RETRY_BACKOFF"); v != "" {
		c.RetryBackoff = v
	}
}

func (c *StageConfig) validate() error {
	if err := llm.ValidateProvider(c.Provider); err != nil {
		return err
	}
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive")
	}
	if t := c.TemperatureValue(); t < 0 || t > 2 {
		return fmt.Errorf("temperature out of range: %v", t)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be non-negative")
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil || d < 0 {
		return fmt.Errorf("invalid timeout: %q", c.Timeout)
	}
	if d, err := time.ParseDuration(c.RetryBackoff); err != nil || d < 0 {
		return fmt.Errorf("invalid retry_backoff: %q", c.RetryBackoff)
	}
	return nil
}

// PipelineConfig holds per-stage model settings and run-level limits.
type PipelineConfig struct {
	DataCollector        StageConfig `toml:"data_collector"`
	RiskAssessor         StageConfig `toml:"risk_assessor"`
	DecisionMaker        StageConfig `toml:"decision_maker"`
	Auditor              StageConfig `toml:"auditor"`
	MaxConcurrentRuns    int         `toml:"max_concurrent_runs"`
	LockTTL              string      `toml:"lock_ttl"`
	TerminalWriteTimeout string      `toml:"terminal_write_timeout"`
}

// LockTTLDuration returns LockTTL as a time.Duration.
func (c *PipelineConfig) LockTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.LockTTL)
	return d
}

// TerminalWriteTimeoutDuration returns TerminalWriteTimeout as a time.Duration.
func (c *PipelineConfig) TerminalWriteTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.TerminalWriteTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation
// for the pipeline and each stage.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	stages := []struct {
		name     string
		cfg      *StageConfig
		defaults StageConfig
	}{
		{"data_collector", &c.DataCollector, StageConfig{Model: modelHaiku, MaxTokens: 1000, Temperature: temp(0.3)}},
		{"risk_assessor", &c.RiskAssessor, StageConfig{Model: modelSonnet, MaxTokens: 1500, Temperature: temp(0.3)}},
		{"decision_maker", &c.DecisionMaker, StageConfig{Model: modelSonnet, MaxTokens: 2000, Temperature: temp(0.2)}},
		{"auditor", &c.Auditor, StageConfig{Model: modelSonnet, MaxTokens: 2000, Temperature: temp(0.2)}},
	}

	for _, s := range stages {
		prefix := "UNDERWRITER_" + strings.ToUpper(s.name)
		if err := s.cfg.finalize(prefix, s.defaults); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	return c.validate()
}

// Merge overwrites non-zero fields from overlay across stages.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	c.DataCollector.Merge(&overlay.DataCollector)
	c.RiskAssessor.Merge(&overlay.RiskAssessor)
	c.DecisionMaker.Merge(&overlay.DecisionMaker)
	c.Auditor.Merge(&overlay.Auditor)

	if overlay.MaxConcurrentRuns != 0 {
		c.MaxConcurrentRuns = overlay.MaxConcurrentRuns
	}
	if overlay.LockTTL != "" {
		c.LockTTL = overlay.LockTTL
	}
	if overlay.TerminalWriteTimeout != "" {
		c.TerminalWriteTimeout = overlay.TerminalWriteTimeout
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.MaxConcurrentRuns == 0 {
		c.MaxConcurrentRuns = 4
	}
	if c.LockTTL == "" {
		c.LockTTL = "15m"
	}
	if c.TerminalWriteTimeout == "" {
		c.TerminalWriteTimeout = "10s"
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv("UNDERWRITER_PIPELINE_MAX_CONCURRENT_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrentRuns = n
		}
	}
	if v := os.Getenv("UNDERWRITER_PIPELINE_LOCK_TTL"); v != "" {
		c.LockTTL = v
	}
	if v := os.Getenv("UNDERWRITER_PIPELINE_TERMINAL_WRITE_TIMEOUT"); v != "" {
		c.TerminalWriteTimeout = v
	}
}

func (c *PipelineConfig) validate() error {
	if c.MaxConcurrentRuns < 1 {
		return fmt.Errorf("max_concurrent_runs must be positive")
	}
	if d, err := time.ParseDuration(c.LockTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid lock_ttl: %q", c.LockTTL)
	}
	if d, err := time.ParseDuration(c.TerminalWriteTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid terminal_write_timeout: %q", c.TerminalWriteTimeout)
	}
	return nil
}

func temp(v float64) *float64 {
	return &v
}
