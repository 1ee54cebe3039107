package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/JaimeStill/go-agents/pkg/agent"
	"github.com/JaimeStill/go-agents/pkg/client"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// go-agents serves OpenAI-compatible endpoints through its ollama provider.
const (
	agentsOpenAI = "ollama"
	agentsAzure  = "azure"
)

// chat issues single-prompt chat completions through a go-agents agent.
type chat struct {
	provider string
	timeout  time.Duration
}

// agentConfig layers the provider settings over go-agents defaults.
// Client retries are disabled; the caller owns retry policy.
func (c *chat) agentConfig(provider, baseURL, model string, options map[string]any) *gaconfig.AgentConfig {
	cfg := gaconfig.DefaultAgentConfig()
	cfg.Merge(&gaconfig.AgentConfig{
		Name: "underwriter-" + c.provider,
		Provider: &gaconfig.ProviderConfig{
			Name:    provider,
			BaseURL: baseURL,
			Options: options,
		},
		Model: &gaconfig.ModelConfig{Name: model},
	})

	if c.timeout > 0 {
		cfg.Client.Timeout = gaconfig.Duration(c.timeout)
	}
	cfg.Client.Retry.MaxRetries = 0

	return &cfg
}

func (c *chat) complete(ctx context.Context, cfg *gaconfig.AgentConfig, req Request) (*Response, error) {
	a, err := agent.New(cfg)
	if err != nil {
		return nil, c.fail(req, 0, fmt.Errorf("create agent: %w", err))
	}

	resp, err := a.Chat(ctx, req.Prompt, chatOptions(req))
	if err != nil {
		return nil, c.translate(ctx, req, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return nil, c.fail(req, 0, ErrEmptyResponse)
	}

	model := req.Model
	if model == "" {
		model = resp.Model
	}

	out := &Response{
		Text:     resp.Content(),
		Provider: c.provider,
		Model:    model,
	}
	if resp.Usage != nil {
		out.Usage = Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}

	return out, nil
}

func chatOptions(req Request) map[string]any {
	opts := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		opts["max_tokens"] = req.MaxTokens
	}
	return opts
}

func (c *chat) translate(ctx context.Context, req Request, err error) *InvocationError {
	var status *client.HTTPStatusError
	if errors.As(err, &status) {
		ie := c.fail(req, status.StatusCode, err)
		ie.Retryable = retryableStatus(status.StatusCode)
		return ie
	}

	ie := c.fail(req, 0, err)
	var ne net.Error
	ie.Retryable = ctx.Err() == nil && errors.As(err, &ne)
	return ie
}

func (c *chat) fail(req Request, status int, err error) *InvocationError {
	return &InvocationError{
		Provider:   c.provider,
		Model:      req.Model,
		StatusCode: status,
		Err:        err,
	}
}
