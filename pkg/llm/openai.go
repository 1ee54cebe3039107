package llm

import (
	"context"
	"strings"
)

// OpenAI invokes an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	baseURL string
	apiKey  string
	chat    *chat
}

func NewOpenAI(cfg *OpenAIConfig) *OpenAI {
	return &OpenAI{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		chat: &chat{
			provider: ProviderOpenAI,
			timeout:  cfg.TimeoutDuration(),
		},
	}
}

func (o *OpenAI) Name() string { return ProviderOpenAI }

func (o *OpenAI) Invoke(ctx context.Context, req Request) (*Response, error) {
	cfg := o.chat.agentConfig(agentsOpenAI, o.baseURL, req.Model, map[string]any{
		"auth_type": "bearer",
		"token":     o.apiKey,
	})
	return o.chat.complete(ctx, cfg, req)
}
