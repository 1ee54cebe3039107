package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

const cognitiveServicesScope = "https://cognitiveservices.azure.com/.default"

// Azure invokes an Azure OpenAI deployment.
// Request.Model names the deployment; an empty model uses the configured deployment.
type Azure struct {
	baseURL    string
	deployment string
	apiVersion string
	apiKey     string
	cred       azcore.TokenCredential
	chat       *chat
}

// NewAzure creates an Azure OpenAI provider. When cfg has no API key the
// provider authenticates with cred, resolving the default Azure credential
// chain if cred is nil.
func NewAzure(cfg *AzureConfig, cred azcore.TokenCredential) (*Azure, error) {
	if cfg.APIKey == "" && cred == nil {
		dc, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("resolve azure credential: %w", err)
		}
		cred = dc
	}

	return &Azure{
		baseURL:    strings.TrimSuffix(cfg.Endpoint, "/") + "/openai",
		deployment: cfg.Deployment,
		apiVersion: cfg.APIVersion,
		apiKey:     cfg.APIKey,
		cred:       cred,
		chat: &chat{
			provider: ProviderAzure,
			timeout:  cfg.TimeoutDuration(),
		},
	}, nil
}

func (a *Azure) Name() string { return ProviderAzure }

func (a *Azure) Invoke(ctx context.Context, req Request) (*Response, error) {
	if req.Model == "" {
		req.Model = a.deployment
	}

	authType, token, err := a.authorize(ctx)
	if err != nil {
		return nil, a.chat.fail(req, 0, fmt.Errorf("authorize: %w", err))
	}

	cfg := a.chat.agentConfig(agentsAzure, a.baseURL, req.Model, map[string]any{
		"deployment":  req.Model,
		"api_version": a.apiVersion,
		"auth_type":   authType,
		"token":       token,
	})

	return a.chat.complete(ctx, cfg, req)
}

func (a *Azure) authorize(ctx context.Context) (authType, token string, err error) {
	if a.apiKey != "" {
		return "api_key", a.apiKey, nil
	}

	tok, err := a.cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{cognitiveServicesScope},
	})
	if err != nil {
		return "", "", err
	}
	return "bearer", tok.Token, nil
}
