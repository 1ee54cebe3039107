// Package llm invokes hosted language models through interchangeable providers.
//
// A Router dispatches each Request to the provider it names, or to a default
// provider when none is named. Providers translate transport failures into
// *InvocationError and never retry; retry policy belongs to the caller.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Provider names.
const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
	ProviderAzure   = "azure"
)

// Request describes a single prompt invocation.
// An empty Provider selects the router default.
type Request struct {
	Provider    string
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Usage reports token consumption for a single invocation.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response carries the model text and invocation accounting.
type Response struct {
	Text     string          `json:"text"`
	Provider string          `json:"provider"`
	Model    string          `json:"model"`
	Usage    Usage           `json:"usage"`
	Cost     decimal.Decimal `json:"cost"`
	Elapsed  time.Duration   `json:"elapsed"`
}

// Client invokes a model and returns its text.
type Client interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// Provider is a Client bound to one hosted model service.
type Provider interface {
	Client
	Name() string
}

// Router dispatches requests to registered providers by name.
type Router struct {
	providers map[string]Provider
	fallback  string
}

// NewRouter creates a Router with the given default provider name.
func NewRouter(defaultProvider string, providers ...Provider) *Router {
	r := &Router{
		providers: make(map[string]Provider, len(providers)),
		fallback:  defaultProvider,
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a provider.
func (r *Router) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Providers returns the registered provider names.
func (r *Router) Providers() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Invoke routes req to its provider and stamps elapsed time and cost on the response.
func (r *Router) Invoke(ctx context.Context, req Request) (*Response, error) {
	name := req.Provider
	if name == "" {
		name = r.fallback
	}

	p, ok := r.providers[name]
	if !ok {
		return nil, &InvocationError{
			Provider: name,
			Model:    req.Model,
			Err:      fmt.Errorf("%w: %q", ErrUnknownProvider, name),
		}
	}

	req.Provider = name
	start := time.Now()

	resp, err := p.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	resp.Elapsed = time.Since(start)
	if resp.Provider == "" {
		resp.Provider = name
	}
	if resp.Model == "" {
		resp.Model = req.Model
	}
	resp.Cost = EstimateCost(resp.Model, resp.Usage)

	return resp, nil
}
