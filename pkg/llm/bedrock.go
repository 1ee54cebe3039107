package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const anthropicVersion = "bedrock-2023-05-31"

// BedrockAPI is the subset of the Bedrock runtime client used by the provider.
type BedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Bedrock invokes Anthropic models hosted on Amazon Bedrock.
type Bedrock struct {
	api BedrockAPI
}

// NewBedrock wraps an existing Bedrock runtime client.
func NewBedrock(api BedrockAPI) *Bedrock {
	return &Bedrock{api: api}
}

// NewBedrockFromConfig loads the default AWS credential chain for the configured region.
func NewBedrockFromConfig(ctx context.Context, cfg *BedrockConfig) (*Bedrock, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewBedrock(bedrockruntime.NewFromConfig(awsCfg)), nil
}

func (b *Bedrock) Name() string { return ProviderBedrock }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (b *Bedrock) Invoke(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		Messages:         []anthropicMessage{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return nil, b.fail(req, err)
	}

	out, err := b.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(req.Model),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, b.fail(req, err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil {
		return nil, b.fail(req, fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Content) == 0 {
		return nil, b.fail(req, ErrEmptyResponse)
	}

	return &Response{
		Text:     parsed.Content[0].Text,
		Provider: ProviderBedrock,
		Model:    req.Model,
		Usage: Usage{
			InputTokens:  parsed.Usage.InputTokens,
			OutputTokens: parsed.Usage.OutputTokens,
		},
	}, nil
}

func (b *Bedrock) fail(req Request, err error) *InvocationError {
	ie := &InvocationError{
		Provider: ProviderBedrock,
		Model:    req.Model,
		Err:      err,
	}

	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		ie.StatusCode = re.HTTPStatusCode()
		ie.Retryable = retryableStatus(ie.StatusCode)
	}

	var (
		throttled *types.ThrottlingException
		timeout   *types.ModelTimeoutException
		internal  *types.InternalServerException
	)
	switch {
	case errors.As(err, &throttled), errors.As(err, &timeout), errors.As(err, &internal):
		ie.Retryable = true
	}

	return ie
}
