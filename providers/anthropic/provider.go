package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	llmgateway "github.com/wallscreet/llm-gateway"
)

const (
	// DefaultModel serves plain generation.
	DefaultModel = "claude-haiku-4-5"

	// DefaultReasoningModel serves requests that ask for a thinking level.
	DefaultReasoningModel = "claude-sonnet-4-5"

	// APIKeyEnv is the variable the credential is read from.
	APIKeyEnv = "ANTHROPIC_API_KEY"
)

// Provider implements the llmgateway.Provider interface for Anthropic (Claude) models.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
// Extra request options (base URL, HTTP client, retries) are passed to the SDK.
func NewProvider(apiKey string, opts ...option.RequestOption) (*Provider, error) {
	if apiKey == "" {
		return nil, &llmgateway.CredentialError{Provider: llmgateway.ProviderAnthropic.String(), EnvVar: APIKeyEnv}
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() llmgateway.ProviderID {
	return llmgateway.ProviderAnthropic
}

// SupportsModel returns true if this provider supports the given model.
// Anthropic models start with "claude-"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// Capabilities reports Claude's defaults. Thinking blocks and the server-side
// web search tool are both available.
func (p *Provider) Capabilities() llmgateway.Capabilities {
	return llmgateway.Capabilities{
		DefaultModel:          DefaultModel,
		DefaultReasoningModel: DefaultReasoningModel,
		Reasoning:             true,
		Search:                true,
	}
}

// Generate generates a complete response from Claude.
func (p *Provider) Generate(ctx context.Context, req *llmgateway.GenerationRequest, params *llmgateway.ThinkingParameters) ([]llmgateway.Event, error) {
	// Build Anthropic API parameters (shared logic with Stream)
	apiParams := buildMessageParams(req, params)

	message, err := p.client.Messages.New(ctx, apiParams)
	if err != nil {
		return nil, mapError(err)
	}

	return convertFromAnthropicResponse(message), nil
}

// mapError converts SDK failures into gateway errors.
func mapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return llmgateway.NewProviderErrorFromStatus(llmgateway.ProviderAnthropic, apiErr.StatusCode, apiErr.Error())
	}
	return llmgateway.WrapTransport(llmgateway.ProviderAnthropic, err)
}
