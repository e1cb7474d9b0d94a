package xai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	llmgateway "github.com/wallscreet/llm-gateway"
)

const (
	// DefaultBaseURL is xAI's OpenAI-compatible API root.
	DefaultBaseURL = "https://api.x.ai/v1"

	// DefaultModel serves plain generation.
	DefaultModel = "grok-4-1-fast-non-reasoning"

	// DefaultReasoningModel serves requests that ask for a thinking level.
	DefaultReasoningModel = "grok-4-1-fast-reasoning"

	// APIKeyEnv is the variable the credential is read from.
	APIKeyEnv = "XAI_API_KEY"
)

// Provider implements the llmgateway.Provider interface for xAI's Grok models.
// xAI uses an OpenAI-compatible chat completions format, with reasoning text
// in a separate reasoning_content field and live search via search_parameters.
type Provider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL overrides the API root (used by tests).
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) { p.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// WithLogger sets the logger used for skipped chunks.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProvider creates a new xAI provider with the given API key.
func NewProvider(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, &llmgateway.CredentialError{Provider: llmgateway.ProviderXAI.String(), EnvVar: APIKeyEnv}
	}

	p := &Provider{
		apiKey: apiKey,
		// No client timeout: streams are bounded by the request context.
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() llmgateway.ProviderID {
	return llmgateway.ProviderXAI
}

// SupportsModel returns true for "grok-" models.
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "grok-")
}

// Capabilities reports xAI's defaults.
func (p *Provider) Capabilities() llmgateway.Capabilities {
	return llmgateway.Capabilities{
		DefaultModel:          DefaultModel,
		DefaultReasoningModel: DefaultReasoningModel,
		Reasoning:             true,
		Search:                true,
	}
}

// Generate generates a non-streaming response from xAI.
func (p *Provider) Generate(ctx context.Context, req *llmgateway.GenerationRequest, params *llmgateway.ThinkingParameters) ([]llmgateway.Event, error) {
	// Build xAI API request (shared logic)
	chatReq := buildChatCompletionRequest(req, params)
	chatReq.Stream = false

	httpReq, err := p.buildHTTPRequest(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, llmgateway.WrapTransport(p.Name(), err)
	}
	defer resp.Body.Close()

	// Handle error responses
	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llmgateway.WrapTransport(p.Name(), fmt.Errorf("failed to read response body: %w", err))
	}

	return convertFromChatCompletionResponse(body)
}

// buildHTTPRequest creates an HTTP request for the chat completions endpoint.
func (p *Provider) buildHTTPRequest(ctx context.Context, req *ChatCompletionRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	// Set headers
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	return httpReq, nil
}

// handleErrorResponse parses error responses from xAI.
// xAI returns either {"error": "..."} or the OpenAI shape {"error": {"message": "..."}}.
func (p *Provider) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	message := gjson.GetBytes(body, "error.message").String()
	if message == "" {
		if e := gjson.GetBytes(body, "error"); e.Type == gjson.String {
			message = e.String()
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
	}

	return llmgateway.NewProviderErrorFromStatus(p.Name(), resp.StatusCode, message)
}
