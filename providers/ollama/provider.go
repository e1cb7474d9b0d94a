// Package ollama adapts a locally running Ollama server to the gateway.
// Endpoints used:
//   - POST /api/chat  chat completion, NDJSON when streaming
//   - GET  /api/tags  health check (lists available models)
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	llmgateway "github.com/wallscreet/llm-gateway"
)

const (
	// DefaultBaseURL is where a local Ollama listens.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is used for both plain and thinking requests.
	DefaultModel = "granite4:3b-h"

	// BaseURLEnv overrides DefaultBaseURL.
	BaseURLEnv = "OLLAMA_BASE_URL"

	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
)

// Provider implements llmgateway.Provider against an Ollama instance.
type Provider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// WithDefaultModel overrides DefaultModel.
func WithDefaultModel(model string) Option {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// NewProvider creates a Provider for baseURL. An empty baseURL means DefaultBaseURL.
// Ollama needs no credential, so construction never fails on configuration.
func NewProvider(baseURL string, opts ...Option) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	p := &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   DefaultModel,
		// No client timeout: streams are bounded by the request context.
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ─── wire types ──────────────────────────────────────────────────────────────

type chatMessage struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`

	// Think is a bool for toggle-shaped models and "low"|"medium"|"high" for gpt-oss.
	Think any `json:"think,omitempty"`
}

type chatResponse struct {
	Message    chatMessage `json:"message"`
	DoneReason string      `json:"done_reason"`
	Done       bool        `json:"done"`
	Error      string      `json:"error"`
}

// ─── llmgateway.Provider ─────────────────────────────────────────────────────

// Name returns the provider identifier.
func (p *Provider) Name() llmgateway.ProviderID {
	return llmgateway.ProviderOllama
}

// SupportsModel accepts any model name. Whether it is pulled is up to the server.
func (p *Provider) SupportsModel(model string) bool {
	return model != ""
}

// Capabilities reports reasoning support and no search.
func (p *Provider) Capabilities() llmgateway.Capabilities {
	return llmgateway.Capabilities{
		DefaultModel:          p.model,
		DefaultReasoningModel: p.model,
		Reasoning:             true,
	}
}

// Generate performs a non-streaming chat via POST /api/chat.
func (p *Provider) Generate(ctx context.Context, req *llmgateway.GenerationRequest, params *llmgateway.ThinkingParameters) ([]llmgateway.Event, error) {
	body, err := json.Marshal(buildChatRequest(req, params, false))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	respBody, err := p.doPost(ctx, "/api/chat", body)
	if err != nil {
		return nil, err
	}
	defer respBody.Close()

	var resp chatResponse
	if err := json.NewDecoder(respBody).Decode(&resp); err != nil {
		return nil, llmgateway.WrapTransport(p.Name(), fmt.Errorf("decode chat response: %w", err))
	}
	if resp.Error != "" {
		return nil, p.inBandError(resp.Error)
	}

	var events []llmgateway.Event
	if resp.Message.Thinking != "" {
		events = append(events, llmgateway.Thought(resp.Message.Thinking))
	}
	events = append(events, llmgateway.Message(resp.Message.Content), llmgateway.Done())
	return events, nil
}

// HealthCheck calls GET /api/tags and returns nil if Ollama is reachable.
func (p *Provider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("ollama healthcheck: build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return llmgateway.WrapTransport(p.Name(), err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return llmgateway.NewProviderErrorFromStatus(p.Name(), resp.StatusCode, "healthcheck failed")
	}
	return nil
}

// buildChatRequest is shared by Generate and Stream.
func buildChatRequest(req *llmgateway.GenerationRequest, params *llmgateway.ThinkingParameters, stream bool) chatRequest {
	chatReq := chatRequest{
		Model:    req.Model,
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
		Stream:   stream,
	}
	if params != nil {
		switch {
		case !params.Enabled:
			chatReq.Think = false
		case params.Shape == llmgateway.ShapeLevel:
			chatReq.Think = params.LevelTag
		default:
			chatReq.Think = true
		}
	}
	return chatReq
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// doPost sends a POST request to baseURL+path and returns the response body.
// Caller is responsible for closing the returned ReadCloser.
func (p *Provider) doPost(ctx context.Context, path string, body []byte) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama post %s: build request: %w", path, err)
	}
	req.Header.Set(headerContentType, mimeJSON)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, llmgateway.WrapTransport(p.Name(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close() //nolint:errcheck
		return nil, p.handleErrorResponse(resp)
	}
	return resp.Body, nil
}

// handleErrorResponse reads Ollama's {"error": "..."} body.
func (p *Provider) handleErrorResponse(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	var errResp chatResponse
	message := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
		message = errResp.Error
	}
	return llmgateway.NewProviderErrorFromStatus(p.Name(), resp.StatusCode, message)
}

func (p *Provider) inBandError(message string) error {
	return &llmgateway.ProviderError{
		Provider: p.Name().String(),
		Message:  message,
		Err:      llmgateway.ErrProviderUnavailable,
	}
}
