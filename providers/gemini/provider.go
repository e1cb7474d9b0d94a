package gemini

import (
	"context"
	"errors"
	"iter"
	"strings"

	"google.golang.org/genai"

	llmgateway "github.com/wallscreet/llm-gateway"
)

const (
	// DefaultModel serves both plain and reasoning requests.
	DefaultModel = "gemini-2.5-flash"

	// APIKeyEnv is the variable the credential is read from.
	APIKeyEnv = "GEMINI_API_KEY"
)

// contentGenerator is the part of the genai client the adapter uses.
// *genai.Models satisfies it.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Provider implements the llmgateway.Provider interface for Google Gemini models.
type Provider struct {
	models contentGenerator
}

// Option configures the genai client.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(cc *genai.ClientConfig) {
		cc.HTTPOptions.BaseURL = baseURL
	}
}

// NewProvider creates a Gemini provider using the Gemini API backend.
func NewProvider(ctx context.Context, apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, &llmgateway.CredentialError{Provider: llmgateway.ProviderGemini.String(), EnvVar: APIKeyEnv}
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cc)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, llmgateway.WrapTransport(llmgateway.ProviderGemini, err)
	}
	return &Provider{models: client.Models}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() llmgateway.ProviderID {
	return llmgateway.ProviderGemini
}

// SupportsModel returns true for "gemini-" models.
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "gemini-")
}

// Capabilities reports Gemini's defaults. Thought summaries and Google Search
// grounding are both available.
func (p *Provider) Capabilities() llmgateway.Capabilities {
	return llmgateway.Capabilities{
		DefaultModel:          DefaultModel,
		DefaultReasoningModel: DefaultModel,
		Reasoning:             true,
		Search:                true,
	}
}

// Generate performs a single GenerateContent call.
func (p *Provider) Generate(ctx context.Context, req *llmgateway.GenerationRequest, params *llmgateway.ThinkingParameters) ([]llmgateway.Event, error) {
	resp, err := p.models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), buildConfig(req, params))
	if err != nil {
		return nil, mapError(err)
	}

	chunk := classify(resp)

	var events []llmgateway.Event
	var text strings.Builder
	for _, ev := range chunk.fragments {
		if ev.Kind == llmgateway.EventThought {
			events = append(events, ev)
		} else {
			text.WriteString(ev.Text)
		}
	}

	if chunk.blocked {
		if text.Len() > 0 {
			events = append(events, llmgateway.Message(text.String()))
		}
		return append(events, llmgateway.SafetyBlocked()), nil
	}

	events = append(events, llmgateway.Message(text.String()))
	if len(chunk.sources) > 0 {
		events = append(events, llmgateway.Citation(chunk.sources))
	}
	return append(events, llmgateway.Done()), nil
}

// Stream ranges over GenerateContentStream. Breaking out of the returned
// sequence stops the SDK iterator, which releases the HTTP response.
func (p *Provider) Stream(ctx context.Context, req *llmgateway.GenerationRequest, params *llmgateway.ThinkingParameters) iter.Seq[llmgateway.Event] {
	return func(yield func(llmgateway.Event) bool) {
		var sources []string
		seen := make(map[string]bool)
		sawFinish := false

		for resp, err := range p.models.GenerateContentStream(ctx, req.Model, genai.Text(req.Prompt), buildConfig(req, params)) {
			if err != nil {
				if ctx.Err() == nil {
					yield(llmgateway.Failure(mapError(err)))
				}
				return
			}

			chunk := classify(resp)
			for _, ev := range chunk.fragments {
				if !yield(ev) {
					return
				}
			}
			if chunk.blocked {
				yield(llmgateway.SafetyBlocked())
				return
			}
			sawFinish = sawFinish || chunk.finished
			for _, s := range chunk.sources {
				if !seen[s] {
					seen[s] = true
					sources = append(sources, s)
				}
			}
		}

		if ctx.Err() != nil {
			return
		}
		// The iterator ends cleanly at EOF even when no candidate finished.
		if !sawFinish {
			yield(llmgateway.Failure(llmgateway.WrapTransport(llmgateway.ProviderGemini, llmgateway.ErrStreamTruncated)))
			return
		}
		if len(sources) > 0 {
			if !yield(llmgateway.Citation(sources)) {
				return
			}
		}
		yield(llmgateway.Done())
	}
}

// mapError converts SDK failures into gateway errors.
func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llmgateway.NewProviderErrorFromStatus(llmgateway.ProviderGemini, apiErr.Code, apiErr.Message)
	}
	return llmgateway.WrapTransport(llmgateway.ProviderGemini, err)
}
