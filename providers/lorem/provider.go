package lorem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	loremgen "github.com/bozaro/golorem"

	llmgateway "github.com/wallscreet/llm-gateway"
)

const (
	// DefaultModel serves plain generation.
	DefaultModel = "lorem-fast"

	// DefaultReasoningModel serves requests that ask for a thinking level.
	DefaultReasoningModel = "lorem-medium"

	// answerWords is the approximate length of every answer.
	answerWords = 40

	// Number of words streamed before the scripted block or failure.
	scriptedPrefixWords = 5
)

// ErrConnectionReset is the transport failure lorem-broken simulates.
var ErrConnectionReset = errors.New("lorem: connection reset by peer")

// Provider is a mock LLM provider that generates lorem ipsum text.
// Used for testing and development without requiring real API keys.
//
// Model names select the behavior:
//   - lorem-instant, lorem-fast, lorem-medium, lorem-slow: streaming speed
//   - lorem-blocked: a safety block after a few words
//   - lorem-broken: a transport failure after a few words
type Provider struct {
	mu        sync.Mutex
	generator *loremgen.Lorem
	logger    *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		generator: loremgen.New(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() llmgateway.ProviderID {
	return llmgateway.ProviderLorem
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow", "lorem-blocked"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// Capabilities reports lorem's defaults. Thoughts and citations are simulated.
func (p *Provider) Capabilities() llmgateway.Capabilities {
	return llmgateway.Capabilities{
		DefaultModel:          DefaultModel,
		DefaultReasoningModel: DefaultReasoningModel,
		Reasoning:             true,
		Search:                true,
	}
}

// Generate returns a complete lorem ipsum answer after a model-dependent delay.
// This simulates a blocking API call to a real LLM provider.
func (p *Provider) Generate(ctx context.Context, req *llmgateway.GenerationRequest, params *llmgateway.ThinkingParameters) ([]llmgateway.Event, error) {
	if err := sleep(ctx, 10*getStreamDelay(req.Model)); err != nil {
		return nil, err
	}

	switch {
	case isBrokenModel(req.Model):
		return nil, llmgateway.WrapTransport(p.Name(), ErrConnectionReset)
	case isBlockedModel(req.Model):
		return []llmgateway.Event{llmgateway.SafetyBlocked()}, nil
	}

	var events []llmgateway.Event
	if params.Active() {
		events = append(events, llmgateway.Thought(p.generateTextWords(thoughtWords(params))))
	}
	events = append(events, llmgateway.Message(p.generateTextWords(answerWords)))
	if req.HasTool(llmgateway.ToolWebSearch) {
		events = append(events, llmgateway.Citation(citations(req.Prompt)))
	}
	return append(events, llmgateway.Done()), nil
}

// Stream emits lorem ipsum word by word. Speed varies based on model name.
// Thoughts (when thinking is active) stream before the answer.
func (p *Provider) Stream(ctx context.Context, req *llmgateway.GenerationRequest, params *llmgateway.ThinkingParameters) iter.Seq[llmgateway.Event] {
	return func(yield func(llmgateway.Event) bool) {
		delay := getStreamDelay(req.Model)
		p.logger.Debug("lorem stream started", "model", req.Model, "thinking", params.Active(), "delay", delay)

		emit := func(words []string, wrap func(string) llmgateway.Event) bool {
			for i, word := range words {
				if sleep(ctx, delay) != nil {
					return false
				}
				if i > 0 {
					word = " " + word
				}
				if !yield(wrap(word)) {
					return false
				}
			}
			return true
		}

		if params.Active() && !isScriptedModel(req.Model) {
			thought := strings.Fields(p.generateTextWords(thoughtWords(params)))
			if !emit(thought, llmgateway.Thought) {
				return
			}
		}

		answer := strings.Fields(p.generateTextWords(answerWords))
		if isScriptedModel(req.Model) {
			answer = answer[:min(scriptedPrefixWords, len(answer))]
		}
		if !emit(answer, llmgateway.Message) {
			return
		}

		switch {
		case isBlockedModel(req.Model):
			yield(llmgateway.SafetyBlocked())
			return
		case isBrokenModel(req.Model):
			yield(llmgateway.Failure(llmgateway.WrapTransport(p.Name(), ErrConnectionReset)))
			return
		}

		if req.HasTool(llmgateway.ToolWebSearch) {
			if !yield(llmgateway.Citation(citations(req.Prompt))) {
				return
			}
		}
		yield(llmgateway.Done())
	}
}

// getStreamDelay returns the delay between words based on the model name.
// - lorem-instant: no delay
// - lorem-slow: 2 words/second (500ms per word)
// - lorem-fast: 30 words/second (33ms per word)
// - lorem-medium: 10 words/second (100ms per word)
// - default: 10 words/second
func getStreamDelay(model string) time.Duration {
	switch {
	case strings.Contains(model, "instant"):
		return 0
	case strings.Contains(model, "slow"):
		return 500 * time.Millisecond
	case strings.Contains(model, "fast"):
		return 33 * time.Millisecond
	default:
		return 100 * time.Millisecond
	}
}

func isBlockedModel(model string) bool { return strings.Contains(model, "blocked") }

func isBrokenModel(model string) bool { return strings.Contains(model, "broken") }

func isScriptedModel(model string) bool { return isBlockedModel(model) || isBrokenModel(model) }

// thoughtWords sizes the reasoning text from the resolved parameters.
func thoughtWords(params *llmgateway.ThinkingParameters) int {
	if params.BudgetTokens > 0 {
		return params.BudgetTokens
	}
	return 20
}

// citations returns deterministic sources for a prompt.
func citations(prompt string) []string {
	slug := strings.Join(strings.Fields(strings.ToLower(prompt)), "-")
	if len(slug) > 32 {
		slug = slug[:32]
	}
	return []string{
		fmt.Sprintf("https://example.com/lorem/%s", slug),
		fmt.Sprintf("https://example.org/ipsum/%s", slug),
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// generateTextWords generates lorem ipsum text with approximately targetWords words.
func (p *Provider) generateTextWords(targetWords int) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	wordCount := 0
	for wordCount < targetWords {
		// Generate sentence with 5-15 words
		sentence := p.generator.Sentence(5, 15)
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(sentence)
		wordCount += len(strings.Fields(sentence))
	}
	return sb.String()
}
