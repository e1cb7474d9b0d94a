package llmgateway

import (
	"context"
	"iter"
)

// Provider defines the interface that every backend adapter implements.
// Each adapter is solely responsible for its backend's request shape and
// for classifying backend output into normalized Events.
//
// Types used by this interface:
//   - GenerationRequest: defined in request.go
//   - ThinkingParameters: defined in thinking.go
//   - Event: defined in streaming.go
type Provider interface {
	// Name returns the provider identifier (e.g., "gemini", "xai", "lorem").
	Name() ProviderID

	// SupportsModel returns true if the provider serves the given model.
	SupportsModel(model string) bool

	// Capabilities describes defaults and optional features of the backend.
	Capabilities() Capabilities

	// Generate performs one blocking call and returns a fully materialized
	// sequence: zero or more Thought, exactly one Message, an optional
	// Citation, then one Control terminal. Backend failures are returned
	// as typed errors instead of a Failure event.
	Generate(ctx context.Context, req *GenerationRequest, params *ThinkingParameters) ([]Event, error)

	// Stream yields events as the backend produces chunks. The sequence
	// always ends with exactly one terminal event (Control or Failure);
	// empty fragments are never yielded. Breaking out of the range loop
	// releases the backend stream handle.
	//
	// Usage:
	//   for ev := range provider.Stream(ctx, req, params) {
	//     switch ev.Kind { ... }
	//   }
	Stream(ctx context.Context, req *GenerationRequest, params *ThinkingParameters) iter.Seq[Event]
}

// Capabilities describes a backend's defaults and optional features.
type Capabilities struct {
	// DefaultModel is used when the request names no model.
	DefaultModel string

	// DefaultReasoningModel is used when the request names no model but asks
	// for reasoning. Empty means DefaultModel.
	DefaultReasoningModel string

	// Reasoning is true when the backend can expose thought fragments.
	Reasoning bool

	// Search is true when the backend offers a web search tool with citations.
	Search bool
}

// ModelFor returns the default model for a request that names none.
func (c Capabilities) ModelFor(reasoning bool) string {
	if reasoning && c.DefaultReasoningModel != "" {
		return c.DefaultReasoningModel
	}
	return c.DefaultModel
}

// Invoke runs req against p in either mode and always returns a lazy event
// sequence. In non-streaming mode a returned error becomes one Failure event.
func Invoke(ctx context.Context, p Provider, req *GenerationRequest, streaming bool, params *ThinkingParameters) iter.Seq[Event] {
	if streaming {
		return p.Stream(ctx, req, params)
	}
	return func(yield func(Event) bool) {
		events, err := p.Generate(ctx, req, params)
		if err != nil {
			yield(Failure(err))
			return
		}
		for _, ev := range events {
			if !yield(ev) {
				return
			}
		}
	}
}
