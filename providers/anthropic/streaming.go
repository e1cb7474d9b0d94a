package anthropic

import (
	"context"
	"fmt"
	"iter"

	"github.com/anthropics/anthropic-sdk-go"

	llmgateway "github.com/wallscreet/llm-gateway"
)

// Stream generates a streaming response from Claude.
// The SDK stream is opened when the sequence is ranged over and closed on
// every exit path.
func (p *Provider) Stream(ctx context.Context, req *llmgateway.GenerationRequest, params *llmgateway.ThinkingParameters) iter.Seq[llmgateway.Event] {
	return func(yield func(llmgateway.Event) bool) {
		// Build Anthropic API parameters (shared logic with Generate)
		apiParams := buildMessageParams(req, params)

		stream := p.client.Messages.NewStreaming(ctx, apiParams)
		defer stream.Close()

		// Accumulator for web search results, which arrive as whole blocks
		message := anthropic.Message{}
		sawStop := false

		for stream.Next() {
			event := stream.Current()
			if _, ok := event.AsAny().(anthropic.MessageStopEvent); ok {
				sawStop = true
			}

			if err := message.Accumulate(event); err != nil {
				yield(llmgateway.Failure(llmgateway.WrapTransport(llmgateway.ProviderAnthropic,
					fmt.Errorf("failed to accumulate message: %w", err))))
				return
			}

			ev, ok := transformAnthropicStreamEvent(event)
			if !ok {
				continue
			}
			if !yield(ev) || ev.IsTerminal() {
				return
			}
		}

		if ctx.Err() != nil {
			return
		}
		if err := stream.Err(); err != nil {
			yield(llmgateway.Failure(mapError(err)))
			return
		}
		// The SDK decoder reports a clean EOF as success, with or without message_stop.
		if !sawStop {
			yield(llmgateway.Failure(llmgateway.WrapTransport(llmgateway.ProviderAnthropic, llmgateway.ErrStreamTruncated)))
			return
		}

		if sources := collectCitations(message.Content); len(sources) > 0 {
			if !yield(llmgateway.Citation(sources)) {
				return
			}
		}
		yield(llmgateway.Done())
	}
}

// transformAnthropicStreamEvent converts an Anthropic streaming event to a gateway Event.
//
// Anthropic stream events include:
// - MessageStart: Contains message metadata (id, model, role)
// - ContentBlockStart: New content block started (index, type)
// - ContentBlockDelta: Incremental content for current block (text_delta, thinking_delta)
// - ContentBlockStop: Current block finished
// - MessageDelta: Message-level delta (stop_reason, stop_sequence)
// - MessageStop: Streaming complete
//
// Only deltas with text and a refusal stop reason produce events.
func transformAnthropicStreamEvent(event anthropic.MessageStreamEventUnion) (llmgateway.Event, bool) {
	switch e := event.AsAny().(type) {
	case anthropic.ContentBlockDeltaEvent:
		switch e.Delta.Type {
		case "text_delta":
			if e.Delta.Text != "" {
				return llmgateway.Message(e.Delta.Text), true
			}
		case "thinking_delta":
			if e.Delta.Thinking != "" {
				return llmgateway.Thought(e.Delta.Thinking), true
			}
		}

	case anthropic.MessageDeltaEvent:
		if e.Delta.StopReason == anthropic.StopReasonRefusal {
			return llmgateway.SafetyBlocked(), true
		}
	}

	return llmgateway.Event{}, false
}
