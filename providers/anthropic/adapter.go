package anthropic

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	llmgateway "github.com/wallscreet/llm-gateway"
)

// convertFromAnthropicResponse folds a complete Claude message into the
// normalized event sequence: thoughts, one message, optional citations and
// the terminal marker.
//
// Block types:
// - thinking: internal reasoning, one Thought per block
// - text: final answer, concatenated into a single Message
// - web_search_tool_result: search hits, collected into one Citation
// - redacted_thinking, server_tool_use: carry nothing the caller can read
func convertFromAnthropicResponse(msg *anthropic.Message) []llmgateway.Event {
	var events []llmgateway.Event
	var text strings.Builder

	for _, block := range msg.Content {
		switch block.Type {
		case "thinking":
			if block.Thinking != "" {
				events = append(events, llmgateway.Thought(block.Thinking))
			}
		case "text":
			text.WriteString(block.Text)
		}
	}

	if msg.StopReason == anthropic.StopReasonRefusal {
		if text.Len() > 0 {
			events = append(events, llmgateway.Message(text.String()))
		}
		return append(events, llmgateway.SafetyBlocked())
	}

	events = append(events, llmgateway.Message(text.String()))
	if sources := collectCitations(msg.Content); len(sources) > 0 {
		events = append(events, llmgateway.Citation(sources))
	}
	return append(events, llmgateway.Done())
}

// collectCitations returns the URLs of every web search result, in order,
// without duplicates.
func collectCitations(blocks []anthropic.ContentBlockUnion) []string {
	var sources []string
	seen := make(map[string]bool)
	for _, block := range blocks {
		if block.Type != "web_search_tool_result" {
			continue
		}
		for _, result := range block.Content.OfWebSearchResultBlockArray {
			if result.URL == "" || seen[result.URL] {
				continue
			}
			seen[result.URL] = true
			sources = append(sources, result.URL)
		}
	}
	return sources
}
