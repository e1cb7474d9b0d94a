package xai

import (
	"errors"

	"github.com/tidwall/gjson"

	llmgateway "github.com/wallscreet/llm-gateway"
)

// finishContentFilter is the finish_reason xAI reports for a safety stop.
const finishContentFilter = "content_filter"

// convertFromChatCompletionResponse classifies a complete chat completion.
// Fields are read with gjson because their presence varies by model: only
// reasoning models carry reasoning_content, only searches carry citations.
func convertFromChatCompletionResponse(body []byte) ([]llmgateway.Event, error) {
	if !gjson.ValidBytes(body) {
		return nil, llmgateway.WrapTransport(llmgateway.ProviderXAI, errors.New("response is not valid JSON"))
	}

	choice := gjson.GetBytes(body, "choices.0")
	if !choice.Exists() {
		return nil, llmgateway.WrapTransport(llmgateway.ProviderXAI, errors.New("response has no choices"))
	}

	var events []llmgateway.Event
	if reasoning := choice.Get("message.reasoning_content").String(); reasoning != "" {
		events = append(events, llmgateway.Thought(reasoning))
	}

	content := choice.Get("message.content").String()
	if choice.Get("finish_reason").String() == finishContentFilter {
		if content != "" {
			events = append(events, llmgateway.Message(content))
		}
		return append(events, llmgateway.SafetyBlocked()), nil
	}

	events = append(events, llmgateway.Message(content))
	if sources := citations(gjson.GetBytes(body, "citations")); len(sources) > 0 {
		events = append(events, llmgateway.Citation(sources))
	}
	return append(events, llmgateway.Done()), nil
}

// citations reads a citations array. xAI returns plain URL strings; objects
// with a "url" field are accepted too.
func citations(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	var sources []string
	seen := make(map[string]bool)
	v.ForEach(func(_, item gjson.Result) bool {
		url := item.String()
		if item.IsObject() {
			url = item.Get("url").String()
		}
		if url != "" && !seen[url] {
			seen[url] = true
			sources = append(sources, url)
		}
		return true
	})
	return sources
}
