package xai

import (
	llmgateway "github.com/wallscreet/llm-gateway"
)

// ChatCompletionRequest represents an xAI chat completion request.
type ChatCompletionRequest struct {
	Model            string            `json:"model"`
	Messages         []Message         `json:"messages"`
	Stream           bool              `json:"stream"`
	ReasoningEffort  string            `json:"reasoning_effort,omitempty"`  // grok-3-mini only: "low" or "high"
	SearchParameters *SearchParameters `json:"search_parameters,omitempty"` // Live search
}

// Message represents a message in the conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// SearchParameters enables xAI live search.
type SearchParameters struct {
	Mode            string `json:"mode"` // "off", "auto", "on"
	ReturnCitations bool   `json:"return_citations"`
}

// buildChatCompletionRequest constructs the request body from a GenerationRequest.
// This function is shared between Generate and Stream to avoid duplication.
//
// Only the qualitative shape is sent on the wire. Toggle-shaped grok models
// reason according to the model variant and reject reasoning_effort.
func buildChatCompletionRequest(req *llmgateway.GenerationRequest, params *llmgateway.ThinkingParameters) *ChatCompletionRequest {
	chatReq := &ChatCompletionRequest{
		Model:    req.Model,
		Messages: []Message{{Role: "user", Content: req.Prompt}},
	}

	if params.Active() && params.Shape == llmgateway.ShapeLevel {
		chatReq.ReasoningEffort = params.LevelTag
	}

	if req.HasTool(llmgateway.ToolWebSearch) {
		chatReq.SearchParameters = &SearchParameters{Mode: "on", ReturnCitations: true}
	}

	return chatReq
}
