package gemini

import (
	"google.golang.org/genai"

	llmgateway "github.com/wallscreet/llm-gateway"
)

// buildConfig maps the request and resolved thinking parameters to a
// GenerateContentConfig.
func buildConfig(req *llmgateway.GenerationRequest, params *llmgateway.ThinkingParameters) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if params.Active() {
		tc := &genai.ThinkingConfig{IncludeThoughts: true}
		if params.Shape == llmgateway.ShapeBudget && params.BudgetTokens > 0 {
			tc.ThinkingBudget = genai.Ptr(int32(params.BudgetTokens))
		}
		config.ThinkingConfig = tc
	}

	if req.HasTool(llmgateway.ToolWebSearch) {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	return config
}

// safetyFinishReasons end a candidate because of content policy.
var safetyFinishReasons = map[genai.FinishReason]bool{
	genai.FinishReasonSafety:            true,
	genai.FinishReasonProhibitedContent: true,
	genai.FinishReasonBlocklist:         true,
	genai.FinishReasonSPII:              true,
	genai.FinishReasonRecitation:        true,
	genai.FinishReasonImageSafety:       true,
}

// classifiedChunk is one response (or stream chunk) split into events.
type classifiedChunk struct {
	fragments []llmgateway.Event
	sources   []string
	blocked   bool
	finished  bool
}

// classify inspects the first candidate of resp. Parts flagged Thought are
// reasoning; other text parts are answer text. Parts without text and chunks
// without candidates contribute nothing.
func classify(resp *genai.GenerateContentResponse) classifiedChunk {
	var out classifiedChunk
	if resp == nil {
		return out
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		out.blocked = true
		return out
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return out
	}
	cand := resp.Candidates[0]

	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			if part.Thought {
				out.fragments = append(out.fragments, llmgateway.Thought(part.Text))
			} else {
				out.fragments = append(out.fragments, llmgateway.Message(part.Text))
			}
		}
	}

	if safetyFinishReasons[cand.FinishReason] {
		out.blocked = true
		return out
	}
	out.finished = cand.FinishReason != "" && cand.FinishReason != genai.FinishReasonUnspecified

	if gm := cand.GroundingMetadata; gm != nil {
		seen := make(map[string]bool)
		for _, chunk := range gm.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
				continue
			}
			seen[chunk.Web.URI] = true
			out.sources = append(out.sources, chunk.Web.URI)
		}
	}

	return out
}
