package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"

	llmgateway "github.com/wallscreet/llm-gateway"
)

const (
	defaultMaxTokens = 4096

	// Room left for the answer on top of the thinking budget.
	answerHeadroom = 4096
)

// buildMessageParams constructs Anthropic API parameters from a GenerationRequest.
// This function is shared between Generate and Stream to avoid duplication.
func buildMessageParams(req *llmgateway.GenerationRequest, params *llmgateway.ThinkingParameters) anthropic.MessageNewParams {
	apiParams := anthropic.MessageNewParams{
		Model: anthropic.Model(req.Model),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		MaxTokens: defaultMaxTokens,
	}

	// Thinking mode - the resolver already turned the level into a budget
	if params.Active() && params.Shape == llmgateway.ShapeBudget && params.BudgetTokens > 0 {
		budget := int64(params.BudgetTokens)
		apiParams.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
		if apiParams.MaxTokens <= budget {
			apiParams.MaxTokens = budget + answerHeadroom
		}
	}

	if req.HasTool(llmgateway.ToolWebSearch) {
		apiParams.Tools = []anthropic.ToolUnionParam{
			{OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{}},
		}
	}

	return apiParams
}
