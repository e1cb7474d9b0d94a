package llmgateway

// GenerationRequest is the uniform, provider-agnostic input for one invocation.
// It is treated as immutable once handed to the Gateway.
type GenerationRequest struct {
	// Prompt is the user input. Must be non-empty.
	Prompt string

	// Model is the backend model identifier (e.g., "gemini-2.5-flash").
	// Empty means "use the backend's default".
	Model string

	// EffortLevel requests reasoning at the given effort. Empty means no
	// reasoning was requested and the Thinking-Level Resolver is skipped.
	EffortLevel EffortLevel

	// Tools lists the tool capabilities the caller wants enabled.
	Tools []ToolCapability
}

// WantsReasoning reports whether the request asked for a thinking level.
func (r *GenerationRequest) WantsReasoning() bool {
	return r.EffortLevel != ""
}

// HasTool reports whether the given tool capability was requested.
func (r *GenerationRequest) HasTool(tool ToolCapability) bool {
	for _, t := range r.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

// WithModel returns a copy of the request bound to model.
func (r GenerationRequest) WithModel(model string) GenerationRequest {
	r.Model = model
	if len(r.Tools) > 0 {
		r.Tools = append([]ToolCapability(nil), r.Tools...)
	}
	return r
}
