package llmgateway

import (
	"fmt"
	"strings"
)

// EffortLevel is the abstract reasoning knob: "low", "medium" or "high".
type EffortLevel string

const (
	EffortLow    EffortLevel = "low"
	EffortMedium EffortLevel = "medium"
	EffortHigh   EffortLevel = "high"
)

// DefaultEffortLevel is used by the thinking endpoints when the caller omits a level.
const DefaultEffortLevel = EffortLow

// IsValid returns true for the three known levels.
func (l EffortLevel) IsValid() bool {
	switch l {
	case EffortLow, EffortMedium, EffortHigh:
		return true
	default:
		return false
	}
}

// ParseEffortLevel normalizes user input ("High", " medium ") into an EffortLevel.
// An empty string yields DefaultEffortLevel.
func ParseEffortLevel(s string) (EffortLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultEffortLevel, nil
	}
	level := EffortLevel(s)
	if !level.IsValid() {
		return "", &ValidationError{
			Field:  "level",
			Value:  s,
			Reason: "must be 'low', 'medium', or 'high'",
			Err:    ErrInvalidRequest,
		}
	}
	return level, nil
}

// ToolCapability names a backend tool the caller may enable.
type ToolCapability string

const (
	// ToolWebSearch enables provider-side web search with citations.
	ToolWebSearch ToolCapability = "web_search"
)

// ValidateRequest checks a GenerationRequest before any backend is called.
func ValidateRequest(req *GenerationRequest) error {
	if req == nil {
		return &ValidationError{Field: "request", Reason: "request is required", Err: ErrInvalidRequest}
	}

	if strings.TrimSpace(req.Prompt) == "" {
		return &ValidationError{
			Field:  "prompt",
			Value:  req.Prompt,
			Reason: "prompt must not be empty",
			Err:    ErrInvalidRequest,
		}
	}

	if req.EffortLevel != "" && !req.EffortLevel.IsValid() {
		return &ValidationError{
			Field:  "level",
			Value:  req.EffortLevel,
			Reason: "must be 'low', 'medium', or 'high'",
			Err:    ErrInvalidRequest,
		}
	}

	for _, tool := range req.Tools {
		if tool != ToolWebSearch {
			return &ValidationError{
				Field:  "tools",
				Value:  tool,
				Reason: fmt.Sprintf("unknown tool capability %q", tool),
				Err:    ErrInvalidRequest,
			}
		}
	}

	return nil
}
