package llmgateway

import (
	"fmt"
	"sync"
)

// Severity indicates how serious a validation warning is
type Severity string

const (
	SeverityInfo    Severity = "info"    // Informational (might be expected)
	SeverityWarning Severity = "warning" // Output will differ from what was asked
)

// WarningCode is a machine-readable identifier for validation warnings
type WarningCode string

const (
	// Thinking warnings
	WarningCodeThinkingFamilyDefaulted WarningCode = "THINKING_FAMILY_DEFAULTED"
	WarningCodeThinkingDisabled        WarningCode = "THINKING_DISABLED"
	WarningCodeThinkingLevelRemapped   WarningCode = "THINKING_LEVEL_REMAPPED"
	WarningCodeThinkingLevelIgnored    WarningCode = "THINKING_LEVEL_IGNORED"
	WarningCodeReasoningNotVisible     WarningCode = "REASONING_NOT_VISIBLE"
)

// ValidationWarning describes a prepared invocation that will run, but not
// quite as the caller asked. Warnings never block a request; the Gateway
// logs them.
type ValidationWarning struct {
	Code     WarningCode
	Category string // "thinking" or "reasoning"
	Field    string
	Value    any
	Message  string
	Severity Severity
}

// ValidationRule inspects a prepared invocation.
type ValidationRule interface {
	Name() string
	Check(inv *Invocation) []ValidationWarning
}

// ValidationEngine runs an ordered set of rules.
type ValidationEngine struct {
	mu    sync.RWMutex
	rules []ValidationRule
}

// NewValidationEngine returns an engine with the built-in rules.
func NewValidationEngine() *ValidationEngine {
	ve := &ValidationEngine{}
	ve.AddRule(thinkingFamilyRule{})
	ve.AddRule(thinkingShapeRule{})
	ve.AddRule(reasoningVisibilityRule{})
	return ve
}

// AddRule adds a validation rule to the engine
func (ve *ValidationEngine) AddRule(rule ValidationRule) {
	ve.mu.Lock()
	defer ve.mu.Unlock()
	ve.rules = append(ve.rules, rule)
}

// RemoveRule removes a validation rule by name
func (ve *ValidationEngine) RemoveRule(name string) bool {
	ve.mu.Lock()
	defer ve.mu.Unlock()

	for i, rule := range ve.rules {
		if rule.Name() == name {
			ve.rules = append(ve.rules[:i], ve.rules[i+1:]...)
			return true
		}
	}
	return false
}

// Validate runs all rules against inv.
func (ve *ValidationEngine) Validate(inv *Invocation) []ValidationWarning {
	ve.mu.RLock()
	defer ve.mu.RUnlock()

	var warnings []ValidationWarning
	for _, rule := range ve.rules {
		warnings = append(warnings, rule.Check(inv)...)
	}
	return warnings
}

// FilterWarningsBySeverity returns warnings matching the specified severities
func FilterWarningsBySeverity(warnings []ValidationWarning, severities ...Severity) []ValidationWarning {
	filtered := make([]ValidationWarning, 0)
	severityMap := make(map[Severity]bool)
	for _, s := range severities {
		severityMap[s] = true
	}

	for _, w := range warnings {
		if severityMap[w.Severity] {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

type thinkingFamilyRule struct{}

func (thinkingFamilyRule) Name() string { return "Thinking Family" }

func (thinkingFamilyRule) Check(inv *Invocation) []ValidationWarning {
	if inv.Params == nil || !inv.Params.Defaulted {
		return nil
	}
	return []ValidationWarning{{
		Code:     WarningCodeThinkingFamilyDefaulted,
		Category: "thinking",
		Field:    "model",
		Value:    inv.Params.Model,
		Message:  fmt.Sprintf("No thinking family for %s, using %s parameters", inv.Params.Model, inv.Params.Family),
		Severity: SeverityInfo,
	}}
}

type thinkingShapeRule struct{}

func (thinkingShapeRule) Name() string { return "Thinking Shape" }

func (thinkingShapeRule) Check(inv *Invocation) []ValidationWarning {
	p := inv.Params
	if p == nil {
		return nil
	}

	switch {
	case !p.Enabled:
		return []ValidationWarning{{
			Code:     WarningCodeThinkingDisabled,
			Category: "thinking",
			Field:    "level",
			Value:    p.Level,
			Message:  fmt.Sprintf("Model %s does not reason; level %s has no effect", p.Model, p.Level),
			Severity: SeverityWarning,
		}}
	case p.Shape == ShapeToggle:
		return []ValidationWarning{{
			Code:     WarningCodeThinkingLevelIgnored,
			Category: "thinking",
			Field:    "level",
			Value:    p.Level,
			Message:  fmt.Sprintf("Model %s only switches reasoning on; level %s is ignored", p.Model, p.Level),
			Severity: SeverityInfo,
		}}
	case p.Shape == ShapeLevel && p.LevelTag != string(p.Level):
		return []ValidationWarning{{
			Code:     WarningCodeThinkingLevelRemapped,
			Category: "thinking",
			Field:    "level",
			Value:    p.Level,
			Message:  fmt.Sprintf("Model %s runs level %s as %s", p.Model, p.Level, p.LevelTag),
			Severity: SeverityInfo,
		}}
	}
	return nil
}

type reasoningVisibilityRule struct{}

func (reasoningVisibilityRule) Name() string { return "Reasoning Visibility" }

func (reasoningVisibilityRule) Check(inv *Invocation) []ValidationWarning {
	if inv.Params == nil || inv.Provider.Capabilities().Reasoning {
		return nil
	}
	return []ValidationWarning{{
		Code:     WarningCodeReasoningNotVisible,
		Category: "reasoning",
		Field:    "provider",
		Value:    inv.Provider.Name(),
		Message:  fmt.Sprintf("Backend %s does not expose reasoning; no thoughts will be returned", inv.Provider.Name()),
		Severity: SeverityWarning,
	}}
}
