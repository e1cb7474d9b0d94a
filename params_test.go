package llmgateway

import (
	"errors"
	"testing"
)

func TestParseEffortLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    EffortLevel
		wantErr bool
	}{
		{"empty uses default", "", EffortLow, false},
		{"low", "low", EffortLow, false},
		{"mixed case", "High", EffortHigh, false},
		{"surrounding space", "  medium ", EffortMedium, false},
		{"unknown level", "extreme", "", true},
		{"numeric", "3", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEffortLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEffortLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseEffortLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if err != nil && !IsInvalidRequest(err) {
				t.Error("level error should be classified as invalid request")
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     *GenerationRequest
		field   string
		wantErr bool
	}{
		{"nil request", nil, "request", true},
		{"empty prompt", &GenerationRequest{}, "prompt", true},
		{"whitespace prompt", &GenerationRequest{Prompt: " \n\t"}, "prompt", true},
		{"plain prompt", &GenerationRequest{Prompt: "2+2?"}, "", false},
		{"valid level", &GenerationRequest{Prompt: "x", EffortLevel: EffortHigh}, "", false},
		{"invalid level", &GenerationRequest{Prompt: "x", EffortLevel: "max"}, "level", true},
		{"web search", &GenerationRequest{Prompt: "x", Tools: []ToolCapability{ToolWebSearch}}, "", false},
		{"unknown tool", &GenerationRequest{Prompt: "x", Tools: []ToolCapability{"bash"}}, "tools", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
			if KindOf(err) != KindConfiguration {
				t.Errorf("KindOf() = %q, want %q", KindOf(err), KindConfiguration)
			}
		})
	}
}

func TestGenerationRequest_WithModel(t *testing.T) {
	orig := GenerationRequest{Prompt: "x", Tools: []ToolCapability{ToolWebSearch}}
	bound := orig.WithModel("gemini-2.5-pro")

	if bound.Model != "gemini-2.5-pro" {
		t.Errorf("Model = %q", bound.Model)
	}
	if orig.Model != "" {
		t.Error("WithModel must not modify the original request")
	}

	bound.Tools[0] = "changed"
	if orig.Tools[0] != ToolWebSearch {
		t.Error("WithModel must copy the tool list")
	}
	if !orig.HasTool(ToolWebSearch) {
		t.Error("HasTool(web_search) = false")
	}
}
