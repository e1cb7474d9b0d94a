package lorem

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	llmgateway "github.com/wallscreet/llm-gateway"
)

func TestProvider_Name(t *testing.T) {
	provider := NewProvider()
	if provider.Name() != "lorem" {
		t.Errorf("expected provider name 'lorem', got '%s'", provider.Name())
	}
}

func TestProvider_SupportsModel(t *testing.T) {
	provider := NewProvider()

	tests := []struct {
		model    string
		expected bool
	}{
		{"lorem-fast", true},
		{"lorem-slow", true},
		{"lorem-instant", true},
		{"lorem-blocked", true},
		{"lorem-anything", true},
		{"claude-3", false},
		{"gpt-4", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			result := provider.SupportsModel(tt.model)
			if result != tt.expected {
				t.Errorf("SupportsModel(%q) = %v, want %v", tt.model, result, tt.expected)
			}
		})
	}
}

func TestProvider_Generate(t *testing.T) {
	provider := NewProvider()
	req := &llmgateway.GenerationRequest{Prompt: "Hello, test!", Model: "lorem-instant"}

	events, err := provider.Generate(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	resp := llmgateway.FoldEvents(req.Model, events)
	if resp.Status != llmgateway.StatusSuccess {
		t.Errorf("expected success, got %q", resp.Status)
	}
	if resp.Response == "" {
		t.Error("response text is empty")
	}
	if resp.Reasoning != nil {
		t.Error("reasoning must be absent without thinking parameters")
	}
	if resp.Citations != nil {
		t.Error("citations must be absent without web search")
	}
}

func TestProvider_GenerateThinkingAndSearch(t *testing.T) {
	provider := NewProvider()
	req := &llmgateway.GenerationRequest{
		Prompt: "Capital of France",
		Model:  "lorem-instant",
		Tools:  []llmgateway.ToolCapability{llmgateway.ToolWebSearch},
	}
	params := &llmgateway.ThinkingParameters{Shape: llmgateway.ShapeBudget, BudgetTokens: 40, Enabled: true}

	events, err := provider.Generate(context.Background(), req, params)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	resp := llmgateway.FoldEvents(req.Model, events)
	if resp.Reasoning == nil || len(strings.Fields(*resp.Reasoning)) < 40 {
		t.Errorf("expected at least 40 words of reasoning, got %v", resp.Reasoning)
	}
	want := []string{"https://example.com/lorem/capital-of-france", "https://example.org/ipsum/capital-of-france"}
	if len(resp.Citations) != 2 || resp.Citations[0] != want[0] || resp.Citations[1] != want[1] {
		t.Errorf("Citations = %v, want %v", resp.Citations, want)
	}
}

func TestProvider_GenerateScripted(t *testing.T) {
	provider := NewProvider()

	events, err := provider.Generate(context.Background(), &llmgateway.GenerationRequest{Prompt: "x", Model: "lorem-instant-blocked"}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(events) != 1 || events[0].Control != llmgateway.ControlSafetyBlocked {
		t.Errorf("blocked model events = %+v", events)
	}

	_, err = provider.Generate(context.Background(), &llmgateway.GenerationRequest{Prompt: "x", Model: "lorem-instant-broken"}, nil)
	if !errors.Is(err, ErrConnectionReset) {
		t.Errorf("broken model error = %v", err)
	}
	if llmgateway.KindOf(err) != llmgateway.KindTransport {
		t.Errorf("KindOf() = %q", llmgateway.KindOf(err))
	}
}

func TestProvider_Stream(t *testing.T) {
	provider := NewProvider()
	req := &llmgateway.GenerationRequest{Prompt: "Stream test", Model: "lorem-instant"}
	params := &llmgateway.ThinkingParameters{Shape: llmgateway.ShapeBudget, BudgetTokens: 20, Enabled: true}

	var thoughts, messages int
	var last llmgateway.Event
	for ev := range provider.Stream(context.Background(), req, params) {
		if ev.IsEmptyFragment() {
			t.Error("empty fragment emitted")
		}
		switch ev.Kind {
		case llmgateway.EventThought:
			if messages > 0 {
				t.Error("thought after message")
			}
			thoughts++
		case llmgateway.EventMessage:
			messages++
		}
		last = ev
	}

	if thoughts == 0 || messages == 0 {
		t.Errorf("thoughts=%d messages=%d, want both > 0", thoughts, messages)
	}
	if last.Control != llmgateway.ControlDone {
		t.Errorf("last event = %+v, want Done", last)
	}
}

func TestProvider_StreamScripted(t *testing.T) {
	provider := NewProvider()

	tests := []struct {
		model    string
		wantKind llmgateway.EventKind
		control  llmgateway.ControlKind
	}{
		{"lorem-instant-blocked", llmgateway.EventControl, llmgateway.ControlSafetyBlocked},
		{"lorem-instant-broken", llmgateway.EventFailure, ""},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			events := llmgateway.Collect(provider.Stream(context.Background(),
				&llmgateway.GenerationRequest{Prompt: "x", Model: tt.model},
				&llmgateway.ThinkingParameters{Enabled: true}))

			if len(events) != scriptedPrefixWords+1 {
				t.Fatalf("expected %d events, got %d", scriptedPrefixWords+1, len(events))
			}
			for _, ev := range events[:scriptedPrefixWords] {
				if ev.Kind != llmgateway.EventMessage {
					t.Errorf("expected message before terminal, got %v", ev.Kind)
				}
			}
			last := events[len(events)-1]
			if last.Kind != tt.wantKind || last.Control != tt.control {
				t.Errorf("terminal = %+v", last)
			}
		})
	}
}

func TestProvider_StreamCancellation(t *testing.T) {
	provider := NewProvider()
	ctx, cancel := context.WithCancel(context.Background())

	var count int
	start := time.Now()
	for range provider.Stream(ctx, &llmgateway.GenerationRequest{Prompt: "x", Model: "lorem-slow"}, nil) {
		count++
		cancel()
	}

	if count != 1 {
		t.Errorf("expected 1 event before cancellation, got %d", count)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("stream did not stop promptly after cancellation")
	}
}

func TestGetStreamDelay(t *testing.T) {
	tests := []struct {
		model string
		want  time.Duration
	}{
		{"lorem-instant", 0},
		{"lorem-slow", 500 * time.Millisecond},
		{"lorem-fast", 33 * time.Millisecond},
		{"lorem-medium", 100 * time.Millisecond},
		{"lorem-other", 100 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := getStreamDelay(tt.model); got != tt.want {
			t.Errorf("getStreamDelay(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}
