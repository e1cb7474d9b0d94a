package llmgateway

import (
	"context"
	"iter"
	"strings"
)

// Test helper functions shared across test files

// scriptedProvider replays fixed event scripts.
type scriptedProvider struct {
	id     ProviderID
	caps   Capabilities
	models []string

	events    []Event
	genErr    error
	streamLen int // yield only the first streamLen events when > 0

	lastReq    *GenerationRequest
	lastParams *ThinkingParameters
	released   bool
}

func (p *scriptedProvider) Name() ProviderID { return p.id }

func (p *scriptedProvider) SupportsModel(model string) bool {
	for _, m := range p.models {
		if strings.HasPrefix(model, m) {
			return true
		}
	}
	return false
}

func (p *scriptedProvider) Capabilities() Capabilities { return p.caps }

func (p *scriptedProvider) Generate(_ context.Context, req *GenerationRequest, params *ThinkingParameters) ([]Event, error) {
	p.lastReq, p.lastParams = req, params
	if p.genErr != nil {
		return nil, p.genErr
	}
	return append([]Event(nil), p.events...), nil
}

func (p *scriptedProvider) Stream(_ context.Context, req *GenerationRequest, params *ThinkingParameters) iter.Seq[Event] {
	p.lastReq, p.lastParams = req, params
	events := p.events
	if p.streamLen > 0 {
		events = events[:p.streamLen]
	}
	return func(yield func(Event) bool) {
		defer func() { p.released = true }()
		for _, ev := range events {
			if !yield(ev) {
				return
			}
		}
	}
}

func newScripted(events ...Event) *scriptedProvider {
	return &scriptedProvider{
		id:     ProviderLorem,
		caps:   Capabilities{DefaultModel: "lorem-fast", DefaultReasoningModel: "lorem-slow", Reasoning: true, Search: true},
		models: []string{"lorem-"},
		events: events,
	}
}

func seqOf(events ...Event) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for _, ev := range events {
			if !yield(ev) {
				return
			}
		}
	}
}

func mustResolver() *Resolver {
	r, err := DefaultResolver()
	if err != nil {
		panic(err)
	}
	return r
}

func boolPtr(b bool) *bool {
	return &b
}
