package llmgateway

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Gateway dispatches uniform requests to registered backends.
// It runs the pre-flight checks, resolves thinking parameters and guards
// every stream so that it ends with exactly one terminal event.
//
// Registration happens at startup; after that a Gateway is safe for
// concurrent use.
type Gateway struct {
	resolver   *Resolver
	validation *ValidationEngine
	logger     *slog.Logger

	mu          sync.RWMutex
	providers   map[ProviderID]Provider
	unavailable map[ProviderID]error
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for invocation logs.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithValidationEngine replaces the engine that produces pre-flight warnings.
func WithValidationEngine(ve *ValidationEngine) Option {
	return func(g *Gateway) {
		if ve != nil {
			g.validation = ve
		}
	}
}

// New creates a Gateway over resolver.
func New(resolver *Resolver, opts ...Option) *Gateway {
	g := &Gateway{
		resolver:    resolver,
		validation:  NewValidationEngine(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		providers:   make(map[ProviderID]Provider),
		unavailable: make(map[ProviderID]error),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register adds p under p.Name(), replacing any earlier registration.
func (g *Gateway) Register(p Provider) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.providers[p.Name()] = p
	delete(g.unavailable, p.Name())
}

// RegisterUnavailable records a backend that exists but cannot serve
// requests, typically because of a CredentialError. Requests to it fail
// pre-flight with err.
func (g *Gateway) RegisterUnavailable(id ProviderID, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.providers, id)
	g.unavailable[id] = err
}

// Providers returns the ids of every registered backend, usable or not, sorted.
func (g *Gateway) Providers() []ProviderID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]ProviderID, 0, len(g.providers)+len(g.unavailable))
	for id := range g.providers {
		ids = append(ids, id)
	}
	for id := range g.unavailable {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Provider returns the usable backend registered under id.
func (g *Gateway) Provider(id ProviderID) (Provider, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if p, ok := g.providers[id]; ok {
		return p, nil
	}
	if err, ok := g.unavailable[id]; ok {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
}

// Capabilities returns the capabilities of a usable backend. The second
// result is false for unknown and unavailable backends.
func (g *Gateway) Capabilities(id ProviderID) (Capabilities, bool) {
	p, err := g.Provider(id)
	if err != nil {
		return Capabilities{}, false
	}
	return p.Capabilities(), true
}

// Invocation is a request that passed pre-flight and is bound to a backend.
type Invocation struct {
	ID       string
	Provider Provider
	Request  GenerationRequest
	Params   *ThinkingParameters
	Warnings []ValidationWarning
}

// Prepare runs the pre-flight phase: validation, backend lookup, default
// model selection, model and tool support checks, thinking resolution.
// Every error it returns classifies as KindConfiguration.
func (g *Gateway) Prepare(id ProviderID, req GenerationRequest) (*Invocation, error) {
	if err := ValidateRequest(&req); err != nil {
		return nil, err
	}

	p, err := g.Provider(id)
	if err != nil {
		return nil, err
	}
	caps := p.Capabilities()

	model := req.Model
	if model == "" {
		model = caps.ModelFor(req.WantsReasoning())
	}
	if !p.SupportsModel(model) {
		return nil, &ModelError{
			Model:    model,
			Provider: id.String(),
			Reason:   "model not served by this backend",
			Err:      ErrInvalidModel,
		}
	}
	if req.HasTool(ToolWebSearch) && !caps.Search {
		return nil, &ModelError{
			Model:    model,
			Provider: id.String(),
			Reason:   "web search is not available",
			Err:      ErrUnsupportedFeature,
		}
	}

	inv := &Invocation{
		ID:       uuid.NewString(),
		Provider: p,
		Request:  req.WithModel(model),
	}

	if req.WantsReasoning() {
		params, err := g.resolver.Resolve(model, req.EffortLevel)
		if err != nil {
			return nil, err
		}
		inv.Params = &params
	}
	inv.Warnings = g.validation.Validate(inv)

	return inv, nil
}

// Generate performs a non-streaming invocation. Pre-flight and backend
// failures are returned as errors; a safety block is a successful call with
// Status "blocked".
func (g *Gateway) Generate(ctx context.Context, id ProviderID, req GenerationRequest) (*NormalizedResponse, error) {
	inv, err := g.Prepare(id, req)
	if err != nil {
		g.logPreflight(id, req, false, err)
		return nil, err
	}
	log := g.invocationLogger(inv, false)
	log.Debug("invocation started")

	events, err := inv.Provider.Generate(ctx, &inv.Request, inv.Params)
	if err != nil {
		log.Warn("invocation failed", "error_kind", KindOf(err), "error", err)
		return nil, err
	}

	resp := FoldEvents(inv.Request.Model, events)
	if resp.Status == StatusError {
		err := fmt.Errorf("%w: %s", ErrProviderUnavailable, resp.Detail)
		log.Warn("invocation failed", "error_kind", KindTransport, "error", err)
		return nil, err
	}
	log.Info("invocation finished", "status", resp.Status)
	return resp, nil
}

// Stream performs a streaming invocation. Pre-flight failures are delivered
// in-band as a single Failure event; the returned sequence always ends with
// exactly one terminal event unless ctx is cancelled first.
func (g *Gateway) Stream(ctx context.Context, id ProviderID, req GenerationRequest) iter.Seq[Event] {
	inv, err := g.Prepare(id, req)
	if err != nil {
		g.logPreflight(id, req, true, err)
		return func(yield func(Event) bool) {
			yield(Failure(err))
		}
	}
	return g.StreamInvocation(ctx, inv)
}

// StreamInvocation streams an already prepared invocation.
func (g *Gateway) StreamInvocation(ctx context.Context, inv *Invocation) iter.Seq[Event] {
	log := g.invocationLogger(inv, true)
	guarded := GuardStream(ctx, inv.Provider.Stream(ctx, &inv.Request, inv.Params))

	return func(yield func(Event) bool) {
		log.Debug("invocation started")
		fragments := 0
		for ev := range guarded {
			if ev.IsTerminal() {
				g.logTerminal(log, ev, fragments)
			} else {
				fragments++
			}
			if !yield(ev) {
				if !ev.IsTerminal() {
					log.Info("invocation abandoned by consumer", "fragments", fragments)
				}
				return
			}
		}
		if ctx.Err() != nil {
			log.Info("invocation cancelled", "fragments", fragments, "error", ctx.Err())
		}
	}
}

func (g *Gateway) invocationLogger(inv *Invocation, streaming bool) *slog.Logger {
	log := g.logger.With(g.invocationAttrs(inv, streaming)...)
	for _, w := range inv.Warnings {
		level := slog.LevelDebug
		if w.Severity == SeverityWarning {
			level = slog.LevelWarn
		}
		log.Log(context.Background(), level, w.Message, "code", w.Code, "field", w.Field)
	}
	return log
}

func (g *Gateway) invocationAttrs(inv *Invocation, streaming bool) []any {
	attrs := []any{
		"invocation_id", inv.ID,
		"provider", inv.Provider.Name(),
		"model", inv.Request.Model,
		"streaming", streaming,
	}
	if inv.Params != nil {
		attrs = append(attrs, "level", inv.Params.Level, "thinking_family", inv.Params.Family)
	}
	return attrs
}

func (g *Gateway) logPreflight(id ProviderID, req GenerationRequest, streaming bool, err error) {
	g.logger.Warn("invocation rejected",
		"provider", id,
		"model", req.Model,
		"streaming", streaming,
		"error_kind", KindOf(err),
		"error", err,
	)
}

func (g *Gateway) logTerminal(log *slog.Logger, ev Event, fragments int) {
	switch {
	case ev.Kind == EventFailure:
		log.Warn("invocation failed", "fragments", fragments, "error_kind", KindOf(ev.Err), "error", ev.Detail)
	case ev.Control == ControlSafetyBlocked:
		log.Info("invocation blocked", "fragments", fragments, "error_kind", KindContentPolicy)
	default:
		log.Info("invocation finished", "fragments", fragments)
	}
}
