package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	llmgateway "github.com/wallscreet/llm-gateway"
	"github.com/wallscreet/llm-gateway/internal/config"
	"github.com/wallscreet/llm-gateway/providers/anthropic"
	"github.com/wallscreet/llm-gateway/providers/gemini"
	"github.com/wallscreet/llm-gateway/providers/lorem"
	"github.com/wallscreet/llm-gateway/providers/ollama"
	"github.com/wallscreet/llm-gateway/providers/xai"
)

// newResolver uses the configured thinking table, or the embedded one.
func newResolver(cfg *config.Config) (*llmgateway.Resolver, error) {
	if cfg.Thinking.TablePath == "" {
		return llmgateway.DefaultResolver()
	}
	table, err := llmgateway.LoadThinkingTableFile(cfg.Thinking.TablePath)
	if err != nil {
		return nil, err
	}
	return llmgateway.NewResolver(table)
}

// buildGateway constructs every backend from cfg. A backend without its
// credential is registered as unavailable; any other construction error
// aborts startup.
func buildGateway(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*llmgateway.Gateway, error) {
	resolver, err := newResolver(cfg)
	if err != nil {
		return nil, fmt.Errorf("thinking table: %w", err)
	}

	gw := llmgateway.New(resolver, llmgateway.WithLogger(logger))
	p := cfg.Providers

	g, err := gemini.NewProvider(ctx, p.Gemini.APIKey)
	if err := register(gw, logger, llmgateway.ProviderGemini, g, err); err != nil {
		return nil, err
	}

	x, err := xai.NewProvider(p.XAI.APIKey, xai.WithLogger(logger))
	if err := register(gw, logger, llmgateway.ProviderXAI, x, err); err != nil {
		return nil, err
	}

	a, err := anthropic.NewProvider(p.Anthropic.APIKey)
	if err := register(gw, logger, llmgateway.ProviderAnthropic, a, err); err != nil {
		return nil, err
	}

	o := ollama.NewProvider(p.Ollama.BaseURL, ollama.WithDefaultModel(p.Ollama.Model))
	if err := register(gw, logger, llmgateway.ProviderOllama, o, nil); err != nil {
		return nil, err
	}

	if p.Lorem.Enabled {
		l := lorem.NewProvider(lorem.WithLogger(logger))
		if err := register(gw, logger, llmgateway.ProviderLorem, l, nil); err != nil {
			return nil, err
		}
	}

	return gw, nil
}

func register(gw *llmgateway.Gateway, logger *slog.Logger, id llmgateway.ProviderID, p llmgateway.Provider, err error) error {
	var credErr *llmgateway.CredentialError
	switch {
	case err == nil:
		gw.Register(p)
		caps := p.Capabilities()
		logger.Info("provider registered", "provider", id, "default_model", caps.DefaultModel, "search", caps.Search)
	case errors.As(err, &credErr):
		gw.RegisterUnavailable(id, err)
		logger.Warn("provider unavailable", "provider", id, "env", credErr.EnvVar)
	default:
		return fmt.Errorf("init %s provider: %w", id, err)
	}
	return nil
}
