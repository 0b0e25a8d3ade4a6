// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides the text-completion capability consumed by the
// planner, the synthesizer, and no-search mode.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Completer turns a prompt into text. An empty model selects the backend's
// configured default.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, model, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, model, prompt string) (string, error) {
	return f(ctx, model, prompt)
}

// NewCompleter builds the backend named by cfg.Provider.
func NewCompleter(ctx context.Context, cfg types.AIConfig) (Completer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s API key is required", cfg.Provider)
	}
	switch cfg.Provider {
	case types.ProviderClaude:
		return &ClaudeBackend{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Client:    &http.Client{Timeout: cfg.Timeout},
		}, nil
	case types.ProviderGemini:
		return NewGeminiBackend(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}
