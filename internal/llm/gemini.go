// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// GeminiBackend calls the Gemini API through the genai SDK.
type GeminiBackend struct {
	client    *genai.Client
	model     string
	maxTokens int32

	// timeout bounds one Complete call. Zero means no limit beyond ctx.
	timeout time.Duration
}

// NewGeminiBackend creates a Gemini client. BaseURL overrides the API host,
// which tests point at an httptest server.
func NewGeminiBackend(ctx context.Context, cfg types.AIConfig) (*GeminiBackend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &GeminiBackend{
		client:    client,
		model:     strings.TrimSpace(cfg.Model),
		maxTokens: int32(maxTokens),
		timeout:   cfg.Timeout,
	}, nil
}

// Complete generates a single candidate for prompt and returns its text.
func (g *GeminiBackend) Complete(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = g.model
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("Gemini API returned empty content")
	}
	return text, nil
}
