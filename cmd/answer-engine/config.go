// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/search"
	"github.com/pdiddy/answer-engine/internal/secrets"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// setDefaults registers every configuration key with its default value.
func setDefaults(v *viper.Viper) {
	d := types.DefaultPipelineConfig()

	v.SetDefault("ai.provider", d.AI.Provider)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.base_url", d.AI.BaseURL)
	v.SetDefault("ai.max_tokens", d.AI.MaxTokens)
	v.SetDefault("ai.timeout", d.AI.Timeout)

	v.SetDefault("search.endpoint", d.Search.Endpoint)
	v.SetDefault("search.timeout", d.Search.Timeout)
	v.SetDefault("search.user_agent", d.Search.UserAgent)
	v.SetDefault("search.results_per_query", d.Search.ResultsPerQuery)
	v.SetDefault("search.rate_limit_rps", d.Search.RateLimitRPS)
	v.SetDefault("search.max_retries", d.Search.MaxRetries)
	v.SetDefault("search.concurrency", d.Search.Concurrency)
	v.SetDefault("search.fallback_file", d.Search.FallbackFile)
	v.SetDefault("search.fallback_on_empty", !d.Search.SkipFallbackOnEmpty)

	v.SetDefault("planner.max_queries", d.Planner.MaxQueries)
	v.SetDefault("evidence.max_results", d.Evidence.MaxResults)
	v.SetDefault("history.db", d.History.DBPath)
}

// pipelineConfig reads the pipeline configuration from v, attaches the API
// key for the selected provider from keys, and validates the result.
func pipelineConfig(v *viper.Viper, keys map[string]string) (types.PipelineConfig, error) {
	cfg := types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("search.timeout"),
				UserAgent: v.GetString("search.user_agent"),
			},
			Endpoint:            v.GetString("search.endpoint"),
			ResultsPerQuery:     v.GetInt("search.results_per_query"),
			RateLimitRPS:        v.GetFloat64("search.rate_limit_rps"),
			MaxRetries:          v.GetInt("search.max_retries"),
			Concurrency:         v.GetInt("search.concurrency"),
			FallbackFile:        v.GetString("search.fallback_file"),
			SkipFallbackOnEmpty: !v.GetBool("search.fallback_on_empty"),
		},
		AI: types.AIConfig{
			Provider:  v.GetString("ai.provider"),
			Model:     v.GetString("ai.model"),
			BaseURL:   v.GetString("ai.base_url"),
			MaxTokens: v.GetInt("ai.max_tokens"),
			Timeout:   v.GetDuration("ai.timeout"),
		},
		Planner:  types.PlannerConfig{MaxQueries: v.GetInt("planner.max_queries")},
		Evidence: types.EvidenceConfig{MaxResults: v.GetInt("evidence.max_results")},
		History:  types.HistoryConfig{DBPath: v.GetString("history.db")},
	}
	cfg.AI.APIKey = secrets.APIKeyFor(cfg.AI.Provider, keys)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newExecutor builds the search executor, loading a replacement fallback
// table when one is configured.
func newExecutor(cfg types.SearchConfig) (*search.Executor, error) {
	var knowledge search.KnowledgeSource
	if cfg.FallbackFile != "" {
		topics, err := search.LoadTopics(cfg.FallbackFile)
		if err != nil {
			return nil, err
		}
		knowledge = search.NewStaticKnowledge(topics)
	}
	return search.NewExecutor(httputil.NewClient(cfg, logger), knowledge, cfg, logger), nil
}

// newCompleter builds the completion backend for cfg.
func newCompleter(ctx context.Context, cfg types.AIConfig) (llm.Completer, error) {
	c, err := llm.NewCompleter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w (set %s in .secrets/ or .env)", err, keyNameFor(cfg.Provider))
	}
	return c, nil
}

func keyNameFor(provider string) string {
	if provider == types.ProviderGemini {
		return secrets.GeminiAPIKey
	}
	return secrets.AnthropicAPIKey
}
