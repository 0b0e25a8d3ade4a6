// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Completion providers understood by llm.NewCompleter.
const (
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// DefaultSearchEndpoint is the DuckDuckGo HTML results page. It needs no API
// key and serves markup that ExtractResults understands.
const DefaultSearchEndpoint = "https://html.duckduckgo.com/html/"

// DefaultUserAgent is a desktop browser identifier. The HTML endpoint serves
// an empty page to obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// MaxPlannedQueries is the hard upper bound on queries per question.
const MaxPlannedQueries = 3

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds each HTTP request, including reading the body.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for live search and the offline fallback.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoint is the search results page; the query is sent as ?q=.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// ResultsPerQuery caps the results kept for each planned query (default 3).
	ResultsPerQuery int `json:"results_per_query" yaml:"results_per_query"`

	// RateLimitRPS throttles live requests across all goroutines (default 1).
	// Zero disables throttling.
	RateLimitRPS float64 `json:"rate_limit_rps" yaml:"rate_limit_rps"`

	// MaxRetries is the number of retries on HTTP 429 (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Concurrency is the number of planned queries searched in parallel (default 3).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// FallbackFile optionally replaces the built-in offline topic table
	// with a YAML file.
	FallbackFile string `json:"fallback_file,omitempty" yaml:"fallback_file,omitempty"`

	// SkipFallbackOnEmpty keeps a successful page with zero results as an
	// empty live retrieval instead of consulting the offline source. The zero
	// value falls back.
	SkipFallbackOnEmpty bool `json:"skip_fallback_on_empty,omitempty" yaml:"skip_fallback_on_empty,omitempty"`
}

// Validate checks the search settings.
func (c SearchConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Required),
		validation.Field(&c.Endpoint, validation.Required, is.URL),
		validation.Field(&c.ResultsPerQuery, validation.Required, validation.Min(1)),
		validation.Field(&c.RateLimitRPS, validation.Min(0.0)),
		validation.Field(&c.MaxRetries, validation.Min(0)),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1)),
	)
}

// AIConfig holds settings for the completion capability.
type AIConfig struct {
	// Provider selects the backend: "claude" or "gemini".
	Provider string `json:"provider" yaml:"provider"`

	// Model is the default model identifier. A per-request model overrides it.
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint. Useful for proxies and tests.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxTokens caps the completion length (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Timeout bounds one completion call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Validate checks the completion settings. The API key is checked when the
// backend is constructed so that offline commands work without one.
func (c AIConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Provider, validation.Required, validation.In(ProviderClaude, ProviderGemini)),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.BaseURL, is.URL),
		validation.Field(&c.MaxTokens, validation.Min(1)),
	)
}

// PlannerConfig holds settings for query decomposition.
type PlannerConfig struct {
	// MaxQueries is the number of planned queries kept (1-3, default 3).
	MaxQueries int `json:"max_queries" yaml:"max_queries"`
}

// Validate checks the planner settings.
func (c PlannerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxQueries, validation.Required, validation.Min(1), validation.Max(MaxPlannedQueries)),
	)
}

// EvidenceConfig holds settings for evidence aggregation.
type EvidenceConfig struct {
	// MaxResults caps the evidence set handed to synthesis (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// Validate checks the evidence settings.
func (c EvidenceConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxResults, validation.Required, validation.Min(1)),
	)
}

// HistoryConfig locates the run archive.
type HistoryConfig struct {
	// DBPath is the SQLite file that stores past outcomes.
	DBPath string `json:"db_path" yaml:"db_path"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	AI       AIConfig       `json:"ai" yaml:"ai"`
	Planner  PlannerConfig  `json:"planner" yaml:"planner"`
	Evidence EvidenceConfig `json:"evidence" yaml:"evidence"`
	History  HistoryConfig  `json:"history" yaml:"history"`
}

// Validate checks every stage configuration.
func (c PipelineConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Search),
		validation.Field(&c.AI),
		validation.Field(&c.Planner),
		validation.Field(&c.Evidence),
	)
}

// DefaultPipelineConfig returns the configuration used when no file or
// environment overrides are present.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   15 * time.Second,
				UserAgent: DefaultUserAgent,
			},
			Endpoint:        DefaultSearchEndpoint,
			ResultsPerQuery: 3,
			RateLimitRPS:    1,
			MaxRetries:      2,
			Concurrency:     3,
		},
		AI: AIConfig{
			Provider:  ProviderClaude,
			Model:     "claude-sonnet-4-5-20250929",
			MaxTokens: 2048,
			Timeout:   90 * time.Second,
		},
		Planner:  PlannerConfig{MaxQueries: MaxPlannedQueries},
		Evidence: EvidenceConfig{MaxResults: 5},
		History:  HistoryConfig{DBPath: "answer-engine.db"},
	}
}
