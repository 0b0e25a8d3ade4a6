// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs one query against the live web search page and falls
// back to an offline KnowledgeSource when the page is unreachable or empty.
package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/internal/logging"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Origin records where a Retrieval's results came from.
type Origin string

const (
	OriginLive     Origin = "live"
	OriginFallback Origin = "fallback"
)

// Reasons recorded when live search is not used. They distinguish an
// unreachable provider from one that answered with nothing.
const (
	ReasonTransport = "transport error"
	ReasonNoResults = "no results"
	ReasonParse     = "unparseable page"
)

// Retrieval is the outcome of searching one query.
type Retrieval struct {
	Query   string
	Results []types.SearchResult
	Origin  Origin

	// Reason explains a fallback, e.g. "http 503" or "transport error".
	// Empty for live results.
	Reason string

	Elapsed time.Duration
}

// Executor searches one query at a time. It is safe for concurrent use when
// its Fetcher and KnowledgeSource are.
type Executor struct {
	fetcher     httputil.Fetcher
	knowledge   KnowledgeSource
	endpoint    string
	userAgent   string
	limit       int
	skipOnEmpty bool
	logger      *zap.Logger
}

// NewExecutor wires a fetcher and fallback source with the search settings.
// A nil knowledge source uses the built-in topic table.
func NewExecutor(fetcher httputil.Fetcher, knowledge KnowledgeSource, cfg types.SearchConfig, logger *zap.Logger) *Executor {
	if knowledge == nil {
		knowledge = NewStaticKnowledge(nil)
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = types.DefaultSearchEndpoint
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = types.DefaultUserAgent
	}
	limit := cfg.ResultsPerQuery
	if limit <= 0 {
		limit = 3
	}
	return &Executor{
		fetcher:     fetcher,
		knowledge:   knowledge,
		endpoint:    endpoint,
		userAgent:   userAgent,
		limit:       limit,
		skipOnEmpty: cfg.SkipFallbackOnEmpty,
		logger:      logging.OrNop(logger),
	}
}

// Search returns at most the configured number of results for query. It
// never fails: transport errors, non-2xx responses, and empty pages switch
// to the knowledge source, and the switch is logged and reported in the
// Retrieval.
func (e *Executor) Search(ctx context.Context, query string) Retrieval {
	start := time.Now()
	ret := Retrieval{Query: query}

	results, reason := e.live(ctx, query)
	switch {
	case reason == "":
		ret.Origin = OriginLive
		ret.Results = results
	case reason == ReasonNoResults && e.skipOnEmpty:
		ret.Origin = OriginLive
		ret.Reason = reason
	default:
		ret.Origin = OriginFallback
		ret.Reason = reason
		ret.Results = e.knowledge.Lookup(query)
		e.logger.Warn("live search degraded, using fallback knowledge",
			zap.String("query", query),
			zap.String("reason", reason),
			zap.Int("results", len(ret.Results)))
	}

	if len(ret.Results) > e.limit {
		ret.Results = ret.Results[:e.limit]
	}
	ret.Elapsed = time.Since(start)

	e.logger.Debug("search finished",
		zap.String("query", query),
		zap.String("origin", string(ret.Origin)),
		zap.Int("results", len(ret.Results)),
		zap.Duration("elapsed", ret.Elapsed))
	return ret
}

// live fetches and parses the results page. The returned reason is empty on
// success and names the failure otherwise.
func (e *Executor) live(ctx context.Context, query string) ([]types.SearchResult, string) {
	if e.fetcher == nil {
		return nil, ReasonTransport
	}

	status, body, err := e.fetcher.Fetch(ctx, e.searchURL(query), e.headers())
	if err != nil {
		e.logger.Debug("search request failed", zap.String("query", query), zap.Error(err))
		return nil, ReasonTransport
	}
	if status < 200 || status > 299 {
		return nil, fmt.Sprintf("http %d", status)
	}

	results, err := ExtractResults(string(body))
	if err != nil {
		e.logger.Debug("search page unparseable", zap.String("query", query), zap.Error(err))
		return nil, ReasonParse
	}
	if len(results) == 0 {
		return nil, ReasonNoResults
	}
	return results, ""
}

func (e *Executor) searchURL(query string) string {
	sep := "?"
	if strings.Contains(e.endpoint, "?") {
		sep = "&"
	}
	return e.endpoint + sep + "q=" + url.QueryEscape(query)
}

func (e *Executor) headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", e.userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.5")
	return h
}
