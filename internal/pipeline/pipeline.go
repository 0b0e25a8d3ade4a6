// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline turns a question into a ResearchOutcome, either by asking
// the model directly or by planning searches, gathering evidence, and
// synthesizing a cited answer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/answer-engine/internal/evidence"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/logging"
	"github.com/pdiddy/answer-engine/internal/plan"
	"github.com/pdiddy/answer-engine/internal/search"
	"github.com/pdiddy/answer-engine/internal/synthesize"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// ErrEmptyQuestion is reported when a request has no question text.
var ErrEmptyQuestion = errors.New("question is empty")

// defaultConcurrency bounds parallel searches when none is configured.
const defaultConcurrency = 3

// Searcher runs one search query. *search.Executor implements it.
type Searcher interface {
	Search(ctx context.Context, query string) search.Retrieval
}

// Request is one question to answer.
type Request struct {
	Question string
	Mode     types.Mode

	// Model overrides the configured model when non-empty.
	Model string
}

// Pipeline wires the planner, searcher, aggregator, and synthesizer. It holds
// no per-run state and may serve concurrent Run calls.
type Pipeline struct {
	planner     *plan.Planner
	searcher    Searcher
	synth       *synthesize.Synthesizer
	model       string
	maxEvidence int
	concurrency int
	logger      *zap.Logger

	// Progress, when set, receives each trace line as it is produced.
	Progress io.Writer
}

// New builds a Pipeline. The same completer serves planning, synthesis, and
// direct answers.
func New(completer llm.Completer, searcher Searcher, cfg types.PipelineConfig, logger *zap.Logger) *Pipeline {
	logger = logging.OrNop(logger)
	concurrency := cfg.Search.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Pipeline{
		planner:     plan.New(completer, cfg.Planner, logger),
		searcher:    searcher,
		synth:       synthesize.New(completer, logger),
		model:       cfg.AI.Model,
		maxEvidence: cfg.Evidence.MaxResults,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run answers req. It never returns an error: failures are reported through
// the outcome's Success and Error fields.
func (p *Pipeline) Run(ctx context.Context, req Request) types.ResearchOutcome {
	out := types.ResearchOutcome{Mode: req.Mode}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		out.Error = ErrEmptyQuestion.Error()
		return out
	}
	model := req.Model
	if model == "" {
		model = p.model
	}

	start := time.Now()
	switch req.Mode {
	case types.ModeNoSearch:
		p.direct(ctx, model, question, &out)
	case types.ModeWebSearch:
		p.research(ctx, model, question, &out)
	default:
		out.Error = fmt.Errorf("%w %q", types.ErrUnknownMode, req.Mode).Error()
		return out
	}

	p.logger.Debug("pipeline finished",
		zap.String("mode", string(req.Mode)),
		zap.Bool("success", out.Success),
		zap.Duration("elapsed", time.Since(start)))
	return out
}

func (p *Pipeline) direct(ctx context.Context, model, question string, out *types.ResearchOutcome) {
	answer, err := p.synth.Direct(ctx, model, question)
	if err != nil {
		p.logger.Error("direct answer failed", zap.Error(err))
		out.Error = err.Error()
		return
	}
	out.Success = true
	out.Answer = answer
}

func (p *Pipeline) research(ctx context.Context, model, question string, out *types.ResearchOutcome) {
	var tr trace
	tr.w = p.Progress

	queries, err := p.planner.Plan(ctx, model, question)
	if err != nil {
		p.logger.Warn("query planning failed, searching for the question itself", zap.Error(err))
		queries = []string{question}
		tr.addf("planning failed (%v); searching for the question verbatim", err)
	} else {
		tr.addf("planned %d queries: %s", len(queries), strings.Join(queries, " | "))
	}

	retrievals := p.searchAll(ctx, queries)
	batches := make([][]types.SearchResult, len(retrievals))
	for i, r := range retrievals {
		batches[i] = r.Results
		if r.Reason != "" {
			tr.addf("query %q: %s (%s), %d results", r.Query, r.Origin, r.Reason, len(r.Results))
		} else {
			tr.addf("query %q: %s, %d results", r.Query, r.Origin, len(r.Results))
		}
	}

	ev, stats := evidence.Aggregate(batches, p.maxEvidence)
	tr.addf("evidence: %d unique of %d results (%d duplicates, %d truncated)",
		len(ev), stats.Total, stats.Duplicates, stats.Truncated)

	out.Evidence = ev
	out.Sources = ev.URLs()

	ans, err := p.synth.Synthesize(ctx, model, question, ev)
	if err != nil {
		p.logger.Error("answer synthesis failed", zap.Error(err))
		tr.addf("synthesis failed: %v", err)
		out.Error = err.Error()
		out.Trace = tr.String()
		return
	}

	out.Success = true
	out.Answer = ans.Text
	out.Sources = ans.Sources
	out.Trace = tr.String()
}

// searchAll runs every query with at most p.concurrency in flight. Results
// are returned in query order regardless of completion order.
func (p *Pipeline) searchAll(ctx context.Context, queries []string) []search.Retrieval {
	results := make([]search.Retrieval, len(queries))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, q := range queries {
		g.Go(func() error {
			results[i] = p.searcher.Search(ctx, q)
			return nil
		})
	}
	// Search never fails, so Wait has nothing to report.
	_ = g.Wait()

	return results
}

// trace accumulates the human-readable run summary.
type trace struct {
	lines []string
	w     io.Writer
}

func (t *trace) addf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	t.lines = append(t.lines, line)
	if t.w != nil {
		fmt.Fprintln(t.w, line)
	}
}

func (t *trace) String() string {
	return strings.Join(t.lines, "\n")
}
