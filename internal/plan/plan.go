// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan decomposes a question into web search queries.
package plan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/logging"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// ErrNoQueries is returned when the model's reply contains no usable line.
var ErrNoQueries = errors.New("planner returned no usable queries")

var planPromptTmpl = template.Must(template.New("plan").Parse(`You are planning web searches to answer a question.

Write between 1 and {{.MaxQueries}} concise search engine queries that together would find the information needed to answer the question below.

Rules:
- Write exactly one query per line.
- Do not number the queries or add bullets.
- Do not add explanations, headings, or any other text.

Question: {{.Question}}
`))

// Planner issues one completion call per question.
type Planner struct {
	completer  llm.Completer
	maxQueries int
	logger     *zap.Logger
}

// New returns a Planner that keeps at most cfg.MaxQueries queries, clamped
// to 1..types.MaxPlannedQueries.
func New(completer llm.Completer, cfg types.PlannerConfig, logger *zap.Logger) *Planner {
	n := cfg.MaxQueries
	if n <= 0 || n > types.MaxPlannedQueries {
		n = types.MaxPlannedQueries
	}
	return &Planner{completer: completer, maxQueries: n, logger: logging.OrNop(logger)}
}

// Plan asks the model for search queries. It returns an error when the
// completion call fails or yields nothing usable; callers then search for
// the question itself.
func (p *Planner) Plan(ctx context.Context, model, question string) ([]string, error) {
	prompt, err := renderPrompt(question, p.maxQueries)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := p.completer.Complete(ctx, model, prompt)
	if err != nil {
		return nil, fmt.Errorf("planning completion: %w", err)
	}

	queries := ParseQueries(raw, p.maxQueries)
	if len(queries) == 0 {
		return nil, ErrNoQueries
	}
	p.logger.Debug("queries planned", zap.Strings("queries", queries))
	return queries, nil
}

// ParseQueries splits a model reply into lines, trims them, drops blank
// lines, and keeps at most max.
func ParseQueries(raw string, max int) []string {
	var queries []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		queries = append(queries, line)
		if len(queries) == max {
			break
		}
	}
	return queries
}

func renderPrompt(question string, maxQueries int) (string, error) {
	var buf bytes.Buffer
	err := planPromptTmpl.Execute(&buf, struct {
		Question   string
		MaxQueries int
	}{Question: question, MaxQueries: maxQueries})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
