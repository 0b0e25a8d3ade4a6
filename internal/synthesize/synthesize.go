// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesize writes the final answer from an evidence set.
package synthesize

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/logging"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// answerPromptTmpl lists each evidence item as an indexed block. Index
// numbers start at 1 to match the citation style the model is asked to use.
var answerPromptTmpl = template.Must(template.New("answer").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`You are a research assistant. Answer the question using only the search results provided below.

Question: {{.Question}}

Search results:
{{- if .Evidence}}
{{range $i, $r := .Evidence}}
[{{inc $i}}] {{$r.Title}}
{{$r.Snippet}}
URL: {{$r.URL}}
{{end}}
{{- else}}
(no search results were retrieved)
{{end}}
Instructions:
- Base your answer only on the search results above; do not add outside facts.
- Name the titles of the sources you used, citing them by their [number].
- If the results do not contain enough information to answer fully, say what is missing.
`))

// directPromptTmpl is used in no-search mode.
var directPromptTmpl = template.Must(template.New("direct").Parse(`Answer the following question clearly and concisely.

Question: {{.Question}}
`))

// Answer is the synthesized text together with the URLs of the evidence it
// was given.
type Answer struct {
	Text    string
	Sources []string
}

// Synthesizer issues one completion call per answer.
type Synthesizer struct {
	completer llm.Completer
	logger    *zap.Logger
}

// New returns a Synthesizer backed by completer.
func New(completer llm.Completer, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{completer: completer, logger: logging.OrNop(logger)}
}

// Synthesize answers question from ev. The model's text is returned
// verbatim. Sources is always ev.URLs() and is never derived from the text.
func (s *Synthesizer) Synthesize(ctx context.Context, model, question string, ev types.EvidenceSet) (Answer, error) {
	prompt, err := RenderPrompt(question, ev)
	if err != nil {
		return Answer{}, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := s.completer.Complete(ctx, model, prompt)
	if err != nil {
		return Answer{}, fmt.Errorf("synthesis completion: %w", err)
	}
	s.logger.Debug("answer synthesized", zap.Int("evidence", len(ev)), zap.Int("chars", len(text)))

	return Answer{Text: text, Sources: ev.URLs()}, nil
}

// Direct answers question without evidence, for no-search mode.
func (s *Synthesizer) Direct(ctx context.Context, model, question string) (string, error) {
	var buf bytes.Buffer
	if err := directPromptTmpl.Execute(&buf, struct{ Question string }{question}); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	text, err := s.completer.Complete(ctx, model, buf.String())
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	return text, nil
}

// RenderPrompt builds the citation prompt for question and ev.
func RenderPrompt(question string, ev types.EvidenceSet) (string, error) {
	var buf bytes.Buffer
	err := answerPromptTmpl.Execute(&buf, struct {
		Question string
		Evidence types.EvidenceSet
	}{Question: question, Evidence: ev})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
