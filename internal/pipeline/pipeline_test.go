// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/search"
	"github.com/pdiddy/answer-engine/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeCompleter answers by prompt kind and counts calls.
type fakeCompleter struct {
	mu       sync.Mutex
	calls    int
	prompts  []string
	plan     string
	planErr  error
	answer   string
	synthErr error
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if strings.Contains(prompt, "planning web searches") {
		return f.plan, f.planErr
	}
	return f.answer, f.synthErr
}

// stubSearcher returns canned results per query.
type stubSearcher struct {
	results map[string][]types.SearchResult
	delay   map[string]time.Duration

	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (s *stubSearcher) Search(_ context.Context, q string) search.Retrieval {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(s.delay[q])
	s.inFlight.Add(-1)
	return search.Retrieval{Query: q, Results: s.results[q], Origin: search.OriginLive}
}

func testConfig() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()
	cfg.AI.Model = "test-model"
	return cfg
}

func res(id string) types.SearchResult {
	return types.SearchResult{Title: "T" + id, URL: "https://r.example/" + id, Snippet: "S" + id}
}

func TestRun_NoSearchMakesOneCall(t *testing.T) {
	c := &fakeCompleter{answer: "Photosynthesis converts light energy into chemical energy."}
	s := &stubSearcher{}

	out := New(c, s, testConfig(), nil).Run(context.Background(), Request{
		Question: "Explain photosynthesis",
		Mode:     types.ModeNoSearch,
	})

	assert.True(t, out.Success)
	assert.Equal(t, "Photosynthesis converts light energy into chemical energy.", out.Answer)
	assert.Equal(t, types.ModeNoSearch, out.Mode)
	assert.Nil(t, out.Evidence)
	assert.Nil(t, out.Sources)
	assert.Empty(t, out.Error)
	assert.Equal(t, 1, c.calls)
	assert.Zero(t, s.calls.Load())
}

func TestRun_NoSearchFailure(t *testing.T) {
	c := &fakeCompleter{synthErr: errors.New("provider unavailable")}

	out := New(c, &stubSearcher{}, testConfig(), nil).Run(context.Background(), Request{
		Question: "Explain photosynthesis",
		Mode:     types.ModeNoSearch,
	})

	assert.False(t, out.Success)
	assert.Empty(t, out.Answer)
	assert.Contains(t, out.Error, "provider unavailable")
}

func TestRun_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"empty question", Request{Question: "  ", Mode: types.ModeWebSearch}, "question is empty"},
		{"unknown mode", Request{Question: "q", Mode: "deep_search"}, "unknown mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCompleter{answer: "x"}
			out := New(c, &stubSearcher{}, testConfig(), nil).Run(context.Background(), tt.req)
			assert.False(t, out.Success)
			assert.Contains(t, out.Error, tt.want)
			assert.Zero(t, c.calls)
		})
	}
}

func TestRun_WebSearchEvidenceAndSources(t *testing.T) {
	c := &fakeCompleter{plan: "q1\nq2\nq3", answer: "cited answer"}
	s := &stubSearcher{results: map[string][]types.SearchResult{
		"q1": {res("a"), res("b"), res("c")},
		"q2": {res("b"), res("d"), res("e")},
		"q3": {res("f"), res("a"), res("g")},
	}}

	out := New(c, s, testConfig(), nil).Run(context.Background(), Request{
		Question: "question",
		Mode:     types.ModeWebSearch,
	})

	require.True(t, out.Success, out.Error)
	assert.Equal(t, "cited answer", out.Answer)
	want := types.EvidenceSet{res("a"), res("b"), res("c"), res("d"), res("e")}
	if diff := cmp.Diff(want, out.Evidence); diff != "" {
		t.Errorf("evidence mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, out.Evidence.URLs(), out.Sources)
	assert.Equal(t, 2, c.calls, "one planning call and one synthesis call")
	assert.Contains(t, out.Trace, "planned 3 queries: q1 | q2 | q3")
	assert.Contains(t, out.Trace, "evidence: 5 unique of 9 results (2 duplicates, 2 truncated)")
}

func TestRun_PreservesQueryOrderUnderConcurrency(t *testing.T) {
	c := &fakeCompleter{plan: "slow\nmedium\nfast", answer: "ok"}
	s := &stubSearcher{
		results: map[string][]types.SearchResult{
			"slow":   {res("1")},
			"medium": {res("2")},
			"fast":   {res("3")},
		},
		delay: map[string]time.Duration{
			"slow":   60 * time.Millisecond,
			"medium": 30 * time.Millisecond,
		},
	}

	out := New(c, s, testConfig(), nil).Run(context.Background(), Request{Question: "q", Mode: types.ModeWebSearch})

	require.True(t, out.Success)
	assert.Equal(t, []string{"https://r.example/1", "https://r.example/2", "https://r.example/3"}, out.Sources)
	assert.Less(t, strings.Index(out.Trace, `"slow"`), strings.Index(out.Trace, `"fast"`))
	assert.Greater(t, s.peak.Load(), int32(1))
}

func TestRun_ConcurrencyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Search.Concurrency = 1
	c := &fakeCompleter{plan: "a\nb\nc", answer: "ok"}
	s := &stubSearcher{delay: map[string]time.Duration{"a": 10 * time.Millisecond, "b": 10 * time.Millisecond}}

	New(c, s, cfg, nil).Run(context.Background(), Request{Question: "q", Mode: types.ModeWebSearch})

	assert.Equal(t, int32(3), s.calls.Load())
	assert.Equal(t, int32(1), s.peak.Load())
}

func TestRun_PlanningFailureSearchesQuestion(t *testing.T) {
	c := &fakeCompleter{planErr: errors.New("rate limited"), answer: "ok"}
	s := &stubSearcher{results: map[string][]types.SearchResult{
		"What is new in AI regulation?": {res("x")},
	}}

	out := New(c, s, testConfig(), nil).Run(context.Background(), Request{
		Question: "What is new in AI regulation?",
		Mode:     types.ModeWebSearch,
	})

	require.True(t, out.Success)
	assert.Equal(t, int32(1), s.calls.Load())
	assert.Equal(t, []string{"https://r.example/x"}, out.Sources)
	assert.Contains(t, out.Trace, "planning failed")
	assert.Contains(t, out.Trace, "searching for the question verbatim")
}

func TestRun_SynthesisFailureKeepsTrace(t *testing.T) {
	c := &fakeCompleter{plan: "q1", synthErr: errors.New("context length exceeded")}
	s := &stubSearcher{results: map[string][]types.SearchResult{"q1": {res("a")}}}

	out := New(c, s, testConfig(), nil).Run(context.Background(), Request{Question: "q", Mode: types.ModeWebSearch})

	assert.False(t, out.Success)
	assert.Empty(t, out.Answer)
	assert.Contains(t, out.Error, "context length exceeded")
	assert.Contains(t, out.Trace, "planned 1 queries: q1")
	assert.Contains(t, out.Trace, "synthesis failed")
}

func TestRun_ModelOverride(t *testing.T) {
	var models []string
	var mu sync.Mutex
	c := llm.CompleterFunc(func(_ context.Context, model, _ string) (string, error) {
		mu.Lock()
		models = append(models, model)
		mu.Unlock()
		return "ok", nil
	})
	p := New(c, &stubSearcher{}, testConfig(), nil)

	p.Run(context.Background(), Request{Question: "q", Mode: types.ModeNoSearch})
	p.Run(context.Background(), Request{Question: "q", Mode: types.ModeNoSearch, Model: "other-model"})

	assert.Equal(t, []string{"test-model", "other-model"}, models)
}

func TestRun_ProgressReceivesTrace(t *testing.T) {
	c := &fakeCompleter{plan: "q1", answer: "ok"}
	s := &stubSearcher{results: map[string][]types.SearchResult{"q1": {res("a")}}}
	var buf bytes.Buffer

	p := New(c, s, testConfig(), nil)
	p.Progress = &buf
	out := p.Run(context.Background(), Request{Question: "q", Mode: types.ModeWebSearch})

	assert.Equal(t, out.Trace+"\n", buf.String())
}

// Live search is unreachable, so every planned query is answered from the
// built-in fallback table.
func TestRun_AIRegulationWithSearchDown(t *testing.T) {
	srv := httptest.NewServer(nil)
	endpoint := srv.URL + "/html/"
	srv.Close()

	cfg := testConfig()
	cfg.Search.Endpoint = endpoint
	cfg.Search.RateLimitRPS = 0
	cfg.Search.MaxRetries = 0
	cfg.Search.Timeout = 2 * time.Second

	exec := search.NewExecutor(httputil.NewClient(cfg.Search, nil), nil, cfg.Search, nil)
	c := &fakeCompleter{
		plan:   "AI regulation 2024 updates\nEU AI Act AI regulation\nUS federal AI regulation policy",
		answer: "The EU AI Act and the NIST AI RMF are the main recent developments.",
	}

	out := New(c, exec, cfg, nil).Run(context.Background(), Request{
		Question: "What are the latest developments in AI regulation?",
		Mode:     types.ModeWebSearch,
	})

	require.True(t, out.Success, out.Error)
	assert.NotEmpty(t, out.Answer)
	assert.LessOrEqual(t, len(out.Evidence), 5)
	assert.Equal(t, out.Evidence.URLs(), out.Sources)

	seen := map[string]bool{}
	for _, u := range out.Sources {
		assert.False(t, seen[u], "duplicate source %s", u)
		seen[u] = true
		assert.True(t,
			strings.Contains(u, "europarl.europa.eu") || strings.Contains(u, "nist.gov") || strings.Contains(u, "oecd.ai"),
			"unexpected source %s", u)
	}
	assert.Len(t, out.Sources, 3)
	assert.Equal(t, 3, strings.Count(out.Trace, "fallback (transport error)"))

	synthPrompt := c.prompts[len(c.prompts)-1]
	assert.Contains(t, synthPrompt, "EU AI Act")
}
