// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func testSearchConfig() types.SearchConfig {
	cfg := types.DefaultPipelineConfig().Search
	cfg.Timeout = 2 * time.Second
	cfg.RateLimitRPS = 0
	cfg.MaxRetries = 1
	return cfg
}

func TestClientFetch_SendsHeadersAndReturnsBody(t *testing.T) {
	var gotUA, gotLang string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer ts.Close()

	h := http.Header{}
	h.Set("User-Agent", "test-agent/1.0")
	h.Set("Accept-Language", "en-US")

	status, body, err := NewClient(testSearchConfig(), nil).Fetch(context.Background(), ts.URL, h)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<html>ok</html>", string(body))
	assert.Equal(t, "test-agent/1.0", gotUA)
	assert.Equal(t, "en-US", gotLang)
}

func TestClientFetch_Non2xxIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	status, _, err := NewClient(testSearchConfig(), nil).Fetch(context.Background(), ts.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestClientFetch_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, _, err := NewClient(testSearchConfig(), nil).Fetch(context.Background(), url, nil)
	assert.Error(t, err)
}

func TestClientFetch_TimeoutIsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	cfg := testSearchConfig()
	cfg.Timeout = 20 * time.Millisecond
	_, _, err := NewClient(cfg, nil).Fetch(context.Background(), ts.URL, nil)
	assert.Error(t, err)
}

func TestClientFetch_RateLimiterHonoursContext(t *testing.T) {
	cfg := testSearchConfig()
	cfg.RateLimitRPS = 0.001
	c := NewClient(cfg, nil)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	// The first call consumes the single burst token.
	_, _, err := c.Fetch(context.Background(), ts.URL, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = c.Fetch(ctx, ts.URL, nil)
	assert.Error(t, err)
}
