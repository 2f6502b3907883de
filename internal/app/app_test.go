package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resource-curator/internal/config"
	"github.com/jonathan/resource-curator/internal/discovery"
	"github.com/jonathan/resource-curator/internal/llm"
	"github.com/jonathan/resource-curator/internal/llm/llmtest"
	"github.com/jonathan/resource-curator/internal/runlock"
	"github.com/jonathan/resource-curator/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.LLM.Provider = "openai"
	cfg.OpenAIAPIKey = "sk-test"
	cfg.Store.Backend = config.StoreMemory
	cfg.RedisURL = ""
	return cfg
}

func TestLLMConfig(t *testing.T) {
	cfg := &config.Config{LLM: config.LLMConfig{
		Provider:    "openai",
		Model:       "gpt-test",
		Temperature: 0.3,
		CallTimeout: 5 * time.Second,
		BaseURL:     "http://gateway.local/v1",
	}}

	got := LLMConfig(cfg)
	assert.Equal(t, llm.ProviderOpenAI, got.Provider)
	assert.Equal(t, "gpt-test", got.GetModel(llm.TierLite))
	assert.Equal(t, "gpt-test", got.GetModel(llm.TierStandard))
	assert.Equal(t, float32(0.3), got.Temperature)
	assert.Equal(t, 5*time.Second, got.Timeout)
	assert.Equal(t, "http://gateway.local/v1", got.BaseURL)

	defaults := LLMConfig(&config.Config{LLM: config.LLMConfig{Provider: "gemini"}})
	assert.Equal(t, llm.DefaultCallTimeout, defaults.Timeout)
	assert.Equal(t, "gemini-2.5-flash", defaults.GetModel(llm.TierStandard))
}

func TestNewLLMClient_RequiresKey(t *testing.T) {
	tests := []struct {
		provider string
		wantVar  string
	}{
		{"gemini", "GEMINI_API_KEY"},
		{"openai", "OPENAI_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := &config.Config{LLM: config.LLMConfig{Provider: tt.provider}}
			_, err := NewLLMClient(context.Background(), cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantVar)
		})
	}
}

func TestNewSearcher(t *testing.T) {
	ctx := context.Background()
	fake := llmtest.New()

	tests := []struct {
		name    string
		search  config.SearchConfig
		check   func(t *testing.T, s discovery.Searcher)
		wantErr bool
	}{
		{
			name:   "html with custom endpoint",
			search: config.SearchConfig{Backend: config.SearchHTML, HTMLEndpoint: "http://127.0.0.1:1/html"},
			check: func(t *testing.T, s discovery.Searcher) {
				html, ok := s.(*discovery.HTMLSearcher)
				require.True(t, ok)
				assert.Equal(t, "http://127.0.0.1:1/html", html.Endpoint)
				assert.Equal(t, discovery.DefaultDomains, html.Domains)
				assert.Nil(t, html.Renderer)
			},
		},
		{
			name:   "html with browser",
			search: config.SearchConfig{Backend: config.SearchHTML, UseBrowser: true, Domains: []string{"go.dev"}},
			check: func(t *testing.T, s discovery.Searcher) {
				html := s.(*discovery.HTMLSearcher)
				assert.NotNil(t, html.Renderer)
				assert.Equal(t, []string{"go.dev"}, html.Domains)
			},
		},
		{
			name:   "llm",
			search: config.SearchConfig{Backend: config.SearchLLM},
			check: func(t *testing.T, s discovery.Searcher) {
				assert.IsType(t, &discovery.LLMSearcher{}, s)
			},
		},
		{
			name:   "customsearch",
			search: config.SearchConfig{Backend: config.SearchCustomSearch, GoogleAPIKey: "key", EngineID: "cx"},
			check: func(t *testing.T, s discovery.Searcher) {
				assert.IsType(t, &discovery.CustomSearcher{}, s)
			},
		},
		{
			name:    "unknown",
			search:  config.SearchConfig{Backend: "bing"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSearcher(ctx, &config.Config{Search: tt.search}, fake, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestNew_WiresPipeline(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.LLM)
	assert.NotNil(t, a.Queries)
	assert.NotNil(t, a.Discoverer)
	assert.NotNil(t, a.Categorizer)
	assert.NotNil(t, a.Pipeline)
}

func TestOpenStoreAndLocker_Defaults(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	s, err := a.OpenStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, s)

	locker, err := a.OpenLocker(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &runlock.Local{}, locker)

	cfg.Store.Backend = "sqlite"
	_, err = a.OpenStore(context.Background())
	assert.Error(t, err)
}

func TestLimiter(t *testing.T) {
	cfg := testConfig(t)
	a := &App{Config: cfg}

	l := a.Limiter()
	require.NotNil(t, l)
	l.Stop()

	cfg.Server.RateLimit = 0
	assert.Nil(t, a.Limiter())
}

func TestServer_Builds(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	srv, err := a.Server(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, srv.Handler())
}

func TestClose_RunsInReverseAndJoinsErrors(t *testing.T) {
	var order []int
	a := &App{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return assert.AnError },
	}}

	err := a.Close()
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, a.Close())
}
