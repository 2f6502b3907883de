package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resource-curator/internal/fetch"
	"github.com/jonathan/resource-curator/internal/llm"
	"github.com/jonathan/resource-curator/internal/llm/llmtest"
	"github.com/jonathan/resource-curator/internal/types"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newSynth(client llm.Client, opts ...Option) *Synthesizer {
	return NewSynthesizer(client, nil, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func TestSynthesize_ModelMetadata(t *testing.T) {
	client := llmtest.New().Default("```json\n"+`{
		"title": "  Graph Algorithms Crash Course ",
		"description": "BFS, DFS and Dijkstra",
		"resource_type": "Video",
		"difficulty": "ADVANCED",
		"estimated_time": 45,
		"tags": ["graphs", " ", "bfs"]
	}`+"\n```", nil)

	res, err := newSynth(client).Synthesize(context.Background(), "https://www.youtube.com/watch?v=abc", "graph algorithms")
	require.NoError(t, err)

	assert.Equal(t, "Graph Algorithms Crash Course", res.Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", res.URL)
	assert.Equal(t, types.ResourceVideo, res.ResourceType)
	assert.Equal(t, types.DifficultyAdvanced, res.Difficulty)
	assert.Equal(t, 45, res.EstimatedTime)
	assert.Equal(t, []string{"graphs", "bfs"}, res.Tags)
	assert.Equal(t, "graph algorithms", res.Query)
	assert.Equal(t, types.SourceLLMMetadata, res.Source)
	assert.Equal(t, fixedNow, res.CreatedAt)
	assert.NoError(t, res.Validate())

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].JSON)
	assert.Equal(t, llm.TierStandard, calls[0].Tier)
	assert.Contains(t, calls[0].Prompt, "https://www.youtube.com/watch?v=abc")
	assert.Contains(t, calls[0].Prompt, "graph algorithms")
}

func TestSynthesize_UnknownEnumsNormalized(t *testing.T) {
	client := llmtest.New().Default(`{"title": "T", "resource_type": "podcast", "difficulty": "expert"}`, nil)

	res, err := newSynth(client).Synthesize(context.Background(), "https://dev.to/x/post", "dp")
	require.NoError(t, err)
	assert.Equal(t, types.ResourceUnknown, res.ResourceType)
	assert.Equal(t, types.DifficultyIntermediate, res.Difficulty)
	assert.Equal(t, []string{"dp"}, res.Tags)
}

func TestSynthesize_MalformedOutputUsesDomainFallback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose", "This page is a great tutorial about trees."},
		{"wrong types", `{"title": "Trees", "estimated_time": "thirty"}`},
		{"blank title", `{"title": "   ", "description": "x"}`},
		{"truncated", `{"title": "Trees`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llmtest.New().Default(tt.raw, nil)

			res, err := newSynth(client).Synthesize(context.Background(), "https://medium.com/@a/binary-trees-1", "binary trees")
			require.NoError(t, err)

			assert.Equal(t, "binary trees - medium.com", res.Title)
			assert.Equal(t, "Learning resource about binary trees from medium.com", res.Description)
			assert.Equal(t, types.ResourceUnknown, res.ResourceType)
			assert.Equal(t, types.DifficultyIntermediate, res.Difficulty)
			assert.Equal(t, 30, res.EstimatedTime)
			assert.Equal(t, []string{"binary", "trees"}, res.Tags)
			assert.Equal(t, types.SourceMetadataFallback, res.Source)
			assert.Equal(t, "https://medium.com/@a/binary-trees-1", res.URL)
			assert.Equal(t, "binary trees", res.Query)
			assert.Equal(t, fixedNow, res.CreatedAt)
		})
	}
}

func TestSynthesize_CallFailureIsSynthesisError(t *testing.T) {
	client := llmtest.New().Default("", errors.New("connection refused"))

	_, err := newSynth(client).Synthesize(context.Background(), "https://github.com/x/y", "q")
	require.Error(t, err)

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, "https://github.com/x/y", synthErr.URL)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSynthesize_NoClient(t *testing.T) {
	_, err := newSynth(nil).Synthesize(context.Background(), "https://github.com/x/y", "q")
	var synthErr *SynthesisError
	assert.ErrorAs(t, err, &synthErr)
}

func TestSynthesize_PageContext(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Two Sum - LeetCode</title><meta name="description" content="Classic hash map problem"></head></html>`))
	}))
	defer page.Close()

	client := llmtest.New().Default(`{"title": "Two Sum"}`, nil)
	_, err := newSynth(client, WithPageContext(fetch.DefaultOptions())).Synthesize(context.Background(), page.URL, "hash maps")
	require.NoError(t, err)

	prompt := client.Calls()[0].Prompt
	assert.Contains(t, prompt, "- title: Two Sum - LeetCode")
	assert.Contains(t, prompt, "- description: Classic hash map problem")
}

func TestSynthesize_PageTitleWithTemplateSyntax(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Go templates: {{.Query}} explained</title></head></html>`))
	}))
	defer page.Close()

	client := llmtest.New().Default(`{"title": "Go templates"}`, nil)
	res, err := newSynth(client, WithPageContext(fetch.DefaultOptions())).Synthesize(context.Background(), page.URL, "text/template")
	require.NoError(t, err)
	assert.Equal(t, "Go templates", res.Title)

	prompt := client.Calls()[0].Prompt
	assert.Contains(t, prompt, "- title: Go templates: {{.Query}} explained")
}

func TestSynthesize_PageContextFetchFailureIgnored(t *testing.T) {
	client := llmtest.New().Default(`{"title": "X"}`, nil)
	res, err := newSynth(client, WithPageContext(nil)).Synthesize(context.Background(), "http://127.0.0.1:1/unreachable", "q")
	require.NoError(t, err)
	assert.Equal(t, "X", res.Title)
	assert.NotContains(t, client.Calls()[0].Prompt, "Page text:")
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "www.youtube.com", Domain("https://www.youtube.com/watch?v=1"))
	assert.Equal(t, "unknown", Domain("not a url"))
	assert.Equal(t, "unknown", Domain(""))
}
