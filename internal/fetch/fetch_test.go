package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><h1>Graphs 101</h1></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Graphs 101</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestURL_InvalidURL(t *testing.T) {
	for _, raw := range []string{"not-a-valid-url", "/relative/path", "://bad"} {
		_, err := URL(context.Background(), raw, nil)
		require.Error(t, err)

		var fetchErr *Error
		assert.ErrorAs(t, err, &fetchErr)
		assert.Contains(t, err.Error(), "invalid URL")
	}
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, http.StatusTooManyRequests, result.StatusCode)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "429")
}

func TestURL_BodyLimitAndHeaders(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Accept-Language")
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.MaxBodyBytes = 10
	opts.Headers = map[string]string{"Accept-Language": "en"}

	result, err := URL(context.Background(), server.URL, opts)
	require.NoError(t, err)
	assert.Len(t, result.HTML, 10)
	assert.Equal(t, "en", gotHeader)
}

func TestURL_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := URL(ctx, server.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractMainText(t *testing.T) {
	tests := []struct {
		name        string
		html        string
		contains    []string
		notContains []string
	}{
		{
			name:        "main element wins over chrome",
			html:        `<html><body><nav>Menu</nav><main><h1>Binary Search</h1><p>Halve the range.</p></main><footer>Footer</footer></body></html>`,
			contains:    []string{"Binary Search", "Halve the range."},
			notContains: []string{"Menu", "Footer"},
		},
		{
			name:     "article element",
			html:     `<html><body><article><h1>Heaps</h1></article></body></html>`,
			contains: []string{"Heaps"},
		},
		{
			name:        "falls back to body",
			html:        `<html><body><div>Plain body text</div><script>var x = 1;</script></body></html>`,
			contains:    []string{"Plain body text"},
			notContains: []string{"var x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := ExtractMainText(tt.html, DefaultTextSelectors())
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, text, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, text, s)
			}
		})
	}
}

func TestExtractMainText_NoiseSelectors(t *testing.T) {
	html := `<html><body><main><div class="promo">Buy now</div><p>Tries explained</p></main></body></html>`
	text, err := ExtractMainText(html, DefaultTextSelectors(), ".promo")
	require.NoError(t, err)
	assert.Equal(t, "Tries explained", text)
}

func TestPageMeta(t *testing.T) {
	tests := []struct {
		name string
		html string
		want Meta
	}{
		{
			name: "opengraph preferred",
			html: `<html><head><title>Fallback</title>
				<meta property="og:title" content=" Learn Go ">
				<meta property="og:description" content="A tour of Go">
				<meta property="og:site_name" content="go.dev"></head></html>`,
			want: Meta{Title: "Learn Go", Description: "A tour of Go", SiteName: "go.dev"},
		},
		{
			name: "title and meta description",
			html: `<html><head><title>Two Pointers</title><meta name="description" content="Pattern guide"></head></html>`,
			want: Meta{Title: "Two Pointers", Description: "Pattern guide"},
		},
		{
			name: "nothing declared",
			html: `<html><body>hi</body></html>`,
			want: Meta{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PageMeta(tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnchors_ResolvesAndStripsFragments(t *testing.T) {
	html := `<html><body>
		<a href="https://github.com/golang/go#readme">Go repo</a>
		<a href="/watch?v=abc">Relative</a>
		<a href="//dev.to/post-1">Protocol relative</a>
		<a href="mailto:x@example.com">Mail</a>
		<a href="javascript:void(0)">JS</a>
		<a href="">Empty</a>
	</body></html>`

	anchors, err := Anchors(html, "https://www.youtube.com/results?search_query=go", "")
	require.NoError(t, err)

	var urls []string
	for _, a := range anchors {
		urls = append(urls, a.URL)
	}
	assert.Equal(t, []string{
		"https://github.com/golang/go",
		"https://www.youtube.com/watch?v=abc",
		"https://dev.to/post-1",
	}, urls)
	assert.Equal(t, "Go repo", anchors[0].Text)
}

func TestAnchors_Selector(t *testing.T) {
	html := `<div class="result"><a class="hit" href="https://a.example/1">A</a></div><a href="https://b.example/2">B</a>`
	anchors, err := Anchors(html, "https://search.example/", "a.hit")
	require.NoError(t, err)
	require.Len(t, anchors, 1)
	assert.Equal(t, "https://a.example/1", anchors[0].URL)
}

func TestResolve(t *testing.T) {
	base, _ := url.Parse("https://html.duckduckgo.com/html/")

	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"https://medium.com/p/1#top", "https://medium.com/p/1", true},
		{"/l/?uddg=x", "https://html.duckduckgo.com/l/?uddg=x", true},
		{"//leetcode.com/problems/two-sum/", "https://leetcode.com/problems/two-sum/", true},
		{"ftp://files.example/x", "", false},
		{"%zz", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got, ok := Resolve(base, tt.href)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser(""))
	assert.True(t, ShouldUseBrowser("   short   "))
	assert.False(t, ShouldUseBrowser(strings.Repeat("a", MinContentLength)))
}
