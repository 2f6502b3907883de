package discovery

import (
	"context"
	"net/url"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/resource-curator/internal/fetch"
	"github.com/jonathan/resource-curator/internal/llm"
	"github.com/jonathan/resource-curator/internal/logging"
	"github.com/jonathan/resource-curator/internal/prompts"
)

// Searcher returns candidate URLs for a query, best first. Candidates may be
// relative, wrapped in redirectors, off the allow-list or duplicated; the
// Discoverer filters them.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// DefaultHTMLEndpoint is DuckDuckGo's script-free results page.
const DefaultHTMLEndpoint = "https://html.duckduckgo.com/html/"

// HTMLSearcher scrapes a search engine's HTML results page.
type HTMLSearcher struct {
	Endpoint string
	// ResultSelector picks result anchors; all anchors when empty.
	ResultSelector string
	Domains        []string
	Fetch          *fetch.Options
	// Renderer, when set, re-renders pages that look script-built.
	Renderer fetch.Renderer
	Log      *logging.Logger
}

// NewHTMLSearcher returns a searcher against DuckDuckGo restricted to domains.
func NewHTMLSearcher(domains []string, renderer fetch.Renderer, log *logging.Logger) *HTMLSearcher {
	return &HTMLSearcher{
		Endpoint:       DefaultHTMLEndpoint,
		ResultSelector: "a.result__a",
		Domains:        domains,
		Fetch:          fetch.DefaultOptions(),
		Renderer:       renderer,
		Log:            logging.OrNop(log),
	}
}

// Search implements Searcher.
func (s *HTMLSearcher) Search(ctx context.Context, query string, limit int) ([]string, error) {
	log := logging.OrNop(s.Log)

	endpoint, err := url.Parse(s.Endpoint)
	if err != nil {
		return nil, &SearchError{Backend: "html", Query: query, Message: "invalid endpoint", Cause: err}
	}
	params := endpoint.Query()
	params.Set("q", RestrictQuery(query, s.Domains))
	endpoint.RawQuery = params.Encode()
	pageURL := endpoint.String()

	result, err := fetch.URL(ctx, pageURL, s.Fetch)
	if err != nil {
		return nil, &SearchError{Backend: "html", Query: query, Message: "results page unavailable", Cause: err}
	}
	html := result.HTML

	anchors, err := fetch.Anchors(html, pageURL, s.ResultSelector)
	if err != nil {
		return nil, &SearchError{Backend: "html", Query: query, Message: "unparsable results page", Cause: err}
	}

	if len(anchors) == 0 && s.Renderer != nil {
		if text, _ := fetch.ExtractMainText(html, fetch.DefaultTextSelectors()); fetch.ShouldUseBrowser(text) {
			log.Debug("[DISCOVERY] results page looks script-rendered, using browser", "query", query)
			rendered, rerr := s.Renderer.Render(ctx, pageURL)
			if rerr != nil {
				return nil, &SearchError{Backend: "html", Query: query, Message: "browser render failed", Cause: rerr}
			}
			if anchors, err = fetch.Anchors(rendered, pageURL, s.ResultSelector); err != nil {
				return nil, &SearchError{Backend: "html", Query: query, Message: "unparsable rendered page", Cause: err}
			}
		}
	}

	urls := make([]string, 0, len(anchors))
	for _, a := range anchors {
		urls = append(urls, UnwrapRedirect(a.URL))
	}
	return urls, nil
}

// UnwrapRedirect returns the destination of a search engine click-through
// link (DuckDuckGo /l/?uddg=, Google /url?q=), or raw unchanged.
func UnwrapRedirect(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	switch {
	case u.Path == "/l/" || u.Path == "/l":
		if dest := q.Get("uddg"); dest != "" {
			return dest
		}
	case u.Path == "/url":
		if dest := q.Get("q"); dest != "" {
			return dest
		}
		if dest := q.Get("url"); dest != "" {
			return dest
		}
	}
	return raw
}

// CustomSearcher queries the Google Programmable Search JSON API.
type CustomSearcher struct {
	svc     *customsearch.Service
	cx      string
	domains []string
}

// NewCustomSearcher creates a searcher for the given search engine ID.
func NewCustomSearcher(ctx context.Context, apiKey, cx string, domains []string, opts ...option.ClientOption) (*CustomSearcher, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, &SearchError{Backend: "customsearch", Message: "failed to create customsearch service", Cause: err}
	}
	return &CustomSearcher{svc: svc, cx: cx, domains: domains}, nil
}

// Search implements Searcher. The API returns at most 10 results per call.
func (s *CustomSearcher) Search(ctx context.Context, query string, limit int) ([]string, error) {
	num := int64(limit)
	if num <= 0 || num > 10 {
		num = 10
	}

	resp, err := s.svc.Cse.List().Cx(s.cx).Q(RestrictQuery(query, s.domains)).Num(num).Context(ctx).Do()
	if err != nil {
		return nil, &SearchError{Backend: "customsearch", Query: query, Message: "request failed", Cause: err}
	}

	urls := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		urls = append(urls, item.Link)
	}
	return urls, nil
}

// LLMSearcher asks the generative client to suggest URLs on the allowed domains.
type LLMSearcher struct {
	client  llm.Client
	domains []string
}

// NewLLMSearcher creates a searcher backed by the generative client.
func NewLLMSearcher(client llm.Client, domains []string) *LLMSearcher {
	return &LLMSearcher{client: client, domains: domains}
}

// Search implements Searcher. Lines not starting with http are ignored.
func (s *LLMSearcher) Search(ctx context.Context, query string, _ int) ([]string, error) {
	prompt, err := prompts.Render(prompts.SuggestURLs, map[string]string{
		"Query":   query,
		"Domains": strings.Join(s.domains, ", "),
	})
	if err != nil {
		return nil, &SearchError{Backend: "llm", Query: query, Message: "failed to build prompt", Cause: err}
	}

	resp, err := s.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, &SearchError{Backend: "llm", Query: query, Message: "generation failed", Cause: err}
	}

	var urls []string
	for _, line := range strings.Split(resp, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "-*<> ")
		if strings.HasPrefix(line, "http") {
			urls = append(urls, line)
		}
	}
	return urls, nil
}
