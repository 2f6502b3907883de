// Package discovery finds learning resources for a search query.
//
// Tier 1 asks a Searcher for candidate URLs, keeps the ones on the allow-list
// that point at content, and describes each with a MetadataSynthesizer. When
// tier 1 yields nothing usable, tier 2 returns a single synthesized resource
// pointing at a search-results page.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jonathan/resource-curator/internal/fetch"
	"github.com/jonathan/resource-curator/internal/logging"
	"github.com/jonathan/resource-curator/internal/types"
)

// DefaultMaxResults is the per-query cap when none is configured.
const DefaultMaxResults = 3

// FallbackSearchURL is the canonical search page used by tier 2.
const FallbackSearchURL = "https://www.youtube.com/results?search_query="

// MetadataSynthesizer describes a URL.
type MetadataSynthesizer interface {
	Synthesize(ctx context.Context, rawURL, query string) (types.Resource, error)
}

// Discoverer runs the two-tier discovery strategy.
type Discoverer struct {
	searcher Searcher
	synth    MetadataSynthesizer
	allow    *AllowList
	log      *logging.Logger
	now      func() time.Time
}

// NewDiscoverer creates a Discoverer. A nil allow-list means DefaultDomains.
func NewDiscoverer(searcher Searcher, synth MetadataSynthesizer, allow *AllowList, log *logging.Logger) *Discoverer {
	if allow == nil {
		allow = NewAllowList(nil)
	}
	return &Discoverer{
		searcher: searcher,
		synth:    synth,
		allow:    allow,
		log:      logging.OrNop(log),
		now:      time.Now,
	}
}

// Discover returns at most maxResults resources for query, in search order.
// It never fails: search errors and empty results fall through to tier 2.
func (d *Discoverer) Discover(ctx context.Context, query string, maxResults int) []types.Resource {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	urls, err := d.candidates(ctx, query, maxResults)
	if err != nil {
		d.log.Warn("[DISCOVERY] search failed, using search fallback", "query", query, "error", err)
		return []types.Resource{d.searchFallback(query)}
	}
	if len(urls) == 0 {
		d.log.Warn("[DISCOVERY] no valid URLs, using search fallback", "query", query)
		return []types.Resource{d.searchFallback(query)}
	}

	resources := make([]types.Resource, 0, len(urls))
	for _, u := range urls {
		res, synthErr := d.describe(ctx, u, query)
		if synthErr != nil {
			d.log.Warn("[DISCOVERY] metadata synthesis failed, using minimal record", "url", u, "error", synthErr)
		}
		if err := res.Validate(); err != nil {
			d.log.Warn("[DISCOVERY] dropping invalid resource", "url", u, "error", err)
			continue
		}
		resources = append(resources, res)
	}

	if len(resources) == 0 {
		return []types.Resource{d.searchFallback(query)}
	}

	d.log.Info("[DISCOVERY] discovered resources", "query", query, "count", len(resources))
	return resources
}

// describe returns the synthesized record, or the minimal record together
// with the synthesis error.
func (d *Discoverer) describe(ctx context.Context, rawURL, query string) (types.Resource, error) {
	if d.synth == nil {
		return d.minimal(rawURL, query), fmt.Errorf("no metadata synthesizer configured")
	}
	res, err := d.synth.Synthesize(ctx, rawURL, query)
	if err != nil {
		return d.minimal(rawURL, query), err
	}
	return res, nil
}

// candidates returns the accepted tier-1 URLs, capped at maxResults.
func (d *Discoverer) candidates(ctx context.Context, query string, maxResults int) ([]string, error) {
	if d.searcher == nil {
		return nil, &SearchError{Backend: "none", Query: query, Message: "no searcher configured"}
	}

	// Over-fetch: many candidates are rejected by the allow-list.
	raw, err := d.searcher.Search(ctx, query, maxResults*4)
	if err != nil {
		return nil, err
	}

	return d.Filter(raw, maxResults), nil
}

// Filter normalizes raw candidates and keeps, in order, those that are
// allow-listed content URLs not already seen, up to limit.
func (d *Discoverer) Filter(raw []string, limit int) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, limit)

	for _, r := range raw {
		if len(out) >= limit {
			break
		}
		abs, ok := Normalize(r)
		if !ok || seen[abs] {
			continue
		}
		seen[abs] = true
		if d.allow.Accepts(abs) {
			out = append(out, abs)
		}
	}
	return out
}

var defaultBase = &url.URL{Scheme: "https"}

// Normalize makes a candidate absolute (protocol-relative URLs get https),
// unwraps search-engine redirects and strips the fragment.
func Normalize(raw string) (string, bool) {
	abs, ok := fetch.Resolve(defaultBase, raw)
	if !ok {
		return "", false
	}
	if unwrapped := UnwrapRedirect(abs); unwrapped != abs {
		return fetch.Resolve(defaultBase, unwrapped)
	}
	return abs, true
}

// minimal is the record used when metadata synthesis fails outright.
func (d *Discoverer) minimal(rawURL, query string) types.Resource {
	return types.Resource{
		Title:         "Learn " + query,
		URL:           rawURL,
		Description:   fmt.Sprintf("A learning resource about %s", query),
		ResourceType:  types.ResourceBlog,
		Difficulty:    types.DifficultyBeginner,
		EstimatedTime: 20,
		Tags:          types.QueryTags(query),
		CreatedAt:     d.now().UTC(),
		Query:         query,
		Source:        types.SourceMinimalFallback,
	}
}

func (d *Discoverer) searchFallback(query string) types.Resource {
	return types.Resource{
		Title:        "Learning Resource: " + query,
		URL:          FallbackSearchURL + url.QueryEscape(query),
		Description:  "Search results for " + query,
		ResourceType: types.ResourceSearch,
		Difficulty:   types.DifficultyBeginner,
		Tags:         types.QueryTags(query),
		CreatedAt:    d.now().UTC(),
		Query:        query,
		Source:       types.SourceSearchFallback,
	}
}
