// Package metadata builds Resource records for discovered URLs.
package metadata

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/resource-curator/internal/fetch"
	"github.com/jonathan/resource-curator/internal/llm"
	"github.com/jonathan/resource-curator/internal/logging"
	"github.com/jonathan/resource-curator/internal/prompts"
	"github.com/jonathan/resource-curator/internal/types"
)

// SynthesisError means the generative client could not be used at all. The
// caller is expected to substitute its own minimal record.
type SynthesisError struct {
	URL     string
	Message string
	Cause   error
}

func (e *SynthesisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("metadata for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("metadata for %s: %s", e.URL, e.Message)
}

func (e *SynthesisError) Unwrap() error {
	return e.Cause
}

// response is the structured object requested from the model.
type response struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	ResourceType  string   `json:"resource_type,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
	EstimatedTime int      `json:"estimated_time,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// Synthesizer asks the generative client to describe a URL.
type Synthesizer struct {
	client llm.Client
	log    *logging.Logger
	now    func() time.Time

	// pageOpts, when set, fetches the page so its declared title and
	// description can be included in the prompt.
	pageOpts *fetch.Options
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithPageContext fetches each page before prompting. Fetch failures are ignored.
func WithPageContext(opts *fetch.Options) Option {
	return func(s *Synthesizer) {
		if opts == nil {
			opts = fetch.DefaultOptions()
		}
		s.pageOpts = opts
	}
}

// WithClock overrides the created_at clock.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(client llm.Client, log *logging.Logger, opts ...Option) *Synthesizer {
	s := &Synthesizer{client: client, log: logging.OrNop(log), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize returns a Resource for rawURL found by query.
//
// Malformed model output yields a domain-derived record tagged
// metadata_fallback. A failed call yields a *SynthesisError and no record.
func (s *Synthesizer) Synthesize(ctx context.Context, rawURL, query string) (types.Resource, error) {
	if s.client == nil {
		return types.Resource{}, &SynthesisError{URL: rawURL, Message: "no generative client configured"}
	}

	prompt, err := prompts.Render(prompts.ResourceMetadata, map[string]string{
		"URL":         rawURL,
		"Query":       query,
		"PageContext": s.pageContext(ctx, rawURL),
	})
	if err != nil {
		return types.Resource{}, &SynthesisError{URL: rawURL, Message: "failed to build prompt", Cause: err}
	}

	raw, err := s.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return types.Resource{}, &SynthesisError{URL: rawURL, Message: "generation failed", Cause: err}
	}

	var res types.Resource
	parsed, err := llm.ParseStructured[response](raw)
	switch {
	case err != nil:
		s.log.Warn("[METADATA] malformed metadata, using domain fallback", "url", rawURL, "error", err)
		res = Fallback(rawURL, query)
	case strings.TrimSpace(parsed.Title) == "":
		s.log.Warn("[METADATA] metadata has no title, using domain fallback", "url", rawURL)
		res = Fallback(rawURL, query)
	default:
		res = fromResponse(parsed, query)
	}

	res.URL = rawURL
	res.Query = query
	res.CreatedAt = s.now().UTC()
	return res, nil
}

func (s *Synthesizer) pageContext(ctx context.Context, rawURL string) string {
	if s.pageOpts == nil {
		return ""
	}

	result, err := fetch.URL(ctx, rawURL, s.pageOpts)
	if err != nil {
		s.log.Debug("[METADATA] page fetch failed", "url", rawURL, "error", err)
		return ""
	}
	meta, err := fetch.PageMeta(result.HTML)
	if err != nil || (meta.Title == "" && meta.Description == "") {
		return ""
	}

	var b strings.Builder
	b.WriteString("Page text:\n")
	if meta.Title != "" {
		fmt.Fprintf(&b, "- title: %s\n", meta.Title)
	}
	if meta.Description != "" {
		fmt.Fprintf(&b, "- description: %s\n", meta.Description)
	}
	return b.String()
}

func fromResponse(r response, query string) types.Resource {
	tags := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		tags = types.QueryTags(query)
	}

	estimated := r.EstimatedTime
	if estimated < 0 {
		estimated = 0
	}

	return types.Resource{
		Title:         strings.TrimSpace(r.Title),
		Description:   strings.TrimSpace(r.Description),
		ResourceType:  types.NormalizeResourceType(r.ResourceType),
		Difficulty:    types.NormalizeDifficulty(r.Difficulty),
		EstimatedTime: estimated,
		Tags:          tags,
		Source:        types.SourceLLMMetadata,
	}
}

// Fallback is the record used when model output cannot be parsed, derived
// from the URL's host.
func Fallback(rawURL, query string) types.Resource {
	domain := Domain(rawURL)
	return types.Resource{
		Title:         fmt.Sprintf("%s - %s", query, domain),
		URL:           rawURL,
		Description:   fmt.Sprintf("Learning resource about %s from %s", query, domain),
		ResourceType:  types.ResourceUnknown,
		Difficulty:    types.DifficultyIntermediate,
		EstimatedTime: 30,
		Tags:          types.QueryTags(query),
		Query:         query,
		Source:        types.SourceMetadataFallback,
	}
}

// Domain returns the host of rawURL, or "unknown".
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
