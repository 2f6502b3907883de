package discovery

import (
	"net/url"
	"strings"
)

// DefaultDomains are the trusted resource domains. A host matches a domain
// exactly or as a subdomain of it.
var DefaultDomains = []string{
	// video
	"youtube.com",
	// blogs
	"medium.com",
	"dev.to",
	"freecodecamp.org",
	// Q&A
	"stackoverflow.com",
	// code hosting
	"github.com",
	// practice
	"leetcode.com",
	"hackerrank.com",
	"geeksforgeeks.org",
	// courses
	"coursera.org",
	"udemy.com",
	// documentation and tutorials
	"developer.mozilla.org",
	"docs.python.org",
	"go.dev",
	"learn.microsoft.com",
	"docs.oracle.com",
	"w3schools.com",
	"tutorialspoint.com",
	"javatpoint.com",
}

// Pages that list or route to content rather than being content.
var endpointSegments = []string{
	"search", "results", "t", "tag", "tags", "tagged", "topic", "topics", "category", "categories",
	"author", "authors", "page", "archive", "archives", "explore", "feed",
}

var endpointParams = []string{"q", "query", "search_query", "search", "page", "tag", "s"}

// AllowList matches URLs against a set of trusted domains.
type AllowList struct {
	domains []string
}

// NewAllowList builds an AllowList; nil or empty domains means DefaultDomains.
func NewAllowList(domains []string) *AllowList {
	if len(domains) == 0 {
		domains = DefaultDomains
	}
	normalized := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d != "" {
			normalized = append(normalized, d)
		}
	}
	return &AllowList{domains: normalized}
}

// Domains returns the normalized domain list.
func (a *AllowList) Domains() []string {
	return append([]string(nil), a.domains...)
}

// AllowsHost reports whether host is one of the domains or a subdomain of one.
func (a *AllowList) AllowsHost(host string) bool {
	host = strings.ToLower(host)
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	for _, d := range a.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Accepts reports whether an absolute URL is on the allow-list and points at
// content rather than a search, tag, category, author or pagination endpoint.
func (a *AllowList) Accepts(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return a.AllowsHost(u.Hostname()) && !IsEndpoint(u)
}

// IsEndpoint reports whether u is a listing or navigation page.
func IsEndpoint(u *url.URL) bool {
	path := strings.Trim(strings.ToLower(u.Path), "/")
	if path == "" {
		// Site roots are not resources
		return true
	}

	for _, seg := range strings.Split(path, "/") {
		for _, e := range endpointSegments {
			if seg == e {
				return true
			}
		}
	}

	q := u.Query()
	for _, p := range endpointParams {
		if q.Has(p) {
			return true
		}
	}
	return false
}

// RestrictQuery appends a site filter for the given domains, the form both
// DuckDuckGo and Google accept.
func RestrictQuery(query string, domains []string) string {
	if len(domains) == 0 {
		return query
	}
	sites := make([]string, len(domains))
	for i, d := range domains {
		sites[i] = "site:" + d
	}
	return query + " (" + strings.Join(sites, " OR ") + ")"
}
