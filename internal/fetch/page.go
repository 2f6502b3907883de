package fetch

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Meta is the descriptive metadata a page declares about itself.
type Meta struct {
	Title       string
	Description string
	SiteName    string
}

// Anchor is one link found on a page, resolved against the page URL.
type Anchor struct {
	URL  string
	Text string
}

// PageMeta reads the title and description from OpenGraph tags, falling back
// to <title> and <meta name="description">.
func PageMeta(html string) (Meta, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Meta{}, err
	}

	attr := func(selector string) string {
		v, _ := doc.Find(selector).First().Attr("content")
		return strings.TrimSpace(v)
	}

	meta := Meta{
		Title:       attr(`meta[property="og:title"]`),
		Description: attr(`meta[property="og:description"]`),
		SiteName:    attr(`meta[property="og:site_name"]`),
	}
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if meta.Description == "" {
		meta.Description = attr(`meta[name="description"]`)
	}
	return meta, nil
}

// Anchors returns the links matched by selector (all a[href] when empty), in
// document order. Relative and protocol-relative hrefs are resolved against
// baseURL; fragments are dropped. Non-http(s) links are skipped.
func Anchors(html, baseURL, selector string) ([]Anchor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &Error{URL: baseURL, Message: "invalid base URL", Cause: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{URL: baseURL, Message: "failed to parse HTML", Cause: err}
	}

	if selector == "" {
		selector = "a[href]"
	}

	var anchors []Anchor
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}

		resolved, ok := Resolve(base, href)
		if !ok {
			return
		}
		anchors = append(anchors, Anchor{
			URL:  resolved,
			Text: strings.Join(strings.Fields(s.Text()), " "),
		})
	})

	return anchors, nil
}

// Resolve makes href absolute against base and strips its fragment.
// It reports false for unparsable or non-http(s) results.
func Resolve(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if abs.Host == "" {
		return "", false
	}

	abs.Fragment = ""
	abs.RawFragment = ""
	return abs.String(), true
}
