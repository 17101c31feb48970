// Package duckduckgo implements ports.Searcher by scraping the DuckDuckGo
// HTML endpoint, which needs no API key.
package duckduckgo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultBaseURL is the no-JavaScript search endpoint.
	DefaultBaseURL = "https://html.duckduckgo.com/html/"

	// DefaultMaxResults bounds how many hits one query contributes.
	DefaultMaxResults = 3

	// userAgent keeps the endpoint from serving the bot-wall page.
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// Searcher scrapes DuckDuckGo search results into a plain-text summary.
type Searcher struct {
	client     *http.Client
	baseURL    string
	maxResults int
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithHTTPClient replaces the default client. The caller owns timeouts.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Searcher) { s.client = c }
}

// WithBaseURL points the scraper at another endpoint, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(s *Searcher) { s.baseURL = u }
}

// WithMaxResults caps the hits per query.
func WithMaxResults(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// New builds a Searcher with sane defaults.
func New(opts ...Option) *Searcher {
	s := &Searcher{
		client:     http.DefaultClient,
		baseURL:    DefaultBaseURL,
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type result struct {
	title   string
	snippet string
	url     string
}

// Search runs one query and formats the top hits. An empty return with a nil
// error means the query found nothing, which is not a failure.
func (s *Searcher) Search(ctx context.Context, query string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL, nil)
	if err != nil {
		return "", fmt.Errorf("duckduckgo: build request: %w", err)
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("b", "") // no ads
	q.Set("kl", "us-en")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("duckduckgo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("duckduckgo: unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("duckduckgo: parse response: %w", err)
	}

	results := parseResults(doc, s.maxResults)
	if len(results) == 0 {
		return "", nil
	}
	return format(query, results), nil
}

// parseResults walks the result blocks. A block without both a title link and
// a snippet is an ad or a layout artifact and is skipped.
func parseResults(doc *goquery.Document, limit int) []result {
	var results []result
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := sel.Find("a.result__a").First()
		snippet := sel.Find("a.result__snippet").First()
		if title.Length() == 0 || snippet.Length() == 0 {
			return true
		}
		href, _ := title.Attr("href")
		results = append(results, result{
			title:   strings.TrimSpace(title.Text()),
			snippet: strings.TrimSpace(snippet.Text()),
			url:     href,
		})
		return len(results) < limit
	})
	return results
}

func format(query string, results []result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for '%s':\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.title)
		fmt.Fprintf(&b, "   %s\n", r.snippet)
		if r.url != "" {
			fmt.Fprintf(&b, "   URL: %s\n", r.url)
		}
		b.WriteString("\n")
	}
	return b.String()
}
