package crawler

import (
	"net/url"
	"strings"
	"sync"
)

// CrawlState is the visited set of one crawl. It is safe for concurrent use.
//
// A URL is claimed at most once for the whole crawl. When a page budget is
// set, claims beyond the budget fail without marking the URL as visited.
type CrawlState struct {
	mu       sync.Mutex
	visited  map[string]bool
	claimed  int
	maxPages int
}

// NewCrawlState creates an empty state. A maxPages of zero means unlimited.
func NewCrawlState(maxPages int) *CrawlState {
	return &CrawlState{
		visited:  make(map[string]bool),
		maxPages: maxPages,
	}
}

// Visit claims rawURL. It returns true exactly once per normalized URL, and
// false once the page budget is exhausted.
func (s *CrawlState) Visit(rawURL string) bool {
	key := NormalizeURL(rawURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.visited[key] {
		return false
	}
	if s.maxPages > 0 && s.claimed >= s.maxPages {
		return false
	}
	s.visited[key] = true
	s.claimed++
	return true
}

// Visited reports whether rawURL has been claimed.
func (s *CrawlState) Visited(rawURL string) bool {
	key := NormalizeURL(rawURL)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visited[key]
}

// Len returns the number of claimed URLs.
func (s *CrawlState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimed
}

// Exhausted reports whether the page budget is used up.
func (s *CrawlState) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxPages > 0 && s.claimed >= s.maxPages
}

// NormalizeURL returns the form used to deduplicate page URLs: lowercase
// scheme and host, no fragment, and "/" for an empty path.
// Unparsable input is returned unchanged.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u.String()
}
