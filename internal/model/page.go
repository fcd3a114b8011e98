package model

import (
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// FetchStatus is the outcome of fetching a page.
type FetchStatus string

const (
	// FetchPending means the page is known but has not been fetched yet.
	// Sitemap-only URLs stay pending until the fetch step runs.
	FetchPending FetchStatus = "pending"
	// FetchSuccess means the page returned a non-error status.
	FetchSuccess FetchStatus = "success"
	// FetchError means the request failed or returned a 4xx/5xx status.
	FetchError FetchStatus = "error"
)

// PageSource records how a page URL was first discovered.
type PageSource string

const (
	// SourceSeed is a configured start URL (base URL or seed path).
	SourceSeed PageSource = "seed"
	// SourceCrawl is a URL reached by following links.
	SourceCrawl PageSource = "crawl"
	// SourceSitemap is a URL listed in the XML sitemap.
	SourceSitemap PageSource = "sitemap"
)

// Page represents one page of the audited site.
// A Page is created when its URL leaves the crawl frontier and is not
// modified after it is recorded.
type Page struct {
	// URL is the normalized absolute URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL after redirects. Empty when identical to URL.
	FinalURL string `json:"final_url,omitempty"`

	// Depth is the number of link hops from a seed. Sitemap pages have depth 0.
	Depth int `json:"depth"`

	// Source records how the page was discovered.
	Source PageSource `json:"source"`

	// FetchStatus is the outcome of fetching the page.
	FetchStatus FetchStatus `json:"fetch_status"`

	// StatusCode is the HTTP response status code, 0 when no response arrived.
	StatusCode int `json:"status_code,omitempty"`

	// FetchError describes why the fetch failed.
	FetchError string `json:"fetch_error,omitempty"`

	// Headers contains the response headers in canonical form.
	Headers map[string][]string `json:"-"`

	// ContentType is the media type of the response without parameters.
	ContentType string `json:"content_type,omitempty"`

	// Raw is the decoded response body.
	Raw []byte `json:"-"`

	// Size is the body size in bytes.
	Size int `json:"size"`

	// Fingerprint is the SHA3-256 of the body, used to detect duplicate content.
	Fingerprint string `json:"fingerprint,omitempty"`

	// FetchedAt is when the response was received.
	FetchedAt time.Time `json:"fetched_at,omitzero"`
}

// ComputeFingerprint sets Size and Fingerprint from Raw.
func (p *Page) ComputeFingerprint() {
	p.Size = len(p.Raw)
	if len(p.Raw) == 0 {
		p.Fingerprint = ""
		return
	}
	sum := sha3.Sum256(p.Raw)
	p.Fingerprint = hex.EncodeToString(sum[:])
}

// GetHeader returns the first value of the specified header.
// Returns empty string if the header is not present.
func (p *Page) GetHeader(name string) string {
	for key, values := range p.Headers {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// HasHeader reports whether the header is present with a non-empty value.
func (p *Page) HasHeader(name string) bool {
	return strings.TrimSpace(p.GetHeader(name)) != ""
}

// IsHTML returns true if the page content type indicates HTML.
func (p *Page) IsHTML() bool {
	ct := strings.ToLower(p.ContentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// OK reports whether the page was fetched successfully.
func (p *Page) OK() bool {
	return p.FetchStatus == FetchSuccess
}

// IsHTTPS reports whether the page was served over TLS.
func (p *Page) IsHTTPS() bool {
	u := p.URL
	if p.FinalURL != "" {
		u = p.FinalURL
	}
	return strings.HasPrefix(strings.ToLower(u), "https://")
}
