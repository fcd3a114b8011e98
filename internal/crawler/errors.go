package crawler

import "errors"

var (
	// ErrInvalidBaseURL is returned by Discover when the base URL is not an
	// absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("base URL must be an absolute http or https URL")

	// ErrNotXML is returned when a sitemap probe answers with something
	// other than XML.
	ErrNotXML = errors.New("sitemap response is not XML")

	// ErrEmptySitemap is returned when a sitemap lists no same-domain URLs.
	ErrEmptySitemap = errors.New("sitemap lists no same-domain URLs")
)
