package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"

	"github.com/nao1215/linkaudit/internal/httpclient"
	"github.com/nao1215/linkaudit/internal/linkgraph"
	"github.com/nao1215/linkaudit/internal/model"
)

// SitemapPaths are probed in order; the first one listing pages wins.
var SitemapPaths = []string{"/sitemap.xml", "/sitemap-index.xml", "/sitemap-0.xml"}

// sitemapEntries is the parsed content of one sitemap document.
type sitemapEntries struct {
	pages    []string
	sitemaps []string
}

// FindSitemap probes the well-known sitemap locations of base and returns
// the same-domain page URLs of the first sitemap that lists any. Failures
// are logged and reported through the returned info; they are never fatal.
func FindSitemap(ctx context.Context, client *httpclient.Client, base *url.URL, timeout time.Duration) ([]string, *model.SitemapInfo) {
	info := &model.SitemapInfo{}
	baseDomain := linkgraph.NormalizeDomain(base.Hostname())

	for _, path := range SitemapPaths {
		if ctx.Err() != nil {
			break
		}
		location := base.ResolveReference(&url.URL{Path: path}).String()
		info.Probed = append(info.Probed, location)

		urls, subs, err := readSitemap(ctx, client, location, baseDomain, timeout)
		if err != nil {
			slog.Debug("sitemap probe failed", "url", location, "error", err)
			continue
		}
		info.Found = true
		info.Location = location
		info.SubSitemaps = subs
		info.URLCount = len(urls)
		return urls, info
	}
	return nil, info
}

// readSitemap reads one sitemap and the sitemaps it references, one level deep.
func readSitemap(ctx context.Context, client *httpclient.Client, location, baseDomain string, timeout time.Duration) ([]string, []string, error) {
	entries, err := fetchSitemap(ctx, client, location, timeout)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool)
	urls := make([]string, 0, len(entries.pages))
	add := func(raw string) {
		if !sameDomain(raw, baseDomain) {
			return
		}
		n := NormalizeURL(raw)
		if !seen[n] {
			seen[n] = true
			urls = append(urls, n)
		}
	}
	for _, p := range entries.pages {
		add(p)
	}

	var subs []string
	for _, sub := range entries.sitemaps {
		if !sameDomain(sub, baseDomain) {
			continue
		}
		subs = append(subs, sub)
		nested, err := fetchSitemap(ctx, client, sub, timeout)
		if err != nil {
			slog.Debug("nested sitemap failed", "url", sub, "error", err)
			continue
		}
		for _, p := range nested.pages {
			add(p)
		}
	}

	if len(urls) == 0 {
		return nil, subs, fmt.Errorf("%w: %s", ErrEmptySitemap, location)
	}
	return urls, subs, nil
}

// fetchSitemap downloads and parses one sitemap document.
func fetchSitemap(ctx context.Context, client *httpclient.Client, location string, timeout time.Duration) (*sitemapEntries, error) {
	resp, err := client.Get(ctx, location, timeout)
	if err != nil {
		return nil, err
	}
	if !isXML(resp.Body, resp.ContentType) {
		return nil, fmt.Errorf("%w: %s", ErrNotXML, location)
	}
	return parseSitemap(resp.Body)
}

// parseSitemap extracts <url><loc> and <sitemap><loc> entries. A <url> entry
// whose location ends in ".xml" is treated as a nested sitemap.
func parseSitemap(body []byte) (*sitemapEntries, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}

	entries := &sitemapEntries{}
	doc.Find("url loc, sitemap loc").Each(func(_ int, s *goquery.Selection) {
		loc := strings.TrimSpace(s.Text())
		if loc == "" {
			return
		}
		inIndex := s.ParentsFiltered("sitemap").Length() > 0
		if inIndex || strings.HasSuffix(strings.ToLower(loc), ".xml") {
			entries.sitemaps = append(entries.sitemaps, loc)
			return
		}
		entries.pages = append(entries.pages, loc)
	})
	return entries, nil
}

// isXML reports whether body sniffs as XML. The declared content type is
// accepted as well for documents without an XML declaration.
func isXML(body []byte, contentType string) bool {
	for mt := mimetype.Detect(body); mt != nil; mt = mt.Parent() {
		if mt.Is("text/xml") || mt.Is("application/xml") {
			return true
		}
	}
	return strings.HasSuffix(contentType, "/xml") || strings.HasSuffix(contentType, "+xml")
}

// sameDomain reports whether raw is an http(s) URL on baseDomain.
func sameDomain(raw, baseDomain string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return linkgraph.NormalizeDomain(u.Hostname()) == baseDomain
}
