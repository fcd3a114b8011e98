package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nao1215/linkaudit/internal/httpclient"
	"github.com/nao1215/linkaudit/internal/linkgraph"
	"github.com/nao1215/linkaudit/internal/model"
)

// Discoverer finds the pages of a site through its sitemap and a bounded crawl.
type Discoverer struct {
	client *httpclient.Client

	// maxDepth is the number of link hops followed from the seeds.
	maxDepth int

	// maxPages caps the number of crawl fetches. Zero means unlimited.
	maxPages int

	// concurrency bounds the fetches running at the same time.
	concurrency int

	// delay spaces consecutive requests. Zero disables the limiter.
	delay time.Duration

	timeout        time.Duration
	sitemapTimeout time.Duration
	seedPaths      []string
	filter         PathFilter

	robots         *Robots
	respectRobots  bool
	robotsAgent    string
	disableSitemap bool

	// limiter is shared by the crawl and FetchPending so the delay holds
	// across both. It is nil when no delay applies.
	limiter *rate.Limiter
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithMaxDepth sets the maximum crawl depth. 0 fetches only the seeds.
func WithMaxDepth(depth int) Option {
	return func(d *Discoverer) {
		if depth >= 0 {
			d.maxDepth = depth
		}
	}
}

// WithMaxPages sets the maximum number of pages fetched by the crawl.
func WithMaxPages(n int) Option {
	return func(d *Discoverer) {
		if n >= 0 {
			d.maxPages = n
		}
	}
}

// WithConcurrency sets how many pages are fetched at once.
func WithConcurrency(n int) Option {
	return func(d *Discoverer) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithDelay sets the minimum interval between requests.
func WithDelay(delay time.Duration) Option {
	return func(d *Discoverer) {
		if delay >= 0 {
			d.delay = delay
		}
	}
}

// WithTimeout sets the page fetch timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Discoverer) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithSitemapTimeout sets the timeout of each sitemap probe.
func WithSitemapTimeout(timeout time.Duration) Option {
	return func(d *Discoverer) {
		if timeout > 0 {
			d.sitemapTimeout = timeout
		}
	}
}

// WithSeedPaths sets the paths crawled at depth 0 besides the base URL.
func WithSeedPaths(paths []string) Option {
	return func(d *Discoverer) {
		d.seedPaths = paths
	}
}

// WithIgnorePatterns sets path globs that are never followed.
func WithIgnorePatterns(patterns []string) Option {
	return func(d *Discoverer) {
		d.filter.Ignore = patterns
	}
}

// WithFollowPatterns sets path globs that links must match to be followed.
func WithFollowPatterns(patterns []string) Option {
	return func(d *Discoverer) {
		d.filter.Follow = patterns
	}
}

// WithRobots makes the crawl skip URLs that robots disallows for agent.
// A Crawl-delay longer than the configured delay is honored too.
func WithRobots(robots *Robots, agent string) Option {
	return func(d *Discoverer) {
		d.robots = robots
		d.respectRobots = robots != nil
		d.robotsAgent = agent
	}
}

// WithoutSitemap skips sitemap discovery. Used for single-page audits.
func WithoutSitemap() Option {
	return func(d *Discoverer) {
		d.disableSitemap = true
	}
}

// NewDiscoverer creates a Discoverer using client for every request.
func NewDiscoverer(client *httpclient.Client, opts ...Option) *Discoverer {
	d := &Discoverer{
		client:         client,
		maxDepth:       2,
		maxPages:       200,
		concurrency:    4,
		timeout:        10 * time.Second,
		sitemapTimeout: 5 * time.Second,
		seedPaths:      []string{"/blog", "/services", "/about", "/contact"},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discovery is the result of Discover.
type Discovery struct {
	// BaseURL is the normalized base URL.
	BaseURL string

	// BaseDomain is the base host without "www.".
	BaseDomain string

	// URLs are the discovered page URLs, normalized, deduplicated and sorted.
	URLs []string

	// Pages are the crawl fetches in frontier order (depth, then URL within
	// a level, seeds first), failures included.
	Pages []*model.Page

	// Sitemap describes sitemap discovery, nil when it was disabled.
	Sitemap *model.SitemapInfo

	// SitemapURLs are the URLs the sitemap listed.
	SitemapURLs []string
}

// Page returns the fetched page for rawURL, or nil if it was not crawled.
func (d *Discovery) Page(rawURL string) *model.Page {
	key := NormalizeURL(rawURL)
	for _, p := range d.Pages {
		if p.URL == key {
			return p
		}
	}
	return nil
}

// Pending returns the discovered URLs that the crawl did not fetch.
func (d *Discovery) Pending() []string {
	fetched := make(map[string]bool, len(d.Pages))
	for _, p := range d.Pages {
		fetched[p.URL] = true
	}
	var pending []string
	for _, u := range d.URLs {
		if !fetched[u] {
			pending = append(pending, u)
		}
	}
	return pending
}

// frontierItem is a URL waiting to be fetched.
type frontierItem struct {
	url   string
	depth int
}

// Discover returns the union of the sitemap URLs and the successfully
// crawled pages of baseURL. Only an invalid base URL or a cancelled context
// make it fail; in the latter case the partial discovery is returned too.
func (d *Discoverer) Discover(ctx context.Context, baseURL string) (*Discovery, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	base.Fragment = ""
	// A single-page audit fetches the URL as given. Site discovery starts
	// from the bare path so the sitemap and seeds resolve against it.
	if !d.disableSitemap {
		base.RawQuery = ""
	}
	d.limiter = d.newLimiter()

	discovery := &Discovery{
		BaseURL:    NormalizeURL(base.String()),
		BaseDomain: linkgraph.NormalizeDomain(base.Hostname()),
	}

	if !d.disableSitemap {
		discovery.SitemapURLs, discovery.Sitemap = FindSitemap(ctx, d.client, base, d.sitemapTimeout)
		slog.Debug("sitemap discovery finished", "found", discovery.Sitemap.Found, "urls", len(discovery.SitemapURLs))
	}

	pages, crawlErr := d.crawl(ctx, base, discovery.BaseDomain)
	discovery.Pages = pages

	seen := make(map[string]bool)
	for _, p := range pages {
		if p.OK() && !seen[p.URL] {
			seen[p.URL] = true
			discovery.URLs = append(discovery.URLs, p.URL)
		}
	}
	for _, u := range discovery.SitemapURLs {
		if seen[u] {
			continue
		}
		seen[u] = true
		if !d.fetchable(u) {
			slog.Debug("skipping sitemap URL", "url", u)
			continue
		}
		discovery.URLs = append(discovery.URLs, u)
	}
	slices.Sort(discovery.URLs)

	if crawlErr != nil {
		return discovery, crawlErr
	}
	return discovery, nil
}

// crawlResult is the outcome of one frontier item.
type crawlResult struct {
	page  *model.Page
	links []string
}

// crawl runs the level-by-level breadth-first crawl.
//
// Design decision: A level is fetched concurrently, but the next level is
// only built once the whole level is done. That keeps the depth of every
// page equal to its shortest link distance from a seed, and the page budget
// is spent on the shallow pages first. Results are stored by frontier index
// so the returned pages follow the frontier order, not the order the fetches
// finished in.
func (d *Discoverer) crawl(ctx context.Context, base *url.URL, baseDomain string) ([]*model.Page, error) {
	state := NewCrawlState(d.maxPages)
	limiter := d.limiter

	level := d.seeds(base)
	var pages []*model.Page

	for depth := 0; len(level) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		results := make([]crawlResult, len(level))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.concurrency)

		for i, item := range level {
			if !d.robotsAllow(item.url) {
				slog.Debug("skipping URL disallowed by robots.txt", "url", item.url)
				continue
			}
			if !state.Visit(item.url) {
				continue
			}

			g.Go(func() error {
				if err := wait(gctx, limiter); err != nil {
					return err
				}

				page := d.FetchPage(gctx, item.url, item.depth, sourceFor(item.depth))
				var links []string
				if page.OK() && item.depth < d.maxDepth {
					links = d.followLinks(page, base, baseDomain)
				}
				results[i] = crawlResult{page: page, links: links}
				return nil
			})
		}

		err := g.Wait()
		var next []frontierItem
		for _, r := range results {
			if r.page == nil {
				continue
			}
			pages = append(pages, r.page)
			for _, link := range r.links {
				next = append(next, frontierItem{url: link, depth: depth + 1})
			}
		}
		if err != nil {
			return pages, err
		}
		if state.Exhausted() {
			slog.Debug("page budget reached", "max_pages", d.maxPages)
			break
		}
		level = dedupeFrontier(next, state)
	}
	return pages, nil
}

// seeds returns the base URL and the seed paths, all at depth 0.
func (d *Discoverer) seeds(base *url.URL) []frontierItem {
	items := []frontierItem{{url: NormalizeURL(base.String()), depth: 0}}
	for _, p := range d.seedPaths {
		if p == "" {
			continue
		}
		ref, err := url.Parse(p)
		if err != nil {
			continue
		}
		items = append(items, frontierItem{url: NormalizeURL(base.ResolveReference(ref).String()), depth: 0})
	}
	return items
}

// dedupeFrontier drops URLs already visited or repeated within the level.
func dedupeFrontier(items []frontierItem, state *CrawlState) []frontierItem {
	seen := make(map[string]bool, len(items))
	out := make([]frontierItem, 0, len(items))
	for _, item := range items {
		if seen[item.url] || state.Visited(item.url) {
			continue
		}
		seen[item.url] = true
		out = append(out, item)
	}
	slices.SortFunc(out, func(a, b frontierItem) int { return strings.Compare(a.url, b.url) })
	return out
}

func sourceFor(depth int) model.PageSource {
	if depth == 0 {
		return model.SourceSeed
	}
	return model.SourceCrawl
}

// newLimiter returns the request limiter, or nil when no delay applies.
func (d *Discoverer) newLimiter() *rate.Limiter {
	delay := d.delay
	if d.respectRobots {
		if robotsDelay := d.robots.CrawlDelay(d.robotsAgent); robotsDelay > delay {
			delay = robotsDelay
		}
	}
	if delay <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// wait blocks until limiter admits a request. A nil limiter never blocks.
func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// fetchable reports whether rawURL passes robots.txt and the path filter.
func (d *Discoverer) fetchable(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return d.robotsAllow(rawURL) && d.filter.Allow(u.Path)
}

// FetchPending fetches urls outside the crawl, under the same rules: URLs
// disallowed by robots.txt or rejected by the path filter are skipped, and
// requests share the crawl's limiter and concurrency bound. The pages keep
// the order of urls; skipped URLs have no page. On cancellation the pages
// fetched so far are returned with the context error.
func (d *Discoverer) FetchPending(ctx context.Context, urls []string) ([]*model.Page, error) {
	if d.limiter == nil {
		d.limiter = d.newLimiter()
	}
	limiter := d.limiter

	fetched := make([]*model.Page, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, u := range urls {
		if !d.fetchable(u) {
			slog.Debug("skipping pending URL", "url", u)
			continue
		}
		g.Go(func() error {
			if err := wait(gctx, limiter); err != nil {
				return err
			}
			fetched[i] = d.FetchPage(gctx, u, 0, model.SourceSitemap)
			return nil
		})
	}
	err := g.Wait()

	pages := make([]*model.Page, 0, len(urls))
	for _, p := range fetched {
		if p != nil {
			pages = append(pages, p)
		}
	}
	return pages, err
}

func (d *Discoverer) robotsAllow(rawURL string) bool {
	if !d.respectRobots {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return d.robots.Allowed(u.EscapedPath(), d.robotsAgent)
}

// FetchPage fetches rawURL and records the outcome as a Page. It never
// returns nil; failures are reflected in FetchStatus and FetchError.
func (d *Discoverer) FetchPage(ctx context.Context, rawURL string, depth int, source model.PageSource) *model.Page {
	page := &model.Page{
		URL:         NormalizeURL(rawURL),
		Depth:       depth,
		Source:      source,
		FetchStatus: model.FetchPending,
	}

	resp, err := d.client.Get(ctx, page.URL, d.timeout)
	if resp != nil {
		page.StatusCode = resp.StatusCode
		page.Headers = resp.Header
		page.ContentType = resp.ContentType
		page.Raw = resp.Body
		page.FetchedAt = time.Now()
		if final := NormalizeURL(resp.FinalURL); final != page.URL {
			page.FinalURL = final
		}
		page.ComputeFingerprint()
	}

	switch {
	case err == nil:
		page.FetchStatus = model.FetchSuccess
	case errors.Is(err, httpclient.ErrBodyTooLarge):
		page.FetchStatus = model.FetchSuccess
		slog.Debug("page body truncated", "url", page.URL, "size", page.Size)
	default:
		page.FetchStatus = model.FetchError
		page.FetchError = err.Error()
		slog.Warn("page fetch failed", "url", page.URL, "error", err)
	}
	return page
}

// followLinks returns the links of page that the crawl should visit next:
// same origin as base, no fragment or query in the raw href, allowed by the
// path filter.
func (d *Discoverer) followLinks(page *model.Page, base *url.URL, baseDomain string) []string {
	if !page.IsHTML() {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Raw))
	if err != nil {
		slog.Debug("page parse failed", "url", page.URL, "error", err)
		return nil
	}

	pageURL := page.URL
	if page.FinalURL != "" {
		pageURL = page.FinalURL
	}

	var links []string
	for _, edge := range linkgraph.Extract(pageURL, baseDomain, doc) {
		if strings.ContainsAny(edge.RawHref, "#?") {
			continue
		}
		target, err := url.Parse(edge.ResolvedURL)
		if err != nil {
			continue
		}
		if !strings.EqualFold(target.Scheme, base.Scheme) || !strings.EqualFold(target.Host, base.Host) {
			continue
		}
		if !d.filter.Allow(target.Path) {
			continue
		}
		links = append(links, NormalizeURL(target.String()))
	}
	return links
}
