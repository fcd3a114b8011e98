// Package crawler discovers the pages of one website.
//
// # Architecture
//
// A Discoverer combines two sources of page URLs:
//
//   - the XML sitemap, probed at /sitemap.xml, /sitemap-index.xml and
//     /sitemap-0.xml, following one level of nested sitemaps
//   - a breadth-first crawl from the base URL and a few seed paths,
//     following same-origin links up to a maximum depth
//
// The crawl proceeds level by level. All URLs of one level are claimed
// through CrawlState.Visit, which is an atomic test-and-set, and fetched
// concurrently by a bounded errgroup. A rate limiter spaces requests when a
// crawl delay is configured, and robots.txt rules are honored on request.
//
// Every fetched body is kept on its model.Page so later steps never download
// a page twice. Failed fetches are recorded but never abort the crawl.
//
// # Usage
//
//	d := crawler.NewDiscoverer(client, crawler.WithMaxDepth(2))
//	discovery, err := d.Discover(ctx, "https://example.com")
package crawler
