// Package pipeline runs the steps of a site audit in sequence.
//
// A site audit is robots.txt, discovery, fetching of sitemap-only pages, link
// extraction, optional status probing, link aggregation, scoring, site
// checks, provider lookups and the final summary. Each stage is a Step that
// receives the report and fills in its part.
//
// BatchProcessor audits several sites concurrently with errgroup, creating a
// fresh pipeline per site.
package pipeline
