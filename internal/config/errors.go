package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate and ParseBaseURL. A configuration
// error is fatal: the run stops before any network request is made.
var (
	// ErrEmptyBaseURL is returned when no base URL is given, or the given one is blank.
	ErrEmptyBaseURL = errors.New("no base URL specified: provide a site URL or use --list")

	// ErrInvalidBaseURL is returned when a base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDepth is returned when the crawl depth is negative.
	ErrInvalidDepth = errors.New("invalid crawl depth: must be non-negative")

	// ErrInvalidConcurrency is returned when the per-site concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidStatusLimit is returned when the status probe limit is negative.
	ErrInvalidStatusLimit = errors.New("invalid status limit: must be non-negative")

	// ErrInvalidMaxLinks is returned when the per-page link cap is negative.
	ErrInvalidMaxLinks = errors.New("invalid max links: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay or probe stagger is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
