package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Timeouts and user agents follow the behaviour of the audit scripts this
// tool replaces, so that reports stay comparable.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "linkaudit"

	// DefaultTimeout is the timeout of a page GET during discovery.
	DefaultTimeout = 10 * time.Second

	// DefaultSitemapTimeout is the timeout of each sitemap and robots.txt request.
	DefaultSitemapTimeout = 5 * time.Second

	// DefaultProbeTimeout is the timeout of one link status probe.
	DefaultProbeTimeout = 5 * time.Second

	// DefaultSinglePageTimeout is the GET timeout in single-page mode.
	// Single pages are often heavier landing pages, so they get more time.
	DefaultSinglePageTimeout = 15 * time.Second

	// DefaultMaxDepth is the number of link hops followed from each seed.
	DefaultMaxDepth = 2

	// DefaultMaxPages caps the number of pages fetched by the crawl.
	DefaultMaxPages = 200

	// DefaultConcurrency is the number of page fetches in flight per site.
	DefaultConcurrency = 4

	// DefaultBatchSize is the number of sites audited concurrently.
	DefaultBatchSize = 2

	// DefaultStatusLimit is the number of edges probed per page.
	DefaultStatusLimit = 50

	// DefaultStatusStagger is the start offset between consecutive probes.
	DefaultStatusStagger = 100 * time.Millisecond

	// DefaultMaxRedirects bounds redirect-following for probes.
	DefaultMaxRedirects = 5

	// DefaultCrawlDelay is the minimum delay between requests to one host.
	// Zero disables the per-host limiter.
	DefaultCrawlDelay = 0

	// DefaultUserAgent is sent with page and sitemap requests.
	DefaultUserAgent = "Mozilla/5.0 (compatible; SEO-Auditor/1.0)"

	// DefaultProbeUserAgent is sent with link status probes.
	DefaultProbeUserAgent = "Mozilla/5.0 (compatible; SEO-Auditor/1.0; Link-Checker)"

	// DefaultMaxBodySize limits the decoded response body size.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultLowScoreThreshold is the page score below which a finding is raised.
	DefaultLowScoreThreshold = 50
)

// DefaultSeedPaths are crawled in addition to the base URL.
func DefaultSeedPaths() []string {
	return []string{"/blog", "/services", "/about", "/contact"}
}

// Config holds all configuration options for an audit run.
// It is populated from CLI flags and passed down explicitly; there is no
// global configuration state.
type Config struct {
	// BaseURLs are the site roots to audit.
	BaseURLs []string

	// SinglePage, when set, audits only this page without discovery.
	SinglePage string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// Timeout is the page GET timeout during discovery.
	Timeout time.Duration

	// SitemapTimeout is the timeout of sitemap and robots.txt requests.
	SitemapTimeout time.Duration

	// ProbeTimeout is the timeout of one status probe.
	ProbeTimeout time.Duration

	// MaxDepth is the number of link hops followed from each seed.
	// Depth 0 means only the seeds are fetched.
	MaxDepth int

	// MaxPages caps the number of pages fetched by the crawl.
	MaxPages int

	// SeedPaths are paths below the base URL used as extra crawl seeds.
	SeedPaths []string

	// Concurrency is the number of page fetches in flight per site.
	Concurrency int

	// BatchSize is the number of sites audited concurrently.
	BatchSize int

	// RespectRobots skips URLs disallowed by robots.txt.
	RespectRobots bool

	// CrawlDelay is the minimum delay between requests to one host.
	CrawlDelay time.Duration

	// CheckStatus enables link status probing.
	CheckStatus bool

	// StatusLimit is the number of edges probed per page.
	StatusLimit int

	// StatusStagger is the start offset between consecutive probes.
	StatusStagger time.Duration

	// MaxRedirects bounds redirect-following for probes.
	MaxRedirects int

	// IncludeInternal keeps internal edges in the link graph.
	IncludeInternal bool

	// IncludeExternal keeps external edges in the link graph.
	IncludeExternal bool

	// AllowDomains restricts edges to these domains. Empty means all.
	AllowDomains []string

	// MaxLinks caps the edges kept per page. Zero means unlimited.
	MaxLinks int

	// UserAgent is sent with page, sitemap and robots.txt requests.
	UserAgent string

	// ProbeUserAgent is sent with status probes.
	ProbeUserAgent string

	// MaxBodySize is the maximum decoded response body size in bytes.
	MaxBodySize int64

	// LowScoreThreshold raises a finding for pages scoring below it.
	LowScoreThreshold int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .linkaudit.yaml is searched in the current directory and
	// then in the home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site settings loaded from the config file.
	SiteConfigs *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path. Empty means stdout.
	ReportFile string

	// DBDir is the directory of the history database.
	DBDir string

	// SaveToDB stores finished reports in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		SitemapTimeout:    DefaultSitemapTimeout,
		ProbeTimeout:      DefaultProbeTimeout,
		MaxDepth:          DefaultMaxDepth,
		MaxPages:          DefaultMaxPages,
		SeedPaths:         DefaultSeedPaths(),
		Concurrency:       DefaultConcurrency,
		BatchSize:         DefaultBatchSize,
		CrawlDelay:        DefaultCrawlDelay,
		StatusLimit:       DefaultStatusLimit,
		StatusStagger:     DefaultStatusStagger,
		MaxRedirects:      DefaultMaxRedirects,
		IncludeInternal:   true,
		IncludeExternal:   true,
		UserAgent:         DefaultUserAgent,
		ProbeUserAgent:    DefaultProbeUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		LowScoreThreshold: DefaultLowScoreThreshold,
	}
}

// XDGDataDir returns the XDG data directory for linkaudit.
// On Linux: ~/.local/share/linkaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for linkaudit.
// On Linux: ~/.config/linkaudit
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It is called once after flag parsing and before any network call, and
// returns the first problem found.
func (c *Config) Validate() error {
	if len(c.BaseURLs) == 0 && c.SinglePage == "" {
		return ErrEmptyBaseURL
	}
	for _, raw := range c.BaseURLs {
		if _, err := ParseBaseURL(raw); err != nil {
			return err
		}
	}
	if c.SinglePage != "" {
		if _, err := ParseBaseURL(c.SinglePage); err != nil {
			return err
		}
	}

	if c.Timeout <= 0 || c.SitemapTimeout <= 0 || c.ProbeTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.StatusLimit < 0 {
		return ErrInvalidStatusLimit
	}
	if c.MaxLinks < 0 {
		return ErrInvalidMaxLinks
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.CrawlDelay < 0 || c.StatusStagger < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// ParseBaseURL validates a site root and returns it without a trailing slash.
// It accepts only absolute http and https URLs with a host.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyBaseURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidBaseURL, raw, err) //nolint:errorlint // only the sentinel is matched
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidBaseURL, raw)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q: missing host", ErrInvalidBaseURL, raw)
	}

	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
