package pipeline

import (
	"time"

	"github.com/nao1215/linkaudit/internal/audit"
	"github.com/nao1215/linkaudit/internal/config"
	"github.com/nao1215/linkaudit/internal/crawler"
	"github.com/nao1215/linkaudit/internal/httpclient"
	"github.com/nao1215/linkaudit/internal/linkgraph"
	"github.com/nao1215/linkaudit/internal/provider"
	"github.com/nao1215/linkaudit/internal/status"
)

// DefaultPipelineConfig holds the settings of the default audit pipeline.
type DefaultPipelineConfig struct {
	// MaxDepth is the number of link hops followed from each seed.
	MaxDepth int

	// MaxPages caps the pages fetched over the whole run.
	MaxPages int

	// SeedPaths are crawled in addition to the base URL.
	SeedPaths []string

	// Concurrency is the number of page fetches and page probes in flight.
	Concurrency int

	// Timeout is the page GET timeout.
	Timeout time.Duration

	// SitemapTimeout is the sitemap and robots.txt timeout.
	SitemapTimeout time.Duration

	// CrawlDelay is the minimum delay between page requests.
	CrawlDelay time.Duration

	IgnorePatterns []string
	FollowPatterns []string

	// RespectRobots makes the crawl obey robots.txt for RobotsAgent.
	RespectRobots bool
	RobotsAgent   string

	// CheckStatus enables the status step.
	CheckStatus   bool
	StatusLimit   int
	StatusStagger time.Duration
	ProbeTimeout  time.Duration

	// Filter selects the edges kept per page.
	Filter linkgraph.FilterOptions

	// LowScoreThreshold flags pages scoring below it.
	LowScoreThreshold int

	// Providers are the optional external data sources.
	Providers provider.Set

	// SinglePage audits only the base URL, without robots.txt, sitemap or
	// crawl.
	SinglePage bool
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineMaxDepth sets the crawl depth.
func WithPipelineMaxDepth(depth int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxDepth = depth
	}
}

// WithPipelineMaxPages sets the page budget.
func WithPipelineMaxPages(maxPages int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxPages = maxPages
	}
}

// WithPipelineSeedPaths sets the extra crawl seeds.
func WithPipelineSeedPaths(paths []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SeedPaths = paths
	}
}

// WithPipelineConcurrency sets the fetch and probe concurrency.
func WithPipelineConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Concurrency = n
	}
}

// WithPipelineTimeouts sets the page and sitemap timeouts.
func WithPipelineTimeouts(page, sitemap time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Timeout = page
		c.SitemapTimeout = sitemap
	}
}

// WithPipelineCrawlDelay sets the minimum delay between page requests.
func WithPipelineCrawlDelay(delay time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlDelay = delay
	}
}

// WithPipelineIgnorePatterns sets URL path globs skipped by the crawl.
func WithPipelineIgnorePatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.IgnorePatterns = patterns
	}
}

// WithPipelineFollowPatterns sets URL path globs the crawl is limited to.
func WithPipelineFollowPatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FollowPatterns = patterns
	}
}

// WithPipelineRobots makes the crawl obey robots.txt for agent.
func WithPipelineRobots(agent string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.RespectRobots = true
		c.RobotsAgent = agent
	}
}

// WithPipelineStatusCheck enables link status probing.
func WithPipelineStatusCheck(limit int, stagger, timeout time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CheckStatus = true
		c.StatusLimit = limit
		c.StatusStagger = stagger
		c.ProbeTimeout = timeout
	}
}

// WithPipelineFilter sets the edge filter.
func WithPipelineFilter(filter linkgraph.FilterOptions) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Filter = filter
	}
}

// WithPipelineLowScoreThreshold sets the low score threshold.
func WithPipelineLowScoreThreshold(threshold int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.LowScoreThreshold = threshold
	}
}

// WithPipelineProviders sets the external providers.
func WithPipelineProviders(providers provider.Set) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Providers = providers
	}
}

// WithPipelineSinglePage audits the base URL alone, fetched with timeout.
func WithPipelineSinglePage(timeout time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SinglePage = true
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// DefaultPipeline builds the standard audit pipeline. client fetches pages,
// sitemaps and robots.txt; probeClient sends the status probes and may be
// the same client.
func DefaultPipeline(client, probeClient *httpclient.Client, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		MaxDepth:          config.DefaultMaxDepth,
		MaxPages:          config.DefaultMaxPages,
		SeedPaths:         config.DefaultSeedPaths(),
		Concurrency:       config.DefaultConcurrency,
		Timeout:           config.DefaultTimeout,
		SitemapTimeout:    config.DefaultSitemapTimeout,
		CrawlDelay:        config.DefaultCrawlDelay,
		StatusLimit:       config.DefaultStatusLimit,
		StatusStagger:     config.DefaultStatusStagger,
		ProbeTimeout:      config.DefaultProbeTimeout,
		Filter:            linkgraph.DefaultFilterOptions(),
		LowScoreThreshold: config.DefaultLowScoreThreshold,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}
	if probeClient == nil {
		probeClient = client
	}

	discoverOpts := []crawler.Option{
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithDelay(cfg.CrawlDelay),
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithSitemapTimeout(cfg.SitemapTimeout),
		crawler.WithSeedPaths(cfg.SeedPaths),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithFollowPatterns(cfg.FollowPatterns),
	}
	if cfg.SinglePage {
		discoverOpts = append(discoverOpts,
			crawler.WithMaxDepth(0),
			crawler.WithSeedPaths(nil),
			crawler.WithoutSitemap(),
		)
	}
	discoverer := crawler.NewDiscoverer(client, discoverOpts...)

	if !cfg.SinglePage {
		robots := NewRobotsStep(client, cfg.SitemapTimeout)
		var crawlRobots *RobotsStep
		if cfg.RespectRobots {
			crawlRobots = robots
		}
		p.AddSteps(
			robots,
			NewDiscoverStep(discoverer, crawlRobots, cfg.RobotsAgent),
			NewFetchStep(discoverer, cfg.MaxPages),
		)
	} else {
		p.AddStep(NewDiscoverStep(discoverer, nil, ""))
	}

	p.AddStep(NewLinksStep(cfg.Filter))
	if cfg.CheckStatus {
		checker := status.NewChecker(probeClient,
			status.WithLimit(cfg.StatusLimit),
			status.WithStagger(cfg.StatusStagger),
			status.WithTimeout(cfg.ProbeTimeout),
			status.WithGETFallback(true),
		)
		p.AddStep(NewStatusStep(checker, cfg.Concurrency))
	}

	analyzer := audit.NewAnalyzer(func(o *audit.AnalyzerOptions) {
		o.LowScoreThreshold = cfg.LowScoreThreshold
	})
	p.AddSteps(
		NewLinkAuditStep(),
		NewScoreStep(),
		NewAnalyzeStep(analyzer),
	)
	if !cfg.Providers.Empty() {
		p.AddStep(NewProviderStep(cfg.Providers))
	}
	p.AddStep(NewSummaryStep())

	return p
}
