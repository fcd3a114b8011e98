package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/linkaudit/internal/audit"
	"github.com/nao1215/linkaudit/internal/crawler"
	"github.com/nao1215/linkaudit/internal/httpclient"
	"github.com/nao1215/linkaudit/internal/linkgraph"
	"github.com/nao1215/linkaudit/internal/model"
	"github.com/nao1215/linkaudit/internal/provider"
	"github.com/nao1215/linkaudit/internal/score"
	"github.com/nao1215/linkaudit/internal/signals"
	"github.com/nao1215/linkaudit/internal/status"
)

// RobotsStep fetches and summarizes /robots.txt.
//
// The step runs whether or not the crawl obeys robots.txt: the summary feeds
// the crawlability findings either way.
type RobotsStep struct {
	client  *httpclient.Client
	timeout time.Duration
	// robots is the parsed file, shared with DiscoverStep when the crawl
	// respects it. It is set by Do.
	robots *crawler.Robots
	logger *slog.Logger
}

// NewRobotsStep creates a RobotsStep.
func NewRobotsStep(client *httpclient.Client, timeout time.Duration) *RobotsStep {
	return &RobotsStep{client: client, timeout: timeout, logger: slog.Default()}
}

// Name returns the step name.
func (s *RobotsStep) Name() string {
	return "robots"
}

// Robots returns the parsed robots.txt, nil before Do ran.
func (s *RobotsStep) Robots() *crawler.Robots {
	return s.robots
}

// Do executes the robots step.
func (s *RobotsStep) Do(ctx context.Context, report *model.AuditReport) error {
	base, err := url.Parse(report.BaseURL)
	if err != nil {
		return err
	}
	s.robots = crawler.FetchRobots(ctx, s.client, base, s.timeout)
	report.Robots = s.robots.Info
	s.logger.Debug("robots.txt fetched", "exists", s.robots.Info.Exists, "disallow", s.robots.Info.DisallowCount)
	return nil
}

// DiscoverStep finds the pages of the site.
type DiscoverStep struct {
	discoverer *crawler.Discoverer
	// robots is nil when the crawl ignores robots.txt.
	robots *RobotsStep
	// agent is the user agent matched against robots.txt groups.
	agent  string
	logger *slog.Logger
}

// NewDiscoverStep creates a DiscoverStep. When robots is not nil the crawl
// obeys the robots.txt it fetched, for user agent agent.
func NewDiscoverStep(discoverer *crawler.Discoverer, robots *RobotsStep, agent string) *DiscoverStep {
	return &DiscoverStep{discoverer: discoverer, robots: robots, agent: agent, logger: slog.Default()}
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return "discover"
}

// Do executes the discover step.
func (s *DiscoverStep) Do(ctx context.Context, report *model.AuditReport) error {
	if s.robots != nil && s.robots.Robots() != nil {
		crawler.WithRobots(s.robots.Robots(), s.agent)(s.discoverer)
	}

	discovery, err := s.discoverer.Discover(ctx, report.BaseURL)
	if discovery == nil {
		return err
	}

	report.Sitemap = discovery.Sitemap
	report.DiscoveredURLs = discovery.URLs
	for _, page := range discovery.Pages {
		report.AddPage(page)
	}

	s.logger.Info("discovery completed",
		"site", report.BaseURL,
		"pages_fetched", len(discovery.Pages),
		"urls", len(discovery.URLs),
		"sitemap_urls", len(discovery.SitemapURLs),
	)
	return err
}

// FetchStep fetches discovered URLs that the crawl did not fetch, which are
// the pages only the sitemap listed.
//
// The fetches go through the discoverer so robots.txt, the path filter and
// the request delay apply to them exactly as they do to crawled pages.
type FetchStep struct {
	discoverer *crawler.Discoverer
	// maxPages bounds the pages of the whole run, crawl included. Zero
	// means unlimited.
	maxPages int
	logger   *slog.Logger
}

// NewFetchStep creates a FetchStep. At most maxPages pages are fetched over
// the whole run; URLs beyond that are recorded as pending.
func NewFetchStep(discoverer *crawler.Discoverer, maxPages int) *FetchStep {
	return &FetchStep{
		discoverer: discoverer,
		maxPages:   maxPages,
		logger:     slog.Default(),
	}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, report *model.AuditReport) error {
	var pending []string
	for _, u := range report.DiscoveredURLs {
		if report.GetPage(u) == nil {
			pending = append(pending, u)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	budget := len(pending)
	if s.maxPages > 0 {
		budget = max(0, min(budget, s.maxPages-len(report.Pages)))
	}

	fetched, err := s.discoverer.FetchPending(ctx, pending[:budget])
	for _, page := range fetched {
		report.AddPage(page)
	}
	// Skipped, cancelled and over-budget URLs stay in the report as pending.
	for _, u := range pending {
		if report.GetPage(u) == nil {
			report.AddPage(&model.Page{URL: u, Source: model.SourceSitemap, FetchStatus: model.FetchPending})
		}
	}

	s.logger.Info("sitemap pages fetched", "site", report.BaseURL, "fetched", len(fetched), "pending", len(pending)-len(fetched))
	return err
}

// LinksStep extracts and filters the link edges of every fetched HTML page.
type LinksStep struct {
	filter linkgraph.FilterOptions
	logger *slog.Logger
}

// NewLinksStep creates a LinksStep.
func NewLinksStep(filter linkgraph.FilterOptions) *LinksStep {
	return &LinksStep{filter: filter, logger: slog.Default()}
}

// Name returns the step name.
func (s *LinksStep) Name() string {
	return "links"
}

// Do executes the links step.
func (s *LinksStep) Do(_ context.Context, report *model.AuditReport) error {
	for _, page := range htmlPages(report) {
		doc, err := parseDocument(page)
		if err != nil {
			s.logger.Warn("failed to parse page", "url", page.URL, "error", err)
			continue
		}
		edges := linkgraph.Filter(linkgraph.Extract(documentURL(page), report.BaseDomain, doc), s.filter)
		stats, _ := audit.Aggregate(edges)
		report.PageLinks = append(report.PageLinks, &model.PageLinks{
			PageURL: page.URL,
			Edges:   edges,
			Stats:   stats,
		})
	}
	return nil
}

// StatusStep probes the link targets of every page.
type StatusStep struct {
	// checker is shared by all pages so a target linked from many pages is
	// requested once.
	checker *status.Checker
	// concurrency is the number of pages checked at the same time.
	concurrency int
	logger      *slog.Logger
}

// NewStatusStep creates a StatusStep. Pages are checked concurrency at a
// time; each page probes up to the checker's limit.
func NewStatusStep(checker *status.Checker, concurrency int) *StatusStep {
	return &StatusStep{checker: checker, concurrency: max(concurrency, 1), logger: slog.Default()}
}

// Name returns the step name.
func (s *StatusStep) Name() string {
	return "status"
}

// Do executes the status step.
func (s *StatusStep) Do(ctx context.Context, report *model.AuditReport) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, pl := range report.PageLinks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pl.Edges = s.checker.Check(gctx, pl.Edges)
			status.Summarize(&pl.Stats, pl.Edges)
			return nil
		})
	}
	return g.Wait()
}

// LinkAuditStep aggregates the site-wide link statistics and raises the
// link issues.
type LinkAuditStep struct{}

// NewLinkAuditStep creates a LinkAuditStep.
func NewLinkAuditStep() *LinkAuditStep {
	return &LinkAuditStep{}
}

// Name returns the step name.
func (s *LinkAuditStep) Name() string {
	return "link_audit"
}

// Do executes the link audit step.
func (s *LinkAuditStep) Do(_ context.Context, report *model.AuditReport) error {
	edges := report.AllEdges()
	report.Stats, report.Domains = audit.Aggregate(edges)

	checked := false
	for _, pl := range report.PageLinks {
		if pl.Stats.StatusChecked {
			checked = true
			break
		}
	}
	if checked {
		status.Summarize(&report.Stats, edges)
	}

	report.Issues = audit.Issues(report.Stats, edges)
	for _, issue := range report.Issues {
		report.AddFinding(issue)
	}
	return nil
}

// ScoreStep extracts the signals of every HTML page and scores them.
type ScoreStep struct {
	logger *slog.Logger
}

// NewScoreStep creates a ScoreStep.
func NewScoreStep() *ScoreStep {
	return &ScoreStep{logger: slog.Default()}
}

// Name returns the step name.
func (s *ScoreStep) Name() string {
	return "score"
}

// Do executes the score step.
func (s *ScoreStep) Do(_ context.Context, report *model.AuditReport) error {
	for _, page := range htmlPages(report) {
		doc, err := parseDocument(page)
		if err != nil {
			s.logger.Warn("failed to parse page", "url", page.URL, "error", err)
			continue
		}
		sig := signals.Extract(page, doc)
		breakdown := score.Score(sig)
		report.Scores = append(report.Scores, model.PageScore{
			URL:     page.URL,
			Signals: sig,
			Score:   breakdown,
			Grade:   score.Grade(breakdown.Total),
		})
	}
	report.AverageScore = score.Average(report.Scores)
	return nil
}

// AnalyzeStep runs the site checks.
type AnalyzeStep struct {
	analyzer *audit.Analyzer
	logger   *slog.Logger
}

// NewAnalyzeStep creates an AnalyzeStep.
func NewAnalyzeStep(analyzer *audit.Analyzer) *AnalyzeStep {
	return &AnalyzeStep{analyzer: analyzer, logger: slog.Default()}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do executes the analyze step.
func (s *AnalyzeStep) Do(ctx context.Context, report *model.AuditReport) error {
	data := &audit.AnalysisData{
		BaseURL: report.BaseURL,
		Pages:   report.Pages,
		Robots:  report.Robots,
		Sitemap: report.Sitemap,
		Scores:  report.Scores,
		Report:  report,
	}

	findings, err := s.analyzer.Analyze(ctx, data)
	for _, f := range findings {
		report.AddFinding(f)
	}
	s.logger.Info("site checks completed", "site", report.BaseURL, "findings", len(findings))
	return err
}

// ProviderStep asks the configured providers about the site. The query is
// the title of the base page.
type ProviderStep struct {
	providers provider.Set
	logger    *slog.Logger
}

// NewProviderStep creates a ProviderStep.
func NewProviderStep(providers provider.Set) *ProviderStep {
	return &ProviderStep{providers: providers, logger: slog.Default()}
}

// Name returns the step name.
func (s *ProviderStep) Name() string {
	return "providers"
}

// Do executes the provider step. Provider failures are logged only.
func (s *ProviderStep) Do(ctx context.Context, report *model.AuditReport) error {
	if s.providers.Empty() {
		return nil
	}
	query := baseTitle(report)
	if query == "" {
		s.logger.Debug("skipping providers, base page has no title", "site", report.BaseURL)
		return nil
	}
	if err := s.providers.Lookup(ctx, query, report); err != nil {
		s.logger.Warn("provider lookup failed", "site", report.BaseURL, "error", err)
	}
	return nil
}

// SummaryStep sorts the findings, builds the implementation plan and
// refreshes the summary counters.
type SummaryStep struct{}

// NewSummaryStep creates a SummaryStep.
func NewSummaryStep() *SummaryStep {
	return &SummaryStep{}
}

// Name returns the step name.
func (s *SummaryStep) Name() string {
	return "summary"
}

// Do executes the summary step.
func (s *SummaryStep) Do(_ context.Context, report *model.AuditReport) error {
	report.SortFindings()
	report.Plan = audit.Plan(report.Findings())
	report.SimpleReport = model.NewSimpleReport(report)
	return nil
}

// htmlPages returns the successfully fetched HTML pages of report.
func htmlPages(report *model.AuditReport) []*model.Page {
	var pages []*model.Page
	for _, p := range report.Pages {
		if p.OK() && p.IsHTML() {
			pages = append(pages, p)
		}
	}
	return pages
}

// parseDocument parses the body of page.
func parseDocument(page *model.Page) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(page.Raw))
}

// documentURL is the URL relative links of page resolve against.
func documentURL(page *model.Page) string {
	if page.FinalURL != "" {
		return page.FinalURL
	}
	return page.URL
}

// baseTitle returns the title of the base page, or of the first scored page.
func baseTitle(report *model.AuditReport) string {
	base := crawler.NormalizeURL(report.BaseURL)
	for _, s := range report.Scores {
		if s.URL == base && s.Signals.Title != "" {
			return s.Signals.Title
		}
	}
	for _, s := range report.Scores {
		if s.Signals.Title != "" {
			return s.Signals.Title
		}
	}
	return ""
}
