package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkaudit/internal/config"
	"github.com/nao1215/linkaudit/internal/database"
	"github.com/nao1215/linkaudit/internal/httpclient"
	"github.com/nao1215/linkaudit/internal/linkgraph"
	seclog "github.com/nao1215/linkaudit/internal/log"
	"github.com/nao1215/linkaudit/internal/model"
	"github.com/nao1215/linkaudit/internal/pipeline"
	"github.com/nao1215/linkaudit/internal/report"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [base-url...]",
		Short: "Audit the links and on-page SEO of one or more sites",
		Long: `Audit crawls each site from its base URL, sitemap and seed paths,
extracts every link, optionally probes link targets, and scores each page.

The report lists link statistics, the most linked domains, per-page scores,
security header coverage and findings grouped by severity, followed by an
implementation plan.

Examples:
  # Audit a site
  linkaudit audit https://example.com

  # Audit several sites, two at a time, and probe link targets
  linkaudit audit --check-status https://example.com https://example.org

  # Audit the sites listed in a file and store the reports
  linkaudit audit --list sites.txt --save

  # Audit a single page without crawling
  linkaudit audit --page https://example.com/pricing

  # Markdown report written to a file
  linkaudit audit -m -o report.md https://example.com

Configuration file (.linkaudit.yaml) example:
  sites:
    staging.example.com:
      cookie: "session=abc123"
      headers:
        Authorization: "Bearer token"
      depth: 3`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	f := cmd.Flags()

	// Targets
	f.String("page", "", "Audit this single page only (no discovery)")
	f.StringP("list", "l", "", "File with one base URL per line")
	f.IntP("batch-size", "b", config.DefaultBatchSize, "Number of sites audited concurrently")

	// Crawl
	f.IntP("depth", "d", config.DefaultMaxDepth, "Maximum crawl depth from the base URL")
	f.IntP("max-pages", "p", config.DefaultMaxPages, "Maximum number of pages per site")
	f.Int("concurrency", config.DefaultConcurrency, "Concurrent requests per site")
	f.StringSlice("seed", config.DefaultSeedPaths(), "Seed paths queued next to the base URL")
	f.Duration("delay", config.DefaultCrawlDelay, "Minimum delay between requests to the same host")
	f.Bool("respect-robots", false, "Skip URLs disallowed by robots.txt")

	// HTTP
	f.DurationP("timeout", "t", config.DefaultTimeout, "Timeout of each page request")
	f.Duration("sitemap-timeout", config.DefaultSitemapTimeout, "Timeout of sitemap and robots.txt requests")
	f.String("proxy", "", "SOCKS5 proxy address (host:port)")
	f.String("user-agent", config.DefaultUserAgent, "User-Agent of page requests")
	f.Int64("max-body-size", config.DefaultMaxBodySize, "Maximum decoded body size in bytes")

	// Status probes
	f.Bool("check-status", false, "Probe link targets with HEAD requests")
	f.Int("status-limit", config.DefaultStatusLimit, "Number of links probed per page")
	f.Duration("stagger", config.DefaultStatusStagger, "Delay between probe starts")
	f.Duration("probe-timeout", config.DefaultProbeTimeout, "Timeout of each probe")
	f.Int("max-redirects", config.DefaultMaxRedirects, "Redirects followed by a probe")
	f.String("probe-user-agent", config.DefaultProbeUserAgent, "User-Agent of probe requests")

	// Link filter
	f.Bool("no-internal", false, "Drop internal links from the report")
	f.Bool("no-external", false, "Drop external links from the report")
	f.StringSlice("allow-domain", nil, "Keep only links to these domains, internal links included")
	f.Int("max-links", 0, "Maximum links kept per page (0 keeps all)")

	// Scoring
	f.Int("low-score", config.DefaultLowScoreThreshold, "Pages scoring below this are reported")

	// Config and output
	f.StringP("config", "c", "", "Configuration file path (default: .linkaudit.yaml in current or home directory)")
	f.BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	f.BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	f.StringP("output", "o", "", "Write the report to this file")
	f.Bool("save", false, "Store the report in the history database")
	f.String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := seclog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAudit(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getVerboseFlag reads --verbose from the command or the root command.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the flags of cmd.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	f := cmd.Flags()
	var err error

	if cfg.SinglePage, err = f.GetString("page"); err != nil {
		return nil, err
	}
	listFile, err := f.GetString("list")
	if err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = f.GetInt("batch-size"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = f.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = f.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = f.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.SeedPaths, err = f.GetStringSlice("seed"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = f.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.RespectRobots, err = f.GetBool("respect-robots"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = f.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.SitemapTimeout, err = f.GetDuration("sitemap-timeout"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = f.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = f.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = f.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.CheckStatus, err = f.GetBool("check-status"); err != nil {
		return nil, err
	}
	if cfg.StatusLimit, err = f.GetInt("status-limit"); err != nil {
		return nil, err
	}
	if cfg.StatusStagger, err = f.GetDuration("stagger"); err != nil {
		return nil, err
	}
	if cfg.ProbeTimeout, err = f.GetDuration("probe-timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxRedirects, err = f.GetInt("max-redirects"); err != nil {
		return nil, err
	}
	if cfg.ProbeUserAgent, err = f.GetString("probe-user-agent"); err != nil {
		return nil, err
	}

	noInternal, err := f.GetBool("no-internal")
	if err != nil {
		return nil, err
	}
	noExternal, err := f.GetBool("no-external")
	if err != nil {
		return nil, err
	}
	cfg.IncludeInternal, cfg.IncludeExternal = !noInternal, !noExternal
	if cfg.AllowDomains, err = f.GetStringSlice("allow-domain"); err != nil {
		return nil, err
	}
	if cfg.MaxLinks, err = f.GetInt("max-links"); err != nil {
		return nil, err
	}
	if cfg.LowScoreThreshold, err = f.GetInt("low-score"); err != nil {
		return nil, err
	}

	if cfg.ConfigFilePath, err = f.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	if cfg.JSONReport, err = f.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = f.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = f.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = f.GetBool("save"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = f.GetString("db-dir"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	cfg.BaseURLs = append(cfg.BaseURLs, args...)
	if listFile != "" {
		listed, err := readURLList(listFile)
		if err != nil {
			return nil, err
		}
		cfg.BaseURLs = append(cfg.BaseURLs, listed...)
	}
	return cfg, nil
}

// loadSiteConfigs loads the configuration file. A missing file is an error
// only when its path was given explicitly.
func loadSiteConfigs(path string) (*config.File, error) {
	found := config.FindConfigFile(path)
	if found == "" {
		if path != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}
	sites, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	slog.Debug("loaded configuration file", "path", found, "sites", len(sites.Sites))
	return sites, nil
}

// readURLList reads one URL per line. Blank lines and lines starting with
// # are skipped.
func readURLList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return urls, nil
}

// sitePlan is everything needed to audit one site.
type sitePlan struct {
	baseURL  string
	pipeline *pipeline.Pipeline
}

// runAudit audits every configured site and writes the reports to out or
// to the report file.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger, out, errOut io.Writer) error {
	targets, err := auditTargets(cfg)
	if err != nil {
		return err
	}

	plans := make(map[string]*sitePlan, len(targets))
	for _, target := range targets {
		plan, err := newSitePlan(cfg, target, logger)
		if err != nil {
			return err
		}
		plans[target] = plan
	}

	if cfg.ProxyAddress != "" {
		if err := checkProxy(ctx, cfg); err != nil {
			return err
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
	}

	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	output, closeOutput, err := openOutput(cfg, out)
	if err != nil {
		return err
	}
	defer closeOutput()
	writer := newReportWriter(cfg, output)

	start := time.Now()
	bp := pipeline.NewBatchProcessor(
		func(baseURL string) *pipeline.Pipeline { return plans[baseURL].pipeline },
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var (
		mu     sync.Mutex
		failed int
	)
	err = bp.ProcessBatchWithCallback(ctx, targets, func(r *model.AuditReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		if r.Error != nil && r.TimedOut {
			logger.Warn("audit interrupted, report is partial", "site", r.BaseURL, "error", r.Error)
		} else if r.Error != nil {
			failed++
		}
		if len(targets) > 1 {
			fmt.Fprintf(errOut, "[%d/%d] audit completed: %s\n", index+1, len(targets), r.BaseURL)
		}
		if _, err := writer.Write(r); err != nil {
			logger.Error("failed to write report", "site", r.BaseURL, "error", err)
		}
		if db != nil {
			id, err := db.SaveReport(ctx, r)
			if err != nil {
				logger.Error("failed to save report", "site", r.BaseURL, "error", err)
				return
			}
			logger.Info("report saved", "site", r.BaseURL, "id", id)
		}
	})
	logger.Info("audit finished", "sites", len(targets), "elapsed", time.Since(start).Round(time.Millisecond))

	if err != nil {
		return err
	}
	if failed == len(targets) {
		return errors.New("every audit failed")
	}
	return nil
}

// auditTargets returns the base URLs to audit, validated and normalized.
func auditTargets(cfg *config.Config) ([]string, error) {
	if cfg.SinglePage != "" {
		if _, err := config.ParseBaseURL(cfg.SinglePage); err != nil {
			return nil, err
		}
		return []string{strings.TrimSpace(cfg.SinglePage)}, nil
	}
	if len(cfg.BaseURLs) == 0 {
		return nil, config.ErrEmptyBaseURL
	}

	seen := make(map[string]bool, len(cfg.BaseURLs))
	targets := make([]string, 0, len(cfg.BaseURLs))
	for _, raw := range cfg.BaseURLs {
		u, err := config.ParseBaseURL(raw)
		if err != nil {
			return nil, err
		}
		target := u.String()
		if seen[target] {
			continue
		}
		seen[target] = true
		targets = append(targets, target)
	}
	return targets, nil
}

// newSitePlan builds the clients and the pipeline of one site, applying its
// entry of the configuration file.
func newSitePlan(cfg *config.Config, target string, logger *slog.Logger) (*sitePlan, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidBaseURL, target)
	}
	var site config.SiteConfig
	if cfg.SiteConfigs != nil {
		site = cfg.SiteConfigs.GetSiteConfig(u.Hostname())
	}

	client, probeClient, err := newClients(cfg, site)
	if err != nil {
		return nil, err
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	}
	return &sitePlan{
		baseURL:  target,
		pipeline: pipeline.DefaultPipeline(client, probeClient, pipelineOpts, pipelineOptions(cfg, site)...),
	}, nil
}

// newClients creates the page client and the probe client of a site.
func newClients(cfg *config.Config, site config.SiteConfig) (*httpclient.Client, *httpclient.Client, error) {
	common := []httpclient.Option{
		httpclient.WithProxy(cfg.ProxyAddress),
		httpclient.WithCookie(site.Cookie),
		httpclient.WithHeaders(site.Headers),
		httpclient.WithMaxBodySize(cfg.MaxBodySize),
	}

	client, err := httpclient.NewClient(append(common,
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithUserAgent(cfg.UserAgent),
	)...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	if !cfg.CheckStatus {
		return client, nil, nil
	}

	probeClient, err := httpclient.NewClient(append(common,
		httpclient.WithTimeout(cfg.ProbeTimeout),
		httpclient.WithUserAgent(cfg.ProbeUserAgent),
		httpclient.WithMaxRedirects(cfg.MaxRedirects),
	)...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create probe client: %w", err)
	}
	return client, probeClient, nil
}

// pipelineOptions maps the configuration onto pipeline options. Site
// settings override the flags.
func pipelineOptions(cfg *config.Config, site config.SiteConfig) []pipeline.DefaultPipelineOption {
	depth := cfg.MaxDepth
	if site.Depth > 0 {
		depth = site.Depth
	}
	seeds := cfg.SeedPaths
	if len(site.SeedPaths) > 0 {
		seeds = site.SeedPaths
	}
	allow := cfg.AllowDomains
	if len(site.AllowDomains) > 0 {
		allow = site.AllowDomains
	}

	opts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineMaxDepth(depth),
		pipeline.WithPipelineMaxPages(cfg.MaxPages),
		pipeline.WithPipelineSeedPaths(seeds),
		pipeline.WithPipelineConcurrency(cfg.Concurrency),
		pipeline.WithPipelineTimeouts(cfg.Timeout, cfg.SitemapTimeout),
		pipeline.WithPipelineCrawlDelay(cfg.CrawlDelay),
		pipeline.WithPipelineIgnorePatterns(site.IgnorePatterns),
		pipeline.WithPipelineFollowPatterns(site.FollowPatterns),
		pipeline.WithPipelineFilter(linkgraph.FilterOptions{
			IncludeInternal: cfg.IncludeInternal,
			IncludeExternal: cfg.IncludeExternal,
			AllowDomains:    allow,
			MaxLinks:        cfg.MaxLinks,
		}),
		pipeline.WithPipelineLowScoreThreshold(cfg.LowScoreThreshold),
	}
	if cfg.RespectRobots {
		opts = append(opts, pipeline.WithPipelineRobots(cfg.UserAgent))
	}
	if cfg.CheckStatus {
		opts = append(opts, pipeline.WithPipelineStatusCheck(cfg.StatusLimit, cfg.StatusStagger, cfg.ProbeTimeout))
	}
	if cfg.SinglePage != "" {
		opts = append(opts, pipeline.WithPipelineSinglePage(config.DefaultSinglePageTimeout))
	}
	return opts
}

// checkProxy verifies that the proxy speaks SOCKS5.
func checkProxy(ctx context.Context, cfg *config.Config) error {
	client, err := httpclient.NewClient(httpclient.WithProxy(cfg.ProxyAddress))
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}
	if status := client.CheckConnection(ctx); status != httpclient.ProxyStatusOK {
		return fmt.Errorf("proxy check failed: %w (address %s)", status.Error(), cfg.ProxyAddress)
	}
	return nil
}

// openOutput returns the report destination: the report file when set,
// out otherwise.
func openOutput(cfg *config.Config, out io.Writer) (io.Writer, func(), error) {
	if cfg.ReportFile == "" {
		return out, func() {}, nil
	}
	if dir := filepath.Dir(cfg.ReportFile); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// newReportWriter picks the writer for the requested format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}
