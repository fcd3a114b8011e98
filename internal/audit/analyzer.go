package audit

import (
	"context"
	"log/slog"

	"github.com/nao1215/linkaudit/internal/model"
)

// Analyzer category constants.
const (
	// CategoryCrawlability is used by checks on robots.txt, sitemaps and fetches.
	CategoryCrawlability = "crawlability"
	// CategorySecurity is used by the security header check.
	CategorySecurity = "security"
	// CategorySocial is used by the social tag check.
	CategorySocial = "social"
	// CategoryContent is used by duplicate content and page score checks.
	CategoryContent = "content"
)

// Analyzer coordinates the site checks and deduplicates their findings.
type Analyzer struct {
	analyzers []CheckAnalyzer
	options   AnalyzerOptions
}

// AnalyzerOptions configures the built-in checks.
type AnalyzerOptions struct {
	// HeaderSampleSize is how many successful pages the security header
	// check inspects.
	HeaderSampleSize int

	// LowScoreThreshold is the total score below which a page is flagged.
	LowScoreThreshold int
}

// DefaultOptions returns the default analyzer options.
func DefaultOptions() AnalyzerOptions {
	return AnalyzerOptions{
		HeaderSampleSize:  5,
		LowScoreThreshold: 50,
	}
}

// CheckAnalyzer is one site check.
type CheckAnalyzer interface {
	// Name returns the analyzer's name for logging.
	Name() string

	// Category returns the analyzer's category.
	Category() string

	// Analyze runs the check and returns its findings.
	Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error)
}

// AnalysisData is everything a check may look at.
type AnalysisData struct {
	// BaseURL is the audited site root.
	BaseURL string

	// Pages are the fetched pages, failures included.
	Pages []*model.Page

	// Robots is the robots.txt summary, nil when it was not fetched.
	Robots *model.RobotsInfo

	// Sitemap is the sitemap summary, nil when discovery did not run.
	Sitemap *model.SitemapInfo

	// Scores are the per-page scores.
	Scores []model.PageScore

	// Report receives the structured results of checks that have them,
	// such as the security header table. May be nil.
	Report *model.AuditReport
}

// SuccessfulHTMLPages returns the pages that were fetched and are HTML.
func (d *AnalysisData) SuccessfulHTMLPages() []*model.Page {
	pages := make([]*model.Page, 0, len(d.Pages))
	for _, p := range d.Pages {
		if p.OK() && p.IsHTML() {
			pages = append(pages, p)
		}
	}
	return pages
}

// NewAnalyzer creates an Analyzer with all built-in checks registered.
func NewAnalyzer(opts ...func(*AnalyzerOptions)) *Analyzer {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	a := &Analyzer{options: options}

	a.Register(NewRobotsAnalyzer())
	a.Register(NewSitemapAnalyzer())
	a.Register(NewFetchFailureAnalyzer())
	a.Register(NewSecurityHeaderAnalyzer(options.HeaderSampleSize))
	a.Register(NewSocialTagAnalyzer())
	a.Register(NewDuplicateContentAnalyzer())
	a.Register(NewScoreAnalyzer(options.LowScoreThreshold))

	return a
}

// Register adds an analyzer.
func (a *Analyzer) Register(analyzer CheckAnalyzer) {
	a.analyzers = append(a.analyzers, analyzer)
}

// Analyzers returns the registered analyzers in run order.
func (a *Analyzer) Analyzers() []CheckAnalyzer {
	return a.analyzers
}

// Analyze runs every registered check. A failing check is logged and
// skipped; only context cancellation stops the run.
func (a *Analyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	var all []model.Finding

	for _, analyzer := range a.analyzers {
		select {
		case <-ctx.Done():
			return deduplicateFindings(all), ctx.Err()
		default:
		}

		findings, err := analyzer.Analyze(ctx, data)
		if err != nil {
			slog.Warn("analyzer failed", "analyzer", analyzer.Name(), "error", err)
			continue
		}
		slog.Debug("analyzer finished", "analyzer", analyzer.Name(), "category", analyzer.Category(), "findings", len(findings))
		all = append(all, findings...)
	}

	return deduplicateFindings(all), nil
}

// deduplicateFindings keeps one finding per type, value and location, the
// most severe one when they differ.
func deduplicateFindings(findings []model.Finding) []model.Finding {
	seen := make(map[string]int)
	result := make([]model.Finding, 0, len(findings))

	for _, f := range findings {
		key := f.Type + "|" + f.Value + "|" + f.Location
		if idx, exists := seen[key]; exists {
			if f.Severity > result[idx].Severity {
				result[idx] = f
			}
			continue
		}
		seen[key] = len(result)
		result = append(result, f)
	}
	return result
}
