package model

import (
	"sort"
	"time"
)

// AuditReport is the result of auditing one site.
// It is a single struct so that it serializes to JSON and into the history
// database in one piece.
type AuditReport struct {
	// BaseURL is the audited site root.
	BaseURL string `json:"base_url"`

	// BaseDomain is the hostname of BaseURL without a leading "www.".
	BaseDomain string `json:"base_domain"`

	// DateAudited is when the audit started.
	DateAudited time.Time `json:"date_audited"`

	// Duration is how long the audit took.
	Duration time.Duration `json:"duration"`

	// === Discovery ===

	// Pages lists every page that was fetched or listed in the sitemap,
	// in discovery order. Failed fetches are kept with FetchStatus error.
	Pages []*Page `json:"pages"`

	// DiscoveredURLs is the deduplicated set of page URLs.
	DiscoveredURLs []string `json:"discovered_urls"`

	// Sitemap summarizes sitemap discovery.
	Sitemap *SitemapInfo `json:"sitemap,omitempty"`

	// Robots summarizes robots.txt.
	Robots *RobotsInfo `json:"robots,omitempty"`

	// === Link graph ===

	// PageLinks holds the extracted edges of each audited page.
	PageLinks []*PageLinks `json:"page_links,omitempty"`

	// Stats is the site-wide link statistics over all edges.
	Stats LinkStats `json:"stats"`

	// Domains is the top domain rollup sorted by count.
	Domains []DomainAggregate `json:"domains,omitempty"`

	// Issues lists the link rule violations.
	Issues []Finding `json:"issues,omitempty"`

	// === Site checks ===

	SecurityHeaders *SecurityHeaderAudit `json:"security_headers,omitempty"`
	SocialTags      *SocialTagAudit      `json:"social_tags,omitempty"`

	// === Scoring ===

	// Scores holds one entry per audited HTML page.
	Scores []PageScore `json:"scores,omitempty"`

	// AverageScore is the mean total score over Scores.
	AverageScore float64 `json:"average_score"`

	// === External providers ===

	SearchSignals *SearchSignals `json:"search_signals,omitempty"`
	Keywords      *KeywordReport `json:"keywords,omitempty"`

	// === Result ===

	// SimpleReport holds deduplicated findings and their severity counts.
	SimpleReport *SimpleReport `json:"simple_report,omitempty"`

	// Plan groups findings into prioritized tasks.
	Plan *ImplementationPlan `json:"plan,omitempty"`

	// TimedOut is true if the audit was cut short by its deadline.
	TimedOut bool `json:"timed_out"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error contains the first error that stopped a step.
	Error error `json:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewAuditReport creates a new report for the given site.
func NewAuditReport(baseURL, baseDomain string) *AuditReport {
	return &AuditReport{
		BaseURL:     baseURL,
		BaseDomain:  baseDomain,
		DateAudited: time.Now(),
	}
}

// AddPage records a page. A page with the same URL replaces the earlier entry.
func (r *AuditReport) AddPage(page *Page) {
	for i, p := range r.Pages {
		if p.URL == page.URL {
			r.Pages[i] = page
			return
		}
	}
	r.Pages = append(r.Pages, page)
}

// GetPage returns the recorded page for url, or nil.
func (r *AuditReport) GetPage(url string) *Page {
	for _, p := range r.Pages {
		if p.URL == url {
			return p
		}
	}
	return nil
}

// SuccessfulPages returns the pages that were fetched successfully.
func (r *AuditReport) SuccessfulPages() []*Page {
	pages := make([]*Page, 0, len(r.Pages))
	for _, p := range r.Pages {
		if p.OK() {
			pages = append(pages, p)
		}
	}
	return pages
}

// AllEdges returns the edges of every page in page order.
func (r *AuditReport) AllEdges() []LinkEdge {
	var edges []LinkEdge
	for _, pl := range r.PageLinks {
		edges = append(edges, pl.Edges...)
	}
	return edges
}

// AddFinding adds a finding to the simple report.
// Findings with the same type, value and location are kept once.
func (r *AuditReport) AddFinding(finding Finding) {
	if r.SimpleReport == nil {
		r.SimpleReport = &SimpleReport{
			BaseURL:     r.BaseURL,
			DateAudited: r.DateAudited,
			Findings:    make([]Finding, 0),
		}
	}

	for _, f := range r.SimpleReport.Findings {
		if f.Type == finding.Type && f.Value == finding.Value && f.Location == finding.Location {
			return
		}
	}

	r.SimpleReport.Findings = append(r.SimpleReport.Findings, finding)
	r.SimpleReport.count(finding.Severity)
}

// Findings returns the findings recorded so far.
func (r *AuditReport) Findings() []Finding {
	if r.SimpleReport == nil {
		return nil
	}
	return r.SimpleReport.Findings
}

// SortFindings orders findings by severity (highest first), then by type.
func (r *AuditReport) SortFindings() {
	if r.SimpleReport == nil {
		return
	}
	sort.SliceStable(r.SimpleReport.Findings, func(i, j int) bool {
		a, b := r.SimpleReport.Findings[i], r.SimpleReport.Findings[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		return a.Type < b.Type
	})
}

// SetError records err as the report error.
func (r *AuditReport) SetError(err error) {
	if err == nil || r.Error != nil {
		return
	}
	r.Error = err
	r.ErrorMessage = err.Error()
}
