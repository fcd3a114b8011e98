package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/linkaudit/internal/model"
)

// SimpleWriter writes plain text reports for the terminal.
type SimpleWriter struct {
	baseWriter

	// showEmpty prints sections that have nothing to show.
	showEmpty bool

	// verbose adds finding descriptions and recommendations.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty prints empty sections too.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose prints finding details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter writing to output.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the full report.
func (w *SimpleWriter) Write(report *model.AuditReport) (int, error) {
	simple := summarize(report)

	var sb strings.Builder
	w.writeHeader(&sb, simple)
	w.writeCrawl(&sb, report)
	w.writeLinks(&sb, report)
	w.writeDomains(&sb, report)
	w.writeScores(&sb, report)
	w.writeHeaders(&sb, report)
	w.writeSummary(&sb, simple)
	w.writeFindings(&sb, simple)
	w.writePlan(&sb, report.Plan)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteSimple outputs the summary and findings only.
func (w *SimpleWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	var sb strings.Builder
	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeFindings(&sb, report)
	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.SimpleReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        LINKAUDIT SEO REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Site:           %s\n", report.BaseURL)
	fmt.Fprintf(sb, "Audit Date:     %s\n", report.DateAudited.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Pages Audited:  %s\n", w.count(report.PagesAudited))
	if report.PagesFailed > 0 {
		fmt.Fprintf(sb, "Pages Failed:   %s\n", w.count(report.PagesFailed))
	}
	fmt.Fprintf(sb, "Average Score:  %.1f/100 (%s)\n", report.AverageScore, gradeOf(report.AverageScore))
	fmt.Fprintf(sb, "Status:         %s\n\n", statusText(report))
}

func (w *SimpleWriter) writeCrawl(sb *strings.Builder, report *model.AuditReport) {
	section(sb, "CRAWLABILITY")

	if r := report.Robots; r != nil {
		if r.Exists {
			fmt.Fprintf(sb, "  robots.txt:   present (%d disallow rules, %d sitemap declarations)\n", r.DisallowCount, len(r.Sitemaps))
		} else {
			sb.WriteString("  robots.txt:   missing\n")
		}
	}
	if s := report.Sitemap; s != nil {
		if s.Found {
			fmt.Fprintf(sb, "  sitemap:      %s (%s URLs)\n", s.Location, w.count(s.URLCount))
		} else {
			sb.WriteString("  sitemap:      not found\n")
		}
	}
	fmt.Fprintf(sb, "  discovered:   %s URLs\n\n", w.count(len(report.DiscoveredURLs)))
}

func (w *SimpleWriter) writeLinks(sb *strings.Builder, report *model.AuditReport) {
	section(sb, "LINK SUMMARY")

	s := report.Stats
	fmt.Fprintf(sb, "  Total links:      %s\n", w.count(s.Total))
	fmt.Fprintf(sb, "  Internal:         %s (%s)\n", w.count(s.Internal), w.percent(s.Internal, s.Total))
	fmt.Fprintf(sb, "  External:         %s (%s)\n", w.count(s.External), w.percent(s.External, s.Total))
	fmt.Fprintf(sb, "  Same page:        %s\n", w.count(s.SamePage))
	fmt.Fprintf(sb, "  Nofollow:         %s\n", w.count(s.Nofollow))
	fmt.Fprintf(sb, "  Sponsored / UGC:  %s / %s\n", w.count(s.Sponsored), w.count(s.UGC))
	fmt.Fprintf(sb, "  New tab:          %s\n", w.count(s.BlankTarget))
	fmt.Fprintf(sb, "  No anchor text:   %s\n", w.count(s.AnchorTextMissing))
	fmt.Fprintf(sb, "  Unique domains:   %s\n", w.count(s.UniqueDomains))
	if s.StatusChecked {
		fmt.Fprintf(sb, "  Checked:          %s (broken %s, redirects %s)\n", w.count(s.Checked), w.count(s.Broken), w.count(s.Redirects))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeDomains(sb *strings.Builder, report *model.AuditReport) {
	if len(report.Domains) == 0 && !w.showEmpty {
		return
	}
	section(sb, "TOP DOMAINS")

	for i, d := range report.Domains {
		if i == maxDomainRows {
			fmt.Fprintf(sb, "  ... and %d more\n", len(report.Domains)-maxDomainRows)
			break
		}
		domain := d.Domain
		if domain == "" {
			domain = "(no host)"
		}
		fmt.Fprintf(sb, "  %-40s %6s  (internal %d, external %d, nofollow %d)\n",
			truncateString(domain, 40), w.count(d.Count), d.InternalCount, d.ExternalCount, d.NofollowCount)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeScores(sb *strings.Builder, report *model.AuditReport) {
	if len(report.Scores) == 0 && !w.showEmpty {
		return
	}
	section(sb, "PAGE SCORES")

	for i, s := range report.Scores {
		if i == maxScoreRows {
			fmt.Fprintf(sb, "  ... and %d more pages\n", len(report.Scores)-maxScoreRows)
			break
		}
		fmt.Fprintf(sb, "  %3d %s  %-50s %8s\n", s.Score.Total, s.Grade, truncateString(s.URL, 50), size(s.Signals.PageSize))
		if w.verbose {
			fmt.Fprintf(sb, "        basic %d/30, social %d/25, technical %d/25, performance %d/20\n",
				s.Score.BasicSEO, s.Score.Social, s.Score.Technical, s.Score.Performance)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeHeaders(sb *strings.Builder, report *model.AuditReport) {
	if report.SecurityHeaders == nil || len(report.SecurityHeaders.Pages) == 0 {
		return
	}
	section(sb, "SECURITY HEADERS")

	for _, h := range report.SecurityHeaders.Headers {
		fmt.Fprintf(sb, "  %-28s %3d%% implemented (%d/%d)\n", h.Header, h.Percentage(), h.Present, h.Present+h.Missing)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.SimpleReport) {
	section(sb, "SEVERITY SUMMARY")

	fmt.Fprintf(sb, "  CRITICAL: %d\n", report.CriticalCount)
	fmt.Fprintf(sb, "  HIGH:     %d\n", report.HighCount)
	fmt.Fprintf(sb, "  MEDIUM:   %d\n", report.MediumCount)
	fmt.Fprintf(sb, "  LOW:      %d\n", report.LowCount)
	fmt.Fprintf(sb, "  INFO:     %d\n\n", report.InfoCount)
	fmt.Fprintf(sb, "  TOTAL:    %d findings\n\n", report.TotalFindings())
}

func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.SimpleReport) {
	if !report.HasFindings() && !w.showEmpty {
		return
	}
	section(sb, "FINDINGS")

	for _, severity := range severities {
		findings := report.GetFindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "[%s] %s\n", severityIndicator(severity), severity)
		if len(findings) == 0 {
			sb.WriteString("  No findings\n\n")
			continue
		}
		for _, f := range findings {
			fmt.Fprintf(sb, "  * %s\n", f.Title)
			if f.Value != "" {
				fmt.Fprintf(sb, "    Value: %s\n", f.Value)
			}
			if f.Location != "" {
				fmt.Fprintf(sb, "    Location: %s\n", f.Location)
			}
			if w.verbose && f.Description != "" {
				fmt.Fprintf(sb, "    Description: %s\n", f.Description)
			}
			if w.verbose && f.Recommendation != "" {
				fmt.Fprintf(sb, "    Fix: %s\n", f.Recommendation)
			}
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writePlan(sb *strings.Builder, plan *model.ImplementationPlan) {
	if plan.Len() == 0 {
		return
	}
	section(sb, "IMPLEMENTATION PLAN")

	groups := []struct {
		label string
		items []model.PlanItem
	}{
		{"HIGH PRIORITY", plan.High},
		{"MEDIUM PRIORITY", plan.Medium},
		{"LOW PRIORITY", plan.Low},
	}
	for _, g := range groups {
		if len(g.items) == 0 {
			continue
		}
		fmt.Fprintf(sb, "%s\n", g.label)
		for i, item := range g.items {
			fmt.Fprintf(sb, "  %d. %s\n", i+1, item.Task)
			fmt.Fprintf(sb, "     Action: %s\n", item.Action)
			fmt.Fprintf(sb, "     Impact: %s\n", item.Impact)
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by linkaudit\n")
	sb.WriteString("https://github.com/nao1215/linkaudit\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// severityIndicator returns the marker printed before a severity heading.
func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}
