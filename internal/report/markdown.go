package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/linkaudit/internal/model"
)

// MarkdownWriter writes reports as GitHub flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter writing to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the full report.
func (w *MarkdownWriter) Write(report *model.AuditReport) (int, error) {
	simple := summarize(report)
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, simple)
	w.writeCrawl(md, report)
	w.writeLinks(md, report)
	w.writeDomains(md, report)
	w.writeScores(md, report)
	w.writeHeaders(md, report)
	w.writeSummary(md, simple)
	w.writeFindings(md, simple)
	w.writePlan(md, report.Plan)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSimple outputs the summary and findings only.
func (w *MarkdownWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeFindings(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.SimpleReport) {
	md.H1("Linkaudit Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + report.BaseURL + "`"},
			{"Audit Date", report.DateAudited.Format("2006-01-02 15:04:05 MST")},
			{"Pages Audited", w.count(report.PagesAudited)},
			{"Pages Failed", w.count(report.PagesFailed)},
			{"Average Score", fmt.Sprintf("%.1f (%s)", report.AverageScore, gradeOf(report.AverageScore))},
			{"Status", markdownStatus(report)},
		},
	})
	md.PlainText("")
}

func markdownStatus(report *model.SimpleReport) string {
	switch {
	case report.TimedOut:
		return "⚠️ " + statusText(report)
	case report.Error != "":
		return "❌ " + statusText(report)
	default:
		return "✅ " + statusText(report)
	}
}

func (w *MarkdownWriter) writeCrawl(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Crawlability")
	md.PlainText("")

	rows := [][]string{}
	if r := report.Robots; r != nil {
		robots := "missing"
		if r.Exists {
			robots = fmt.Sprintf("present, %d disallow rules", r.DisallowCount)
		}
		rows = append(rows, []string{"robots.txt", robots})
	}
	if s := report.Sitemap; s != nil {
		sitemap := "not found"
		if s.Found {
			sitemap = fmt.Sprintf("`%s` (%s URLs)", s.Location, w.count(s.URLCount))
		}
		rows = append(rows, []string{"Sitemap", sitemap})
	}
	rows = append(rows, []string{"Discovered URLs", w.count(len(report.DiscoveredURLs))})

	md.Table(markdown.TableSet{Header: []string{"Check", "Result"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeLinks(md *markdown.Markdown, report *model.AuditReport) {
	s := report.Stats

	md.H2("Links")
	md.PlainText("")
	rows := [][]string{
		{"Total", w.count(s.Total), "100%"},
		{"Internal", w.count(s.Internal), w.percent(s.Internal, s.Total)},
		{"External", w.count(s.External), w.percent(s.External, s.Total)},
		{"Same page", w.count(s.SamePage), w.percent(s.SamePage, s.Total)},
		{"Nofollow", w.count(s.Nofollow), w.percent(s.Nofollow, s.Total)},
		{"Sponsored", w.count(s.Sponsored), w.percent(s.Sponsored, s.Total)},
		{"UGC", w.count(s.UGC), w.percent(s.UGC, s.Total)},
		{"Opens new tab", w.count(s.BlankTarget), w.percent(s.BlankTarget, s.Total)},
		{"No anchor text", w.count(s.AnchorTextMissing), w.percent(s.AnchorTextMissing, s.Total)},
	}
	if s.StatusChecked {
		rows = append(rows,
			[]string{"Checked", w.count(s.Checked), w.percent(s.Checked, s.Total)},
			[]string{"Broken", w.count(s.Broken), w.percent(s.Broken, s.Checked)},
			[]string{"Redirects", w.count(s.Redirects), w.percent(s.Redirects, s.Checked)},
		)
	}
	md.Table(markdown.TableSet{Header: []string{"Metric", "Count", "Share"}, Rows: rows})
	md.PlainText("")

	if s.Total == 0 {
		return
	}
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Link Types"),
		piechart.WithShowData(true),
	)
	for _, part := range []struct {
		label string
		n     int
	}{
		{"Internal", s.Internal},
		{"External", s.External},
		{"Same page", s.SamePage},
	} {
		if part.n > 0 {
			chart.LabelAndIntValue(part.label, uint64(part.n))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeDomains(md *markdown.Markdown, report *model.AuditReport) {
	if len(report.Domains) == 0 {
		return
	}
	md.H2("Top Domains")
	md.PlainText("")

	rows := make([][]string, 0, min(len(report.Domains), maxDomainRows))
	for _, d := range report.Domains[:min(len(report.Domains), maxDomainRows)] {
		domain := d.Domain
		if domain == "" {
			domain = "(no host)"
		}
		rows = append(rows, []string{
			domain,
			w.count(d.Count),
			w.count(d.InternalCount),
			w.count(d.ExternalCount),
			w.count(d.NofollowCount),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Links", "Internal", "External", "Nofollow"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeScores(md *markdown.Markdown, report *model.AuditReport) {
	if len(report.Scores) == 0 {
		return
	}
	md.H2("Page Scores")
	md.PlainText("")

	rows := make([][]string, 0, min(len(report.Scores), maxScoreRows))
	for _, s := range report.Scores[:min(len(report.Scores), maxScoreRows)] {
		rows = append(rows, []string{
			truncateString(s.URL, 60),
			strconv.Itoa(s.Score.Total),
			s.Grade,
			fmt.Sprintf("%d / %d / %d / %d", s.Score.BasicSEO, s.Score.Social, s.Score.Technical, s.Score.Performance),
			size(s.Signals.PageSize),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Page", "Score", "Grade", "Basic / Social / Technical / Performance", "Size"},
		Rows:   rows,
	})
	if len(report.Scores) > maxScoreRows {
		md.PlainTextf("*%d more pages not shown.*", len(report.Scores)-maxScoreRows)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeHeaders(md *markdown.Markdown, report *model.AuditReport) {
	if report.SecurityHeaders == nil || len(report.SecurityHeaders.Pages) == 0 {
		return
	}
	md.H2("Security Headers")
	md.PlainText("")

	rows := make([][]string, 0, len(report.SecurityHeaders.Headers))
	for _, h := range report.SecurityHeaders.Headers {
		rows = append(rows, []string{
			"`" + h.Header + "`",
			strconv.Itoa(h.Present) + "/" + strconv.Itoa(h.Present+h.Missing),
			strconv.Itoa(h.Percentage()) + "%",
		})
	}
	md.Table(markdown.TableSet{Header: []string{"Header", "Pages", "Implemented"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.SimpleReport) {
	md.H2("Severity Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(report.CriticalCount)},
			{"🟠 High", strconv.Itoa(report.HighCount)},
			{"🟡 Medium", strconv.Itoa(report.MediumCount)},
			{"🔵 Low", strconv.Itoa(report.LowCount)},
			{"⚪ Info", strconv.Itoa(report.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(report.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	if report.HasFindings() {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Findings by Severity"),
			piechart.WithShowData(true),
		)
		for _, sev := range severities {
			if n := len(report.GetFindingsBySeverity(sev)); n > 0 {
				chart.LabelAndIntValue(w.severityLabel(sev), uint64(n))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case report.CriticalCount > 0:
		md.Cautionf("%d critical finding(s) keep pages out of search results.", report.CriticalCount)
	case report.HighCount > 0:
		md.Warningf("%d high severity finding(s) should be fixed first.", report.HighCount)
	case report.MediumCount > 0:
		md.Importantf("%d medium severity finding(s) limit how the site ranks.", report.MediumCount)
	case report.TotalFindings() > 0:
		md.Note("Only low severity and informational findings.")
	default:
		md.Tip("No findings. The audited pages follow every checked rule.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.SimpleReport) {
	md.H2("Findings")
	md.PlainText("")
	if !report.HasFindings() {
		md.PlainText("No findings.")
		md.PlainText("")
		return
	}

	for _, sev := range severities {
		findings := report.GetFindingsBySeverity(sev)
		if len(findings) == 0 {
			continue
		}
		md.H3(w.severityLabel(sev))
		md.PlainText("")

		rows := make([][]string, len(findings))
		for i, f := range findings {
			rows[i] = []string{
				f.Title,
				orDash(truncateString(f.Value, 50)),
				orDash(truncateString(f.Location, 50)),
				orDash(truncateString(f.Recommendation, 60)),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Title", "Value", "Location", "Recommendation"},
			Rows:   rows,
		})
		md.PlainText("")
		for _, f := range findings {
			if f.Description != "" {
				md.Details(f.Title, f.Description)
			}
		}
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writePlan(md *markdown.Markdown, plan *model.ImplementationPlan) {
	if plan.Len() == 0 {
		return
	}
	md.H2("Implementation Plan")
	md.PlainText("")

	groups := []struct {
		label string
		items []model.PlanItem
	}{
		{"High Priority", plan.High},
		{"Medium Priority", plan.Medium},
		{"Low Priority", plan.Low},
	}
	for _, g := range groups {
		if len(g.items) == 0 {
			continue
		}
		md.H3(g.label)
		md.PlainText("")
		rows := make([][]string, len(g.items))
		for i, item := range g.items {
			rows[i] = []string{item.Task, item.Action, item.Impact}
		}
		md.Table(markdown.TableSet{Header: []string{"Task", "Action", "Impact"}, Rows: rows})
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [linkaudit](https://github.com/nao1215/linkaudit)*")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
