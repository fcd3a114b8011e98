package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/nao1215/linkaudit/internal/model"
)

// Directions of a comparison.
const (
	DirectionImproved  = "improved"
	DirectionWorsened  = "worsened"
	DirectionUnchanged = "unchanged"
)

// RunSummary holds the numbers of one audit run used in a comparison.
type RunSummary struct {
	DateAudited   time.Time `json:"date_audited"`
	PagesAudited  int       `json:"pages_audited"`
	TotalLinks    int       `json:"total_links"`
	BrokenLinks   int       `json:"broken_links"`
	AverageScore  float64   `json:"average_score"`
	TotalFindings int       `json:"total_findings"`
	CriticalCount int       `json:"critical_count"`
	HighCount     int       `json:"high_count"`
	MediumCount   int       `json:"medium_count"`
	LowCount      int       `json:"low_count"`
	InfoCount     int       `json:"info_count"`
}

// Comparison is the difference between two runs of the same site.
type Comparison struct {
	BaseURL  string     `json:"base_url"`
	Previous RunSummary `json:"previous"`
	Current  RunSummary `json:"current"`

	NewFindings      []model.Finding `json:"new_findings,omitempty"`
	ResolvedFindings []model.Finding `json:"resolved_findings,omitempty"`
	UnchangedCount   int             `json:"unchanged_count"`

	ScoreDelta       float64 `json:"score_delta"`
	BrokenLinksDelta int     `json:"broken_links_delta"`

	// Direction is improved, worsened or unchanged.
	Direction string `json:"direction"`
}

func summarizeRun(report *model.AuditReport) RunSummary {
	s := model.NewSimpleReport(report)
	return RunSummary{
		DateAudited:   report.DateAudited,
		PagesAudited:  s.PagesAudited,
		TotalLinks:    s.TotalLinks,
		BrokenLinks:   s.BrokenLinks,
		AverageScore:  s.AverageScore,
		TotalFindings: s.TotalFindings(),
		CriticalCount: s.CriticalCount,
		HighCount:     s.HighCount,
		MediumCount:   s.MediumCount,
		LowCount:      s.LowCount,
		InfoCount:     s.InfoCount,
	}
}

// weight ranks a run; lower is better.
func (r RunSummary) weight() int {
	return r.CriticalCount*100 + r.HighCount*50 + r.MediumCount*10 + r.LowCount*5 + r.InfoCount
}

// Compare diffs two reports of the same site. Findings are matched by type,
// value and location.
func Compare(previous, current *model.AuditReport) *Comparison {
	c := &Comparison{
		BaseURL:  current.BaseURL,
		Previous: summarizeRun(previous),
		Current:  summarizeRun(current),
	}

	before := make(map[string]bool)
	for _, f := range previous.Findings() {
		before[findingKey(f)] = true
	}
	after := make(map[string]bool)
	for _, f := range current.Findings() {
		key := findingKey(f)
		after[key] = true
		if before[key] {
			c.UnchangedCount++
		} else {
			c.NewFindings = append(c.NewFindings, f)
		}
	}
	for _, f := range previous.Findings() {
		if !after[findingKey(f)] {
			c.ResolvedFindings = append(c.ResolvedFindings, f)
		}
	}

	c.ScoreDelta = c.Current.AverageScore - c.Previous.AverageScore
	c.BrokenLinksDelta = c.Current.BrokenLinks - c.Previous.BrokenLinks

	switch prev, cur := c.Previous.weight(), c.Current.weight(); {
	case cur < prev:
		c.Direction = DirectionImproved
	case cur > prev:
		c.Direction = DirectionWorsened
	case c.ScoreDelta > 0:
		c.Direction = DirectionImproved
	case c.ScoreDelta < 0:
		c.Direction = DirectionWorsened
	default:
		c.Direction = DirectionUnchanged
	}
	return c
}

func findingKey(f model.Finding) string {
	return f.Type + "|" + f.Value + "|" + f.Location
}

// WriteComparisonText writes c as plain text.
func WriteComparisonText(output io.Writer, c *Comparison) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Audit Comparison: %s\n", c.BaseURL)
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Status: %s\n\n", directionText(c.Direction))
	fmt.Fprintf(&sb, "Previous audit: %s\n", c.Previous.DateAudited.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Current audit:  %s\n\n", c.Current.DateAudited.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&sb, "  %-14s  %-10s  %-10s  %s\n", "Metric", "Previous", "Current", "Change")
	sb.WriteString("  " + strings.Repeat("-", 50) + "\n")
	for _, row := range comparisonRows(c) {
		fmt.Fprintf(&sb, "  %-14s  %-10s  %-10s  %s\n", row[0], row[1], row[2], row[3])
	}

	if len(c.NewFindings) > 0 {
		fmt.Fprintf(&sb, "\nNew Findings (%d):\n", len(c.NewFindings))
		for _, f := range c.NewFindings {
			fmt.Fprintf(&sb, "  [+] [%s] %s\n", f.SeverityText, findingLine(f))
		}
	}
	if len(c.ResolvedFindings) > 0 {
		fmt.Fprintf(&sb, "\nResolved Findings (%d):\n", len(c.ResolvedFindings))
		for _, f := range c.ResolvedFindings {
			fmt.Fprintf(&sb, "  [-] [%s] %s\n", f.SeverityText, findingLine(f))
		}
	}
	if c.UnchangedCount > 0 {
		fmt.Fprintf(&sb, "\nUnchanged: %d findings\n", c.UnchangedCount)
	}

	_, err := io.WriteString(output, sb.String())
	return err
}

// WriteComparisonMarkdown writes c as Markdown.
func WriteComparisonMarkdown(output io.Writer, c *Comparison) error {
	md := markdown.NewMarkdown(output)
	md.H1("Audit Comparison: " + c.BaseURL)
	md.PlainText("")
	md.PlainTextf("**Status:** %s", directionText(c.Direction))
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: append([][]string{{
			"Date",
			c.Previous.DateAudited.Format("2006-01-02 15:04"),
			c.Current.DateAudited.Format("2006-01-02 15:04"),
			"-",
		}}, comparisonRows(c)...),
	})
	md.PlainText("")

	if len(c.NewFindings) > 0 {
		md.H2(fmt.Sprintf("New Findings (%d)", len(c.NewFindings)))
		md.PlainText("")
		items := make([]string, 0, len(c.NewFindings))
		for _, f := range c.NewFindings {
			items = append(items, fmt.Sprintf("**[%s]** %s", f.SeverityText, findingLine(f)))
		}
		md.BulletList(items...)
		md.PlainText("")
	}
	if len(c.ResolvedFindings) > 0 {
		md.H2(fmt.Sprintf("Resolved Findings (%d)", len(c.ResolvedFindings)))
		md.PlainText("")
		items := make([]string, 0, len(c.ResolvedFindings))
		for _, f := range c.ResolvedFindings {
			items = append(items, fmt.Sprintf("~~**[%s]** %s~~", f.SeverityText, findingLine(f)))
		}
		md.BulletList(items...)
		md.PlainText("")
	}
	if c.UnchangedCount > 0 {
		md.HorizontalRule()
		md.PlainText("")
		md.PlainTextf("*%d findings unchanged*", c.UnchangedCount)
	}
	return md.Build()
}

// WriteComparisonJSON writes c as indented JSON.
func WriteComparisonJSON(output io.Writer, c *Comparison) error {
	w := NewJSONWriter(output, WithPrettyPrint())
	_, err := w.writeJSON(c)
	return err
}

func comparisonRows(c *Comparison) [][]string {
	p, n := c.Previous, c.Current
	rows := [][]string{
		{"Average score", fmt.Sprintf("%.1f", p.AverageScore), fmt.Sprintf("%.1f", n.AverageScore), formatScoreDelta(c.ScoreDelta)},
		{"Pages", strconv.Itoa(p.PagesAudited), strconv.Itoa(n.PagesAudited), formatDelta(n.PagesAudited - p.PagesAudited)},
		{"Links", strconv.Itoa(p.TotalLinks), strconv.Itoa(n.TotalLinks), formatDelta(n.TotalLinks - p.TotalLinks)},
		{"Broken links", strconv.Itoa(p.BrokenLinks), strconv.Itoa(n.BrokenLinks), formatDelta(c.BrokenLinksDelta)},
	}
	counts := []struct {
		label     string
		prev, cur int
	}{
		{"Critical", p.CriticalCount, n.CriticalCount},
		{"High", p.HighCount, n.HighCount},
		{"Medium", p.MediumCount, n.MediumCount},
		{"Low", p.LowCount, n.LowCount},
		{"Info", p.InfoCount, n.InfoCount},
		{"Findings", p.TotalFindings, n.TotalFindings},
	}
	for _, row := range counts {
		rows = append(rows, []string{row.label, strconv.Itoa(row.prev), strconv.Itoa(row.cur), formatDelta(row.cur - row.prev)})
	}
	return rows
}

func findingLine(f model.Finding) string {
	line := f.Title
	if f.Value != "" {
		line += ": " + f.Value
	}
	if f.Location != "" {
		line += " (" + f.Location + ")"
	}
	return line
}

func directionText(direction string) string {
	switch direction {
	case DirectionImproved:
		return "IMPROVED"
	case DirectionWorsened:
		return "WORSENED"
	default:
		return "UNCHANGED"
	}
}

func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}

func formatScoreDelta(delta float64) string {
	if delta > 0 {
		return fmt.Sprintf("+%.1f", delta)
	}
	return fmt.Sprintf("%.1f", delta)
}
