package report

import (
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/linkaudit/internal/model"
	"github.com/nao1215/linkaudit/internal/score"
)

// Writer writes a report to its destination.
type Writer interface {
	// Write outputs the full report and returns the bytes written.
	Write(report *model.AuditReport) (int, error)

	// WriteSimple outputs the summary only.
	WriteSimple(report *model.SimpleReport) (int, error)
}

// Rows shown in the per-page and per-domain tables.
const (
	maxScoreRows  = 25
	maxDomainRows = 10
)

// baseWriter holds what every writer shares.
type baseWriter struct {
	output  io.Writer
	printer *message.Printer
	title   cases.Caser
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{
		output:  output,
		printer: message.NewPrinter(language.English),
		title:   cases.Title(language.English),
	}
}

// count formats n with thousands separators.
func (b baseWriter) count(n int) string {
	return b.printer.Sprintf("%d", n)
}

// percent formats part/total as a rounded percentage.
func (b baseWriter) percent(part, total int) string {
	if total == 0 {
		return "0%"
	}
	return b.printer.Sprintf("%.0f%%", float64(part)*100/float64(total))
}

// severityLabel returns "Critical", "High" and so on.
func (b baseWriter) severityLabel(s model.Severity) string {
	return b.title.String(strings.ToLower(s.String()))
}

// size formats a byte count for humans.
func size(n int) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// gradeOf returns the letter grade of an average score.
func gradeOf(avg float64) string {
	return score.Grade(int(avg + 0.5))
}

// summarize returns an up to date summary of report.
func summarize(report *model.AuditReport) *model.SimpleReport {
	return model.NewSimpleReport(report)
}

// statusText describes how the audit ended.
func statusText(report *model.SimpleReport) string {
	switch {
	case report.TimedOut:
		return "TIMED OUT (partial results)"
	case report.Error != "":
		return "ERROR - " + report.Error
	default:
		return "Complete"
	}
}

// severities lists the severities from most to least urgent.
var severities = []model.Severity{
	model.SeverityCritical,
	model.SeverityHigh,
	model.SeverityMedium,
	model.SeverityLow,
	model.SeverityInfo,
}

// truncateString shortens s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
