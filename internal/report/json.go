package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/linkaudit/internal/model"
)

// JSONWriter writes reports as JSON for other tools.
type JSONWriter struct {
	baseWriter

	// indent is the per-level indentation, empty for compact output.
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values with indent.
func WithIndent(indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("  ")
}

// NewJSONWriter creates a JSONWriter writing to output.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the full report.
func (w *JSONWriter) Write(report *model.AuditReport) (int, error) {
	report.SimpleReport = summarize(report)
	return w.writeJSON(report)
}

// WriteSimple outputs the summary only.
func (w *JSONWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	return w.writeJSON(report)
}

// writeJSON encodes v followed by a newline.
//
// Design decision: HTML escaping is turned off. The output is read by
// tools and people, never embedded in a page, and escaped URLs such as
// "?a=1\u0026b=2" no longer match the links they describe.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent != "" {
		enc.SetIndent("", w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, fmt.Errorf("encode report: %w", err)
	}
	return w.output.Write(buf.Bytes())
}

// JSONReport wraps a report with the version of the tool that produced it.
type JSONReport struct {
	Version string              `json:"version"`
	Report  *model.AuditReport  `json:"report"`
	Summary *model.SimpleReport `json:"summary,omitempty"`
}

// NewJSONReport wraps report. The summary is rebuilt from the report.
func NewJSONReport(report *model.AuditReport, version string) *JSONReport {
	report.SimpleReport = summarize(report)
	return &JSONReport{
		Version: version,
		Report:  report,
		Summary: report.SimpleReport,
	}
}

// FullJSONWriter writes reports wrapped in a JSONReport.
type FullJSONWriter struct {
	*JSONWriter

	version string
}

// NewFullJSONWriter creates a FullJSONWriter stamping version into each report.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the wrapped report.
func (w *FullJSONWriter) Write(report *model.AuditReport) (int, error) {
	return w.writeJSON(NewJSONReport(report, w.version))
}
