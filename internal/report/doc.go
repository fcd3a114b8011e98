// Package report writes audit reports.
//
// Three formats are supported:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter and FullJSONWriter: the complete report as JSON
//   - MarkdownWriter: GitHub-flavored markdown with mermaid charts
//
// Writers implement the Writer interface so the CLI can pick one by flag.
package report
