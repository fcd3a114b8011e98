package audit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nao1215/linkaudit/internal/model"
)

// SecurityHeaderAnalyzer samples the first successful pages for the headers
// in model.SecurityHeaders.
type SecurityHeaderAnalyzer struct {
	sampleSize int
}

// NewSecurityHeaderAnalyzer creates a SecurityHeaderAnalyzer inspecting at
// most sampleSize pages.
func NewSecurityHeaderAnalyzer(sampleSize int) *SecurityHeaderAnalyzer {
	if sampleSize <= 0 {
		sampleSize = DefaultOptions().HeaderSampleSize
	}
	return &SecurityHeaderAnalyzer{sampleSize: sampleSize}
}

// Name returns the analyzer name.
func (a *SecurityHeaderAnalyzer) Name() string {
	return "security-headers"
}

// Category returns the analyzer category.
func (a *SecurityHeaderAnalyzer) Category() string {
	return CategorySecurity
}

// Analyze builds the header table and reports every header missing on more
// sampled pages than it is present on.
func (a *SecurityHeaderAnalyzer) Analyze(_ context.Context, data *AnalysisData) ([]model.Finding, error) {
	result := HeaderAudit(data.Pages, a.sampleSize)
	if data.Report != nil {
		data.Report.SecurityHeaders = result
	}

	var findings []model.Finding
	for _, h := range result.Headers {
		if h.Missing <= h.Present {
			continue
		}
		findings = append(findings, model.NewFinding(
			model.FindingSecurityHeader,
			fmt.Sprintf("Missing security header: %s", h.Header),
			fmt.Sprintf("%s is sent by %d%% of sampled pages (%d/%d).", h.Header, h.Percentage(), h.Present, h.Present+h.Missing),
			h.Header,
			strconv.Itoa(h.Missing)+" of sampled pages",
		))
	}
	return findings, nil
}

// HeaderAudit checks the first sampleSize successful pages for each
// security header.
func HeaderAudit(pages []*model.Page, sampleSize int) *model.SecurityHeaderAudit {
	result := &model.SecurityHeaderAudit{
		Headers: make([]model.HeaderStatus, len(model.SecurityHeaders)),
	}
	for i, name := range model.SecurityHeaders {
		result.Headers[i].Header = name
	}

	for _, page := range pages {
		if len(result.Pages) >= sampleSize {
			break
		}
		if !page.OK() {
			continue
		}
		ph := model.PageHeaders{URL: page.URL, Present: make(map[string]bool, len(model.SecurityHeaders))}
		for i, name := range model.SecurityHeaders {
			present := page.HasHeader(name)
			ph.Present[name] = present
			if present {
				result.Headers[i].Present++
			} else {
				result.Headers[i].Missing++
			}
		}
		result.Pages = append(result.Pages, ph)
	}
	return result
}
