package audit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nao1215/linkaudit/internal/model"
)

// DuplicateContentAnalyzer finds successful pages with identical bodies.
type DuplicateContentAnalyzer struct{}

// NewDuplicateContentAnalyzer creates a new DuplicateContentAnalyzer.
func NewDuplicateContentAnalyzer() *DuplicateContentAnalyzer {
	return &DuplicateContentAnalyzer{}
}

// Name returns the analyzer name.
func (a *DuplicateContentAnalyzer) Name() string {
	return "duplicate-content"
}

// Category returns the analyzer category.
func (a *DuplicateContentAnalyzer) Category() string {
	return CategoryContent
}

// Analyze groups pages by body fingerprint and reports every group with
// more than one URL. Redirects to the same final URL are not duplicates.
func (a *DuplicateContentAnalyzer) Analyze(_ context.Context, data *AnalysisData) ([]model.Finding, error) {
	groups := make(map[string][]string)
	var order []string
	finals := make(map[string]bool)

	for _, page := range data.SuccessfulHTMLPages() {
		if page.Fingerprint == "" {
			continue
		}
		final := page.URL
		if page.FinalURL != "" {
			final = page.FinalURL
		}
		if finals[final] {
			continue
		}
		finals[final] = true

		if _, ok := groups[page.Fingerprint]; !ok {
			order = append(order, page.Fingerprint)
		}
		groups[page.Fingerprint] = append(groups[page.Fingerprint], page.URL)
	}

	var findings []model.Finding
	for _, fp := range order {
		urls := groups[fp]
		if len(urls) < 2 {
			continue
		}
		findings = append(findings, model.NewFinding(
			model.FindingDuplicateContent,
			fmt.Sprintf("%d pages serve identical content", len(urls)),
			"Fingerprint "+shortFingerprint(fp),
			shortFingerprint(fp),
			strings.Join(urls, ", "),
		))
	}
	return findings, nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

// ScoreAnalyzer reports pages scoring below a threshold and pages with
// unparsable structured data.
type ScoreAnalyzer struct {
	threshold int
}

// NewScoreAnalyzer creates a ScoreAnalyzer flagging totals below threshold.
func NewScoreAnalyzer(threshold int) *ScoreAnalyzer {
	return &ScoreAnalyzer{threshold: threshold}
}

// Name returns the analyzer name.
func (a *ScoreAnalyzer) Name() string {
	return "page-score"
}

// Category returns the analyzer category.
func (a *ScoreAnalyzer) Category() string {
	return CategoryContent
}

// Analyze returns the low score and invalid structured data findings.
func (a *ScoreAnalyzer) Analyze(_ context.Context, data *AnalysisData) ([]model.Finding, error) {
	var findings []model.Finding
	for _, s := range data.Scores {
		if s.Score.Total < a.threshold {
			findings = append(findings, model.NewFinding(
				model.FindingLowPageScore,
				fmt.Sprintf("Page scores %d/100 (grade %s)", s.Score.Total, s.Grade),
				fmt.Sprintf("Basic SEO %d, social %d, technical %d, performance %d.",
					s.Score.BasicSEO, s.Score.Social, s.Score.Technical, s.Score.Performance),
				strconv.Itoa(s.Score.Total),
				s.URL,
			))
		}
		if s.Signals.InvalidStructuredData > 0 {
			findings = append(findings, model.NewFinding(
				model.FindingInvalidStructuredData,
				"Invalid JSON-LD block",
				fmt.Sprintf("%d structured data blocks could not be parsed.", s.Signals.InvalidStructuredData),
				strconv.Itoa(s.Signals.InvalidStructuredData),
				s.URL,
			))
		}
	}
	return findings, nil
}
