package audit

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/linkaudit/internal/model"
)

// SocialTagAnalyzer counts X/Twitter Card and Open Graph meta tags per page.
type SocialTagAnalyzer struct{}

// NewSocialTagAnalyzer creates a new SocialTagAnalyzer.
func NewSocialTagAnalyzer() *SocialTagAnalyzer {
	return &SocialTagAnalyzer{}
}

// Name returns the analyzer name.
func (a *SocialTagAnalyzer) Name() string {
	return "social-tags"
}

// Category returns the analyzer category.
func (a *SocialTagAnalyzer) Category() string {
	return CategorySocial
}

// Analyze reports each page without Twitter Card or Open Graph tags.
func (a *SocialTagAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	result := &model.SocialTagAudit{}
	var findings []model.Finding

	for _, page := range data.SuccessfulHTMLPages() {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Raw))
		if err != nil {
			slog.Debug("social tag parse failed", "url", page.URL, "error", err)
			continue
		}

		twitter, og := CountSocialTags(doc)
		if twitter > 0 {
			result.WithTwitterCards = append(result.WithTwitterCards, model.SocialTagCount{URL: page.URL, Count: twitter})
		} else {
			result.WithoutTwitterCards = append(result.WithoutTwitterCards, page.URL)
			findings = append(findings, model.NewFinding(
				model.FindingTwitterCardMissing,
				"Page has no X/Twitter Card tags",
				`No meta[name^="twitter:"] tags were found.`,
				"",
				page.URL,
			))
		}
		if og > 0 {
			result.WithOpenGraph = append(result.WithOpenGraph, model.SocialTagCount{URL: page.URL, Count: og})
		} else {
			result.WithoutOpenGraph = append(result.WithoutOpenGraph, page.URL)
			findings = append(findings, model.NewFinding(
				model.FindingOpenGraphMissing,
				"Page has no Open Graph tags",
				`No meta[property^="og:"] tags were found.`,
				"",
				page.URL,
			))
		}
	}

	if data.Report != nil {
		data.Report.SocialTags = result
	}
	return findings, nil
}

// CountSocialTags returns the number of twitter: and og: meta tags of doc.
func CountSocialTags(doc *goquery.Document) (twitter, openGraph int) {
	return doc.Find(`meta[name^="twitter:"]`).Length(), doc.Find(`meta[property^="og:"]`).Length()
}
