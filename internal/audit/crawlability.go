package audit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nao1215/linkaudit/internal/model"
)

// RobotsAnalyzer checks robots.txt.
type RobotsAnalyzer struct{}

// NewRobotsAnalyzer creates a new RobotsAnalyzer.
func NewRobotsAnalyzer() *RobotsAnalyzer {
	return &RobotsAnalyzer{}
}

// Name returns the analyzer name.
func (a *RobotsAnalyzer) Name() string {
	return "robots"
}

// Category returns the analyzer category.
func (a *RobotsAnalyzer) Category() string {
	return CategoryCrawlability
}

// Analyze reports a missing robots.txt, a blanket Disallow and a missing
// sitemap declaration.
func (a *RobotsAnalyzer) Analyze(_ context.Context, data *AnalysisData) ([]model.Finding, error) {
	robots := data.Robots
	if robots == nil {
		return nil, nil
	}
	location := data.BaseURL + "/robots.txt"

	if !robots.Exists {
		value := robots.Error
		if robots.StatusCode != 0 {
			value = "HTTP " + strconv.Itoa(robots.StatusCode)
		}
		return []model.Finding{model.NewFinding(
			model.FindingRobotsMissing,
			"robots.txt not found",
			"The site does not serve a robots.txt file.",
			value,
			location,
		)}, nil
	}

	var findings []model.Finding
	if robots.DisallowAll {
		findings = append(findings, model.NewFinding(
			model.FindingRobotsDisallowAll,
			"robots.txt disallows all crawling",
			`"User-agent: *" is combined with "Disallow: /".`,
			"Disallow: /",
			location,
		))
	}
	if len(robots.Sitemaps) == 0 {
		findings = append(findings, model.NewFinding(
			model.FindingRobotsNoSitemap,
			"robots.txt declares no sitemap",
			"No Sitemap directive was found in robots.txt.",
			"",
			location,
		))
	}
	return findings, nil
}

// SitemapAnalyzer checks that an XML sitemap was found.
type SitemapAnalyzer struct{}

// NewSitemapAnalyzer creates a new SitemapAnalyzer.
func NewSitemapAnalyzer() *SitemapAnalyzer {
	return &SitemapAnalyzer{}
}

// Name returns the analyzer name.
func (a *SitemapAnalyzer) Name() string {
	return "sitemap"
}

// Category returns the analyzer category.
func (a *SitemapAnalyzer) Category() string {
	return CategoryCrawlability
}

// Analyze reports a missing sitemap.
func (a *SitemapAnalyzer) Analyze(_ context.Context, data *AnalysisData) ([]model.Finding, error) {
	if data.Sitemap == nil || data.Sitemap.Found {
		return nil, nil
	}
	return []model.Finding{model.NewFinding(
		model.FindingSitemapMissing,
		"No XML sitemap found",
		fmt.Sprintf("Probed %d locations without finding a sitemap listing pages of this site.", len(data.Sitemap.Probed)),
		"",
		data.BaseURL,
	)}, nil
}

// FetchFailureAnalyzer reports pages that could not be fetched.
type FetchFailureAnalyzer struct{}

// NewFetchFailureAnalyzer creates a new FetchFailureAnalyzer.
func NewFetchFailureAnalyzer() *FetchFailureAnalyzer {
	return &FetchFailureAnalyzer{}
}

// Name returns the analyzer name.
func (a *FetchFailureAnalyzer) Name() string {
	return "fetch-failures"
}

// Category returns the analyzer category.
func (a *FetchFailureAnalyzer) Category() string {
	return CategoryCrawlability
}

// Analyze returns one finding per failed page.
func (a *FetchFailureAnalyzer) Analyze(ctx context.Context, data *AnalysisData) ([]model.Finding, error) {
	var findings []model.Finding
	for _, page := range data.Pages {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		if page.FetchStatus != model.FetchError {
			continue
		}
		value := page.FetchError
		if page.StatusCode != 0 {
			value = "HTTP " + strconv.Itoa(page.StatusCode)
		}
		findings = append(findings, model.NewFinding(
			model.FindingPageFetchFailed,
			"Page could not be fetched",
			page.FetchError,
			value,
			page.URL,
		))
	}
	return findings, nil
}
