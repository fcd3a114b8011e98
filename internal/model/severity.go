package model

// Severity represents how urgently a finding should be addressed.
type Severity int

const (
	// SeverityInfo indicates informational findings that need no action.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor issues with limited ranking impact.
	// Examples: redirected links, a robots.txt without sitemap declaration.
	SeverityLow

	// SeverityMedium indicates issues that warrant attention.
	// Examples: links without anchor text, missing social tags, missing security headers.
	SeverityMedium

	// SeverityHigh indicates issues that hurt crawlability or users directly.
	// Examples: broken links, a missing robots.txt.
	SeverityHigh

	// SeverityCritical indicates issues that can remove the site from search results.
	// Example: robots.txt disallowing every path for all agents.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Finding types produced by the audit packages.
const (
	FindingMissingAnchorText     = "links_missing_anchor_text"
	FindingExternalNoNofollow    = "external_links_without_nofollow"
	FindingNewTabNoNoopener      = "new_tab_without_noopener"
	FindingBrokenLinks           = "broken_links"
	FindingRedirectedLinks       = "redirected_links"
	FindingPageFetchFailed       = "page_fetch_failed"
	FindingRobotsMissing         = "robots_missing"
	FindingRobotsDisallowAll     = "robots_disallow_all"
	FindingRobotsNoSitemap       = "robots_no_sitemap"
	FindingSitemapMissing        = "sitemap_missing"
	FindingSecurityHeader        = "security_header_missing"
	FindingTwitterCardMissing    = "twitter_card_missing"
	FindingOpenGraphMissing      = "open_graph_missing"
	FindingDuplicateContent      = "duplicate_content"
	FindingLowPageScore          = "low_page_score"
	FindingInvalidStructuredData = "structured_data_invalid"
)

// FindingInfo contains metadata about a finding type including severity,
// impact description, and remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping is the single source of truth for finding severities.
var findingInfoMapping = map[string]FindingInfo{
	// CRITICAL
	FindingRobotsDisallowAll: {
		Severity:       SeverityCritical,
		Impact:         "robots.txt blocks every path for all user agents, so search engines will not crawl the site.",
		Recommendation: "Remove the \"Disallow: /\" rule for User-agent * unless the site must stay out of search results.",
	},

	// HIGH
	FindingBrokenLinks: {
		Severity:       SeverityHigh,
		Impact:         "Broken links waste crawl budget and send visitors to error pages.",
		Recommendation: "Fix or remove links that return errors or cannot be reached.",
	},
	FindingRobotsMissing: {
		Severity:       SeverityHigh,
		Impact:         "Without robots.txt crawlers get no directives or sitemap hints.",
		Recommendation: "Add /robots.txt with crawl directives and a Sitemap declaration.",
	},

	// MEDIUM
	FindingMissingAnchorText: {
		Severity:       SeverityMedium,
		Impact:         "Links without descriptive anchor text give search engines and screen readers no context.",
		Recommendation: "Give every link descriptive anchor text.",
	},
	FindingNewTabNoNoopener: {
		Severity:       SeverityMedium,
		Impact:         "Pages opened with target=_blank can access window.opener of the linking page.",
		Recommendation: "Add rel=\"noopener\" (or noreferrer) to links that open a new tab.",
	},
	FindingSitemapMissing: {
		Severity:       SeverityMedium,
		Impact:         "No XML sitemap was found, so discovery relies on crawling alone.",
		Recommendation: "Publish /sitemap.xml listing all indexable pages.",
	},
	FindingSecurityHeader: {
		Severity:       SeverityMedium,
		Impact:         "Missing security headers lower trust signals and leave pages open to common attacks.",
		Recommendation: "Configure the web server to send the missing security header on every page.",
	},
	FindingTwitterCardMissing: {
		Severity:       SeverityMedium,
		Impact:         "Pages without X/Twitter Card tags share poorly on social media.",
		Recommendation: "Add twitter:card, twitter:title, twitter:description and twitter:image meta tags.",
	},
	FindingOpenGraphMissing: {
		Severity:       SeverityMedium,
		Impact:         "Pages without Open Graph tags render without title or image when shared.",
		Recommendation: "Add og:type, og:title, og:description and og:image meta tags.",
	},
	FindingLowPageScore: {
		Severity:       SeverityMedium,
		Impact:         "The page misses many on-page SEO basics.",
		Recommendation: "Review the score breakdown and fix the lowest categories first.",
	},

	// LOW
	FindingExternalNoNofollow: {
		Severity:       SeverityLow,
		Impact:         "Almost all external links pass ranking signals to third-party sites.",
		Recommendation: "Consider selective rel=\"nofollow\" on external links that are not editorial.",
	},
	FindingRedirectedLinks: {
		Severity:       SeverityLow,
		Impact:         "Links that redirect add latency and dilute link equity.",
		Recommendation: "Point links directly at their final destination.",
	},
	FindingRobotsNoSitemap: {
		Severity:       SeverityLow,
		Impact:         "robots.txt does not tell crawlers where the sitemap is.",
		Recommendation: "Add a \"Sitemap:\" line to robots.txt.",
	},
	FindingDuplicateContent: {
		Severity:       SeverityLow,
		Impact:         "Several URLs serve byte-identical content and compete with each other.",
		Recommendation: "Redirect duplicates or declare a canonical URL.",
	},
	FindingInvalidStructuredData: {
		Severity:       SeverityLow,
		Impact:         "A JSON-LD block cannot be parsed and is ignored by search engines.",
		Recommendation: "Validate structured data with a schema.org validator.",
	},

	// INFO
	FindingPageFetchFailed: {
		Severity:       SeverityInfo,
		Impact:         "The page could not be fetched during the audit and was skipped.",
		Recommendation: "Check that the URL is reachable and returns HTML.",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityInfo if the finding type is not in the mapping.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is not in the mapping.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown finding type. Review manually.",
		Recommendation: "Investigate the finding and assess its impact.",
	}
}

// NewFinding builds a Finding whose severity, impact and recommendation
// come from the finding type table.
func NewFinding(findingType, title, description, value, location string) Finding {
	info := GetFindingInfo(findingType)
	return Finding{
		Type:           findingType,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          title,
		Description:    description,
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		Value:          value,
		Location:       location,
	}
}
