package model

// SitemapInfo summarizes sitemap discovery.
type SitemapInfo struct {
	// Found is true when a probe yielded at least one same-domain URL.
	Found bool `json:"found"`

	// Location is the sitemap URL that produced the result.
	Location string `json:"location,omitempty"`

	// Probed lists the sitemap URLs that were requested, in order.
	Probed []string `json:"probed,omitempty"`

	// SubSitemaps lists nested sitemaps that were followed.
	SubSitemaps []string `json:"sub_sitemaps,omitempty"`

	// URLCount is the number of same-domain page URLs found.
	URLCount int `json:"url_count"`
}

// RobotsInfo summarizes /robots.txt.
type RobotsInfo struct {
	Exists        bool     `json:"exists"`
	StatusCode    int      `json:"status_code,omitempty"`
	Error         string   `json:"error,omitempty"`
	Sitemaps      []string `json:"sitemaps,omitempty"`
	DisallowCount int      `json:"disallow_count"`
	DisallowAll   bool     `json:"disallow_all"`
	CrawlDelay    float64  `json:"crawl_delay,omitempty"`
	Content       string   `json:"-"`
}

// SecurityHeaders lists the response headers checked by the security audit.
var SecurityHeaders = []string{
	"strict-transport-security",
	"content-security-policy",
	"x-frame-options",
	"x-content-type-options",
	"referrer-policy",
	"permissions-policy",
}

// HeaderStatus counts how many sampled pages send a header.
type HeaderStatus struct {
	Header  string `json:"header"`
	Present int    `json:"present"`
	Missing int    `json:"missing"`
}

// Percentage returns the share of sampled pages sending the header, rounded.
func (h HeaderStatus) Percentage() int {
	total := h.Present + h.Missing
	if total == 0 {
		return 0
	}
	return (h.Present*100 + total/2) / total
}

// PageHeaders records which security headers one page sends.
type PageHeaders struct {
	URL     string          `json:"url"`
	Present map[string]bool `json:"present"`
}

// SecurityHeaderAudit is the result of sampling pages for security headers.
type SecurityHeaderAudit struct {
	Headers []HeaderStatus `json:"headers"`
	Pages   []PageHeaders  `json:"pages"`
}

// SocialTagCount is the number of social meta tags on one page.
type SocialTagCount struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// SocialTagAudit lists pages with and without social meta tags.
type SocialTagAudit struct {
	WithTwitterCards    []SocialTagCount `json:"with_twitter_cards,omitempty"`
	WithoutTwitterCards []string         `json:"without_twitter_cards,omitempty"`
	WithOpenGraph       []SocialTagCount `json:"with_open_graph,omitempty"`
	WithoutOpenGraph    []string         `json:"without_open_graph,omitempty"`
}

// Priority is the urgency bucket of a plan item.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// PlanItem is one task of the implementation plan.
type PlanItem struct {
	Task   string `json:"task"`
	Action string `json:"action"`
	Impact string `json:"impact"`
	Type   string `json:"type"`
	Count  int    `json:"count"`
}

// ImplementationPlan groups remediation tasks by priority.
type ImplementationPlan struct {
	High   []PlanItem `json:"high_priority,omitempty"`
	Medium []PlanItem `json:"medium_priority,omitempty"`
	Low    []PlanItem `json:"low_priority,omitempty"`
}

// Len returns the number of tasks in the plan.
func (p *ImplementationPlan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.High) + len(p.Medium) + len(p.Low)
}

// SearchSignals is what a search signal provider returns for a query.
type SearchSignals struct {
	Query           string   `json:"query"`
	RelatedSearches []string `json:"related_searches,omitempty"`
	Questions       []string `json:"questions,omitempty"`
	Suggestions     []string `json:"suggestions,omitempty"`
}

// KeywordReport is what a keyword intelligence provider returns.
type KeywordReport struct {
	Keyword      string   `json:"keyword"`
	SearchVolume int      `json:"search_volume"`
	Difficulty   int      `json:"difficulty"`
	Related      []string `json:"related,omitempty"`
}
