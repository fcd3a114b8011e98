package model

import "time"

// SimpleReport is a summarized, human-readable report.
// It carries the curated findings of an audit and can be serialized on its
// own for tools that want structured but small output.
type SimpleReport struct {
	// BaseURL is the audited site.
	BaseURL string `json:"base_url"`

	// DateAudited is when the audit was performed.
	DateAudited time.Time `json:"date_audited"`

	// === Severity Summary ===

	CriticalCount int `json:"critical_count"`
	HighCount     int `json:"high_count"`
	MediumCount   int `json:"medium_count"`
	LowCount      int `json:"low_count"`
	InfoCount     int `json:"info_count"`

	// === Findings ===

	// Findings contains all categorized findings.
	Findings []Finding `json:"findings,omitempty"`

	// === Audit Statistics ===

	// PagesAudited is the number of pages fetched successfully.
	PagesAudited int `json:"pages_audited"`

	// PagesFailed is the number of pages that could not be fetched.
	PagesFailed int `json:"pages_failed"`

	// TotalLinks is the number of extracted edges.
	TotalLinks int `json:"total_links"`

	// BrokenLinks is the number of probed edges found broken.
	BrokenLinks int `json:"broken_links"`

	// AverageScore is the mean composite score.
	AverageScore float64 `json:"average_score"`

	// TimedOut indicates if the audit was terminated due to timeout.
	TimedOut bool `json:"timed_out"`

	// Error contains any error message if the audit failed.
	Error string `json:"error,omitempty"`
}

// Finding represents a single finding in the simple report.
type Finding struct {
	// Type is the finding type identifier from severity.go.
	Type string `json:"type"`

	// Severity is the risk level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Impact explains why this finding matters.
	Impact string `json:"impact,omitempty"`

	// Recommendation provides guidance on how to address this finding.
	Recommendation string `json:"recommendation,omitempty"`

	// Value is the specific value found (header name, URL, count).
	Value string `json:"value,omitempty"`

	// Location is where the finding was discovered.
	Location string `json:"location,omitempty"`
}

// NewSimpleReport creates a SimpleReport from an AuditReport.
func NewSimpleReport(report *AuditReport) *SimpleReport {
	simple := &SimpleReport{
		BaseURL:      report.BaseURL,
		DateAudited:  report.DateAudited,
		TotalLinks:   report.Stats.Total,
		BrokenLinks:  report.Stats.Broken,
		AverageScore: report.AverageScore,
		TimedOut:     report.TimedOut,
	}

	for _, p := range report.Pages {
		switch p.FetchStatus {
		case FetchSuccess:
			simple.PagesAudited++
		case FetchError:
			simple.PagesFailed++
		case FetchPending:
		}
	}

	if report.Error != nil {
		simple.Error = report.Error.Error()
	} else if report.ErrorMessage != "" {
		simple.Error = report.ErrorMessage
	}

	if report.SimpleReport != nil {
		simple.Findings = append(simple.Findings, report.SimpleReport.Findings...)
	}
	for _, f := range simple.Findings {
		simple.count(f.Severity)
	}

	return simple
}

// count increments the counter for severity.
func (s *SimpleReport) count(severity Severity) {
	switch severity {
	case SeverityCritical:
		s.CriticalCount++
	case SeverityHigh:
		s.HighCount++
	case SeverityMedium:
		s.MediumCount++
	case SeverityLow:
		s.LowCount++
	case SeverityInfo:
		s.InfoCount++
	}
}

// TotalFindings returns the total number of findings.
func (s *SimpleReport) TotalFindings() int {
	return len(s.Findings)
}

// HasFindings returns true if there are any findings.
func (s *SimpleReport) HasFindings() bool {
	return len(s.Findings) > 0
}

// GetFindingsBySeverity returns findings filtered by severity.
func (s *SimpleReport) GetFindingsBySeverity(severity Severity) []Finding {
	var result []Finding
	for _, f := range s.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}
