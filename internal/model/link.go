package model

import "strings"

// LinkType classifies an edge relative to the audited site.
type LinkType string

const (
	// LinkInternal points at the audited domain.
	LinkInternal LinkType = "internal"
	// LinkExternal points anywhere else.
	LinkExternal LinkType = "external"
)

// CheckState records what the status checker observed for an edge.
type CheckState string

const (
	// CheckNotChecked means the edge was outside the probe limit or no check ran.
	CheckNotChecked CheckState = "not_checked"
	// CheckReachable means the URL resolved, possibly through redirects, to a success status.
	CheckReachable CheckState = "reachable"
	// CheckRedirect means the last observed response was itself a redirect.
	CheckRedirect CheckState = "redirect"
	// CheckBroken means an error status or no response at all.
	CheckBroken CheckState = "broken"
)

// LinkEdge is one anchor of a source page, resolved and classified.
//
// Everything except Status, RedirectTarget, CheckState and CheckError is set
// once during extraction. Those four fields belong to the status checker.
type LinkEdge struct {
	// SourcePage is the URL of the page the anchor appears on.
	SourcePage string `json:"source_page"`

	// RawHref is the href attribute as written.
	RawHref string `json:"raw_href"`

	// ResolvedURL is RawHref resolved against SourcePage.
	ResolvedURL string `json:"url"`

	// AnchorText is the whitespace-collapsed text content of the anchor.
	AnchorText string `json:"anchor_text"`

	// Title is the title attribute, if any.
	Title string `json:"title,omitempty"`

	// Domain is the lowercase hostname without a leading "www.".
	Domain string `json:"domain"`

	// Type is internal or external.
	Type LinkType `json:"type"`

	// IsSamePage is true for fragment links to the source page itself.
	IsSamePage bool `json:"is_same_page"`

	// RelTokens is the lowercase rel token set in order of appearance.
	RelTokens []string `json:"rel,omitempty"`

	// OpensNewTab is true for target="_blank".
	OpensNewTab bool `json:"opens_new_tab"`

	// Position is the 1-based order of the anchor on the source page.
	Position int `json:"position"`

	// Status is the last HTTP status observed, nil when none was observed.
	Status *int `json:"status"`

	// RedirectTarget is the Location of a terminal redirect.
	RedirectTarget string `json:"redirect_target,omitempty"`

	// CheckState is the status checker verdict.
	CheckState CheckState `json:"check_state"`

	// CheckError describes a network failure during the probe.
	CheckError string `json:"check_error,omitempty"`
}

// HasRel reports whether the rel token set contains token (case-insensitive).
func (e *LinkEdge) HasRel(token string) bool {
	token = strings.ToLower(token)
	for _, t := range e.RelTokens {
		if t == token {
			return true
		}
	}
	return false
}

// IsInternal reports whether the edge points at the audited domain.
func (e *LinkEdge) IsInternal() bool {
	return e.Type == LinkInternal
}

// IsExternal reports whether the edge points at another domain.
func (e *LinkEdge) IsExternal() bool {
	return e.Type == LinkExternal
}

// AnchorTextMissing reports whether the anchor has no visible text.
func (e *LinkEdge) AnchorTextMissing() bool {
	return strings.TrimSpace(e.AnchorText) == ""
}

// Checked reports whether the status checker probed this edge.
func (e *LinkEdge) Checked() bool {
	return e.CheckState != "" && e.CheckState != CheckNotChecked
}

// PageLinks groups the edges extracted from one page.
type PageLinks struct {
	PageURL string     `json:"page_url"`
	Edges   []LinkEdge `json:"edges"`
	Stats   LinkStats  `json:"stats"`
}

// LinkStats holds global link counters.
type LinkStats struct {
	Total             int `json:"total"`
	Internal          int `json:"internal"`
	External          int `json:"external"`
	SamePage          int `json:"same_page"`
	Nofollow          int `json:"nofollow"`
	Sponsored         int `json:"sponsored"`
	UGC               int `json:"ugc"`
	BlankTarget       int `json:"blank_target"`
	AnchorTextMissing int `json:"anchor_text_missing"`
	UniqueDomains     int `json:"unique_domains"`

	// StatusChecked is true once a status check ran over the edges.
	StatusChecked bool `json:"status_checked"`
	Checked       int  `json:"checked,omitempty"`
	Broken        int  `json:"broken,omitempty"`
	Redirects     int  `json:"redirects,omitempty"`
}

// DomainAggregate is a per-domain rollup of link counts.
type DomainAggregate struct {
	Domain        string     `json:"domain"`
	Count         int        `json:"count"`
	InternalCount int        `json:"internal"`
	ExternalCount int        `json:"external"`
	NofollowCount int        `json:"nofollow"`
	Examples      []LinkEdge `json:"examples"`
}
