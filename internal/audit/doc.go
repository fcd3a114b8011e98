// Package audit turns discovered pages and link edges into statistics and
// findings.
//
// Link rollups (Aggregate) and link rules (Issues) are pure functions of the
// edges. Site-level checks run through an Analyzer that coordinates a set of
// CheckAnalyzer implementations: robots.txt, sitemap, security headers,
// social tags, duplicate content, failed fetches and low page scores. Plan
// groups the resulting findings into a prioritized implementation plan.
package audit
