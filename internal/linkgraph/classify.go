package linkgraph

import (
	"net/url"
	"strings"

	"github.com/nao1215/linkaudit/internal/model"
)

// NormalizeDomain lowercases host and removes one leading "www.".
// A port, if present, is kept.
func NormalizeDomain(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(host, "www.")
}

// Classification is the result of Classify.
type Classification struct {
	Domain     string
	Type       model.LinkType
	IsSamePage bool
}

// Classify returns the domain, link type and same-page flag of resolved as
// seen from pageURL. It depends on nothing but its arguments.
//
// A link is internal when its normalized host equals the normalized base
// domain; subdomains other than "www." are external. A link is same-page when
// it carries a fragment and its scheme, host and path equal the page's.
func Classify(pageURL, resolved *url.URL, baseDomain string) Classification {
	c := Classification{
		Domain: NormalizeDomain(resolved.Hostname()),
		Type:   model.LinkExternal,
	}
	if c.Domain != "" && c.Domain == NormalizeDomain(baseDomain) {
		c.Type = model.LinkInternal
	}
	if pageURL != nil && resolved.Fragment != "" {
		c.IsSamePage = strings.EqualFold(resolved.Scheme, pageURL.Scheme) &&
			strings.EqualFold(resolved.Host, pageURL.Host) &&
			samePath(resolved.Path, pageURL.Path)
	}
	return c
}

// samePath compares two URL paths treating "" and "/" as equal.
func samePath(a, b string) bool {
	if a == "" {
		a = "/"
	}
	if b == "" {
		b = "/"
	}
	return a == b
}

// ParseRel splits a rel attribute into lowercase tokens, keeping the first
// occurrence of each.
func ParseRel(rel string) []string {
	fields := strings.Fields(strings.ToLower(rel))
	if len(fields) == 0 {
		return nil
	}
	tokens := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}

// CollapseWhitespace trims s and replaces every run of whitespace with one space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
