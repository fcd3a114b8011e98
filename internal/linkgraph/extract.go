package linkgraph

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/linkaudit/internal/model"
)

// Extract returns one edge per resolvable a[href] of doc, in document order.
// Status fields are left for the status checker; CheckState starts as
// not_checked.
func Extract(pageURL, baseDomain string, doc *goquery.Document) []model.LinkEdge {
	if doc == nil {
		return nil
	}
	page, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	edges := make([]model.LinkEdge, 0)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.TrimSpace(href) == "" {
			return
		}
		resolved, err := page.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}

		rel, _ := s.Attr("rel")
		target, _ := s.Attr("target")
		title, _ := s.Attr("title")
		c := Classify(page, resolved, baseDomain)

		edges = append(edges, model.LinkEdge{
			SourcePage:  pageURL,
			RawHref:     href,
			ResolvedURL: resolved.String(),
			AnchorText:  CollapseWhitespace(s.Text()),
			Title:       strings.TrimSpace(title),
			Domain:      c.Domain,
			Type:        c.Type,
			IsSamePage:  c.IsSamePage,
			RelTokens:   ParseRel(rel),
			OpensNewTab: strings.EqualFold(strings.TrimSpace(target), "_blank"),
			Position:    len(edges) + 1,
			CheckState:  model.CheckNotChecked,
		})
	})
	return edges
}

// FilterOptions selects which edges Filter keeps.
type FilterOptions struct {
	// IncludeInternal keeps edges pointing at the audited domain.
	IncludeInternal bool
	// IncludeExternal keeps edges pointing elsewhere.
	IncludeExternal bool
	// AllowDomains, when not empty, keeps only edges whose domain is listed.
	AllowDomains []string
	// MaxLinks truncates the result. Zero means unlimited.
	MaxLinks int
}

// DefaultFilterOptions keeps every edge.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{IncludeInternal: true, IncludeExternal: true}
}

// Filter applies opts in order: internal, external, allowed domains, then the
// link cap. It never reorders edges or renumbers positions.
func Filter(edges []model.LinkEdge, opts FilterOptions) []model.LinkEdge {
	allowed := make(map[string]bool, len(opts.AllowDomains))
	for _, d := range opts.AllowDomains {
		if d = NormalizeDomain(d); d != "" {
			allowed[d] = true
		}
	}

	out := make([]model.LinkEdge, 0, len(edges))
	for _, e := range edges {
		if e.IsInternal() && !opts.IncludeInternal {
			continue
		}
		if e.IsExternal() && !opts.IncludeExternal {
			continue
		}
		if len(allowed) > 0 && !allowed[e.Domain] {
			continue
		}
		out = append(out, e)
	}
	if opts.MaxLinks > 0 && len(out) > opts.MaxLinks {
		out = out[:opts.MaxLinks]
	}
	return out
}
