package audit

import (
	"cmp"
	"slices"

	"github.com/nao1215/linkaudit/internal/model"
)

const (
	// TopDomains is the number of domains kept by Aggregate.
	TopDomains = 20

	// ExamplesPerDomain is the number of example edges kept per domain.
	ExamplesPerDomain = 3

	// nofollowRatio is the share of followed external links above which
	// the external-without-nofollow issue is raised.
	nofollowRatio = 0.8
)

// Aggregate computes link statistics and the per-domain rollup in one pass.
// Domains are sorted by link count, ties by name, and cut to TopDomains.
func Aggregate(edges []model.LinkEdge) (model.LinkStats, []model.DomainAggregate) {
	var stats model.LinkStats
	byDomain := make(map[string]*model.DomainAggregate)

	for _, e := range edges {
		stats.Total++
		if e.IsInternal() {
			stats.Internal++
		} else {
			stats.External++
		}
		if e.IsSamePage {
			stats.SamePage++
		}
		nofollow := e.HasRel("nofollow")
		if nofollow {
			stats.Nofollow++
		}
		if e.HasRel("sponsored") {
			stats.Sponsored++
		}
		if e.HasRel("ugc") {
			stats.UGC++
		}
		if e.OpensNewTab {
			stats.BlankTarget++
		}
		if e.AnchorTextMissing() {
			stats.AnchorTextMissing++
		}

		agg, ok := byDomain[e.Domain]
		if !ok {
			agg = &model.DomainAggregate{Domain: e.Domain}
			byDomain[e.Domain] = agg
		}
		agg.Count++
		if e.IsInternal() {
			agg.InternalCount++
		} else {
			agg.ExternalCount++
		}
		if nofollow {
			agg.NofollowCount++
		}
		if len(agg.Examples) < ExamplesPerDomain {
			agg.Examples = append(agg.Examples, e)
		}
	}
	stats.UniqueDomains = len(byDomain)

	domains := make([]model.DomainAggregate, 0, len(byDomain))
	for _, agg := range byDomain {
		domains = append(domains, *agg)
	}
	slices.SortFunc(domains, func(a, b model.DomainAggregate) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Domain, b.Domain)
	})
	if len(domains) > TopDomains {
		domains = domains[:TopDomains]
	}
	return stats, domains
}
