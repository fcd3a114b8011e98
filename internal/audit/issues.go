package audit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nao1215/linkaudit/internal/model"
)

// maxIssueLocations is the number of example URLs listed on a link issue.
const maxIssueLocations = 3

// Issues applies the link rules to edges. stats must come from Aggregate
// over the same edges, with status counters set when a status check ran.
func Issues(stats model.LinkStats, edges []model.LinkEdge) []model.Finding {
	issues := make([]model.Finding, 0)

	if stats.AnchorTextMissing > 0 {
		issues = append(issues, model.NewFinding(
			model.FindingMissingAnchorText,
			fmt.Sprintf("%d links missing anchor text", stats.AnchorTextMissing),
			"Links without text tell neither users nor crawlers where they lead.",
			strconv.Itoa(stats.AnchorTextMissing),
			examples(edges, func(e *model.LinkEdge) bool { return e.AnchorTextMissing() }),
		))
	}

	if stats.StatusChecked && stats.Broken > 0 {
		issues = append(issues, model.NewFinding(
			model.FindingBrokenLinks,
			fmt.Sprintf("%d potentially broken links detected", stats.Broken),
			"These links returned an error status or could not be reached.",
			strconv.Itoa(stats.Broken),
			examples(edges, func(e *model.LinkEdge) bool { return e.CheckState == model.CheckBroken }),
		))
	}

	if stats.StatusChecked && stats.Redirects > 0 {
		issues = append(issues, model.NewFinding(
			model.FindingRedirectedLinks,
			fmt.Sprintf("%d links end in a redirect", stats.Redirects),
			"These links still redirected after the maximum number of hops.",
			strconv.Itoa(stats.Redirects),
			examples(edges, func(e *model.LinkEdge) bool { return e.CheckState == model.CheckRedirect }),
		))
	}

	if stats.External > 0 {
		followed := 0
		for i := range edges {
			if edges[i].IsExternal() && !edges[i].HasRel("nofollow") {
				followed++
			}
		}
		if float64(followed) > float64(stats.External)*nofollowRatio {
			issues = append(issues, model.NewFinding(
				model.FindingExternalNoNofollow,
				`Consider adding rel="nofollow" to some external links`,
				fmt.Sprintf("%d of %d external links are followed.", followed, stats.External),
				strconv.Itoa(followed),
				"",
			))
		}
	}

	if stats.BlankTarget > 0 {
		unsafe := func(e *model.LinkEdge) bool { return e.OpensNewTab && !e.HasRel("noopener") }
		count := 0
		for i := range edges {
			if unsafe(&edges[i]) {
				count++
			}
		}
		if count > 0 {
			issues = append(issues, model.NewFinding(
				model.FindingNewTabNoNoopener,
				`Links opening in new tabs should include rel="noopener"`,
				fmt.Sprintf("%d links use target=_blank without noopener.", count),
				strconv.Itoa(count),
				examples(edges, unsafe),
			))
		}
	}
	return issues
}

// examples lists up to maxIssueLocations distinct URLs of matching edges.
func examples(edges []model.LinkEdge, match func(*model.LinkEdge) bool) string {
	seen := make(map[string]bool)
	var urls []string
	for i := range edges {
		if len(urls) == maxIssueLocations {
			break
		}
		e := &edges[i]
		if !match(e) {
			continue
		}
		target := e.ResolvedURL
		if target == "" {
			target = e.RawHref
		}
		if !seen[target] {
			seen[target] = true
			urls = append(urls, target)
		}
	}
	return strings.Join(urls, ", ")
}
