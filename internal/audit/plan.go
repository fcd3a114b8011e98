package audit

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/linkaudit/internal/model"
)

// planTask describes how findings of one type become a plan item.
type planTask struct {
	task     string
	action   string // format with the finding count
	priority model.Priority
}

// planTasks overrides the severity-derived priority where fixing a finding
// pays off more than its severity suggests.
var planTasks = map[string]planTask{
	model.FindingRobotsDisallowAll:     {"Unblock crawlers in robots.txt", "Remove the blanket Disallow rule", model.PriorityHigh},
	model.FindingRobotsMissing:         {"Create robots.txt file", "Add /robots.txt with proper directives", model.PriorityHigh},
	model.FindingBrokenLinks:           {"Fix broken links", "Repair or remove %d broken links", model.PriorityHigh},
	model.FindingTwitterCardMissing:    {"Implement X/Twitter Cards", "Add social media meta tags to %d pages", model.PriorityHigh},
	model.FindingOpenGraphMissing:      {"Implement Open Graph tags", "Add Open Graph meta tags to %d pages", model.PriorityMedium},
	model.FindingSecurityHeader:        {"Implement Security Headers", "Add %d missing security headers", model.PriorityMedium},
	model.FindingSitemapMissing:        {"Publish an XML sitemap", "Serve /sitemap.xml listing all pages", model.PriorityMedium},
	model.FindingMissingAnchorText:     {"Add anchor text", "Describe the target of %d links", model.PriorityMedium},
	model.FindingNewTabNoNoopener:      {"Harden new-tab links", `Add rel="noopener" to %d links`, model.PriorityMedium},
	model.FindingLowPageScore:          {"Improve low scoring pages", "Work through the score breakdown of %d pages", model.PriorityMedium},
	model.FindingRobotsNoSitemap:       {"Declare the sitemap", "Add a Sitemap line to robots.txt", model.PriorityLow},
	model.FindingRedirectedLinks:       {"Update redirected links", "Point %d links at their final URL", model.PriorityLow},
	model.FindingExternalNoNofollow:    {"Review external links", `Consider rel="nofollow" on untrusted external links`, model.PriorityLow},
	model.FindingDuplicateContent:      {"Consolidate duplicate pages", "Canonicalize %d groups of identical pages", model.PriorityLow},
	model.FindingInvalidStructuredData: {"Fix structured data", "Repair invalid JSON-LD on %d pages", model.PriorityLow},
	model.FindingPageFetchFailed:       {"Check unreachable pages", "Investigate %d pages that failed to load", model.PriorityLow},
}

// Plan groups findings by type into prioritized tasks. Items keep the order
// in which their type first appears in findings.
func Plan(findings []model.Finding) *model.ImplementationPlan {
	counts := make(map[string]int)
	var order []string
	first := make(map[string]model.Finding)
	for _, f := range findings {
		if _, ok := counts[f.Type]; !ok {
			order = append(order, f.Type)
			first[f.Type] = f
		}
		counts[f.Type]++
	}

	plan := &model.ImplementationPlan{}
	for _, typ := range order {
		f := first[typ]
		task, ok := planTasks[typ]
		if !ok {
			task = planTask{task: f.Title, action: f.Recommendation, priority: priorityFor(f.Severity)}
		}

		item := model.PlanItem{
			Task:   task.task,
			Action: formatAction(task.action, counts[typ]),
			Impact: impactLabel(task.priority) + " - " + f.Impact,
			Type:   typ,
			Count:  counts[typ],
		}
		switch task.priority {
		case model.PriorityHigh:
			plan.High = append(plan.High, item)
		case model.PriorityMedium:
			plan.Medium = append(plan.Medium, item)
		default:
			plan.Low = append(plan.Low, item)
		}
	}
	return plan
}

// priorityFor maps a severity to a plan priority.
func priorityFor(s model.Severity) model.Priority {
	switch {
	case s >= model.SeverityHigh:
		return model.PriorityHigh
	case s == model.SeverityMedium:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// impactLabel renders a priority as a title, for example "High".
func impactLabel(p model.Priority) string {
	return cases.Title(language.English).String(string(p))
}

func formatAction(action string, count int) string {
	if strings.Contains(action, "%d") {
		return fmt.Sprintf(action, count)
	}
	return action
}
