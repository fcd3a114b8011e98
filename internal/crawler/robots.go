package crawler

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/nao1215/linkaudit/internal/httpclient"
	"github.com/nao1215/linkaudit/internal/model"
)

// Robots is the robots.txt of a site together with its summary.
// A nil *Robots allows everything.
type Robots struct {
	Info *model.RobotsInfo
	data *robotstxt.RobotsData
}

// Allowed reports whether agent may fetch path.
func (r *Robots) Allowed(path, agent string) bool {
	if r == nil || r.data == nil || r.Info == nil || !r.Info.Exists {
		return true
	}
	if path == "" {
		path = "/"
	}
	return r.data.TestAgent(path, agent)
}

// CrawlDelay returns the Crawl-delay that applies to agent, or zero.
func (r *Robots) CrawlDelay(agent string) time.Duration {
	if r == nil || r.data == nil {
		return 0
	}
	if group := r.data.FindGroup(agent); group != nil {
		return group.CrawlDelay
	}
	return 0
}

// FetchRobots downloads and parses base/robots.txt. It never fails: a
// missing or unreadable file yields a Robots whose Info says so.
func FetchRobots(ctx context.Context, client *httpclient.Client, base *url.URL, timeout time.Duration) *Robots {
	robotsURL := base.ResolveReference(&url.URL{Path: "/robots.txt"}).String()
	info := &model.RobotsInfo{}

	resp, err := client.Get(ctx, robotsURL, timeout)
	if resp == nil {
		info.Error = err.Error()
		slog.Debug("robots.txt fetch failed", "url", robotsURL, "error", err)
		return &Robots{Info: info}
	}
	info.StatusCode = resp.StatusCode
	if err != nil {
		info.Error = err.Error()
		return &Robots{Info: info}
	}

	data, parseErr := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if parseErr != nil {
		info.Error = parseErr.Error()
		return &Robots{Info: info}
	}

	info.Exists = true
	info.Content = string(resp.Body)
	info.Sitemaps = append([]string(nil), data.Sitemaps...)
	info.DisallowCount = countDisallow(resp.Body)
	info.DisallowAll = !data.TestAgent("/", "*")
	if group := data.FindGroup("*"); group != nil && group.CrawlDelay > 0 {
		info.CrawlDelay = group.CrawlDelay.Seconds()
	}
	return &Robots{Info: info, data: data}
}

// countDisallow counts Disallow rules with a non-empty path.
func countDisallow(body []byte) int {
	count := 0
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "disallow") && strings.TrimSpace(value) != "" {
			count++
		}
	}
	return count
}
