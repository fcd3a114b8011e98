package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/nao1215/linkaudit/internal/httpclient"
	"github.com/nao1215/linkaudit/internal/model"
)

const (
	// DefaultLimit is the number of edges probed by default.
	DefaultLimit = 50
	// DefaultStagger is the delay between consecutive probe starts.
	DefaultStagger = 100 * time.Millisecond
	// DefaultTimeout bounds each probe.
	DefaultTimeout = 5 * time.Second
)

// Checker probes link targets with HEAD requests.
//
// Design decision: Results are cached per target URL for the lifetime of the
// Checker, and concurrent probes of the same URL are collapsed with
// singleflight. Site-wide navigation repeats the same links on every page,
// so one request per distinct target is sent no matter how many pages
// link to it.
type Checker struct {
	client *httpclient.Client

	// limit is the number of edges probed per Check call.
	limit int

	// stagger spaces the start of consecutive probes.
	stagger time.Duration

	timeout     time.Duration
	getFallback bool

	flight singleflight.Group
	mu     sync.Mutex
	// cache holds finished results; cancelled probes are not stored.
	cache map[string]probeResult
}

// probeResult is the outcome of probing one URL.
type probeResult struct {
	state    model.CheckState
	status   int
	location string
	err      string
}

// Option configures a Checker.
type Option func(*Checker)

// WithLimit sets how many edges are probed. Zero disables probing.
func WithLimit(limit int) Option {
	return func(c *Checker) {
		if limit >= 0 {
			c.limit = limit
		}
	}
}

// WithStagger sets the delay between probe starts.
func WithStagger(d time.Duration) Option {
	return func(c *Checker) {
		if d >= 0 {
			c.stagger = d
		}
	}
}

// WithTimeout sets the timeout of each probe.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithGETFallback retries with GET when a server rejects HEAD with 405 or 501.
func WithGETFallback(enabled bool) Option {
	return func(c *Checker) {
		c.getFallback = enabled
	}
}

// NewChecker creates a Checker. The client decides the user agent and how
// many redirects are followed before a 3xx is returned as is.
func NewChecker(client *httpclient.Client, opts ...Option) *Checker {
	c := &Checker{
		client:  client,
		limit:   DefaultLimit,
		stagger: DefaultStagger,
		timeout: DefaultTimeout,
		cache:   make(map[string]probeResult),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check returns a copy of edges in which the first limit edges carry their
// probe outcome. The input is not modified. Edges beyond the limit, and edges
// whose scheme is not http or https, keep CheckState not_checked.
func (c *Checker) Check(ctx context.Context, edges []model.LinkEdge) []model.LinkEdge {
	out := make([]model.LinkEdge, len(edges))
	copy(out, edges)
	for i := range out {
		out[i].Status = nil
		out[i].RedirectTarget = ""
		out[i].CheckError = ""
		out[i].CheckState = model.CheckNotChecked
	}

	n := min(c.limit, len(out))
	var g errgroup.Group
	for i := range n {
		if !probeable(out[i].ResolvedURL) {
			continue
		}
		g.Go(func() error {
			if c.stagger > 0 && i > 0 {
				timer := time.NewTimer(time.Duration(i) * c.stagger)
				select {
				case <-ctx.Done():
					timer.Stop()
					apply(&out[i], probeResult{state: model.CheckBroken, err: ctx.Err().Error()})
					return nil
				case <-timer.C:
				}
			}
			apply(&out[i], c.probe(ctx, out[i].ResolvedURL))
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // probes never return errors

	return out
}

// apply writes a probe result onto an edge.
func apply(edge *model.LinkEdge, r probeResult) {
	edge.CheckState = r.state
	edge.RedirectTarget = r.location
	edge.CheckError = r.err
	if r.status != 0 {
		status := r.status
		edge.Status = &status
	}
}

// probe returns the cached result for target or requests it.
func (c *Checker) probe(ctx context.Context, target string) probeResult {
	c.mu.Lock()
	cached, ok := c.cache[target]
	c.mu.Unlock()
	if ok {
		return cached
	}

	v, _, _ := c.flight.Do(target, func() (any, error) {
		// A flight that finished between the lookup above and Do has
		// already filled the cache.
		c.mu.Lock()
		cached, ok := c.cache[target]
		c.mu.Unlock()
		if ok {
			return cached, nil
		}

		r := c.request(ctx, target)
		if ctx.Err() == nil {
			c.mu.Lock()
			c.cache[target] = r
			c.mu.Unlock()
		}
		return r, nil
	})
	return v.(probeResult) //nolint:forcetypeassert // the flight function only returns probeResult
}

// request performs the HEAD probe, with the optional GET fallback.
func (c *Checker) request(ctx context.Context, target string) probeResult {
	resp, err := c.client.Head(ctx, target, c.timeout)
	if err == nil && c.getFallback && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		slog.Debug("HEAD rejected, retrying with GET", "url", target, "status", resp.StatusCode)
		resp, err = c.client.Get(ctx, target, c.timeout)
		if errors.Is(err, httpclient.ErrUnexpectedStatus) || errors.Is(err, httpclient.ErrBodyTooLarge) {
			err = nil
		}
	}
	if err != nil {
		slog.Debug("link probe failed", "url", target, "error", err)
		return probeResult{state: model.CheckBroken, err: err.Error()}
	}
	return classify(resp)
}

// classify maps the last response of a probe to a check state.
func classify(resp *httpclient.Response) probeResult {
	r := probeResult{status: resp.StatusCode}
	switch {
	case resp.StatusCode >= http.StatusBadRequest:
		r.state = model.CheckBroken
	case resp.StatusCode >= http.StatusMultipleChoices:
		r.state = model.CheckRedirect
		r.location = resolveLocation(resp)
	default:
		r.state = model.CheckReachable
	}
	return r
}

// resolveLocation returns the Location header of resp as an absolute URL,
// resolved against the URL that answered. An unparsable header is kept as is.
func resolveLocation(resp *httpclient.Response) string {
	if resp.Location == "" {
		return ""
	}
	ref, err := url.Parse(resp.Location)
	if err != nil {
		return resp.Location
	}
	from := resp.FinalURL
	if from == "" {
		from = resp.URL
	}
	base, err := url.Parse(from)
	if err != nil {
		return resp.Location
	}
	return base.ResolveReference(ref).String()
}

// probeable reports whether raw is an http or https URL.
func probeable(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Summarize sets the status counters of stats from checked edges.
func Summarize(stats *model.LinkStats, edges []model.LinkEdge) {
	stats.StatusChecked = true
	stats.Checked, stats.Broken, stats.Redirects = 0, 0, 0
	for i := range edges {
		switch edges[i].CheckState {
		case model.CheckReachable:
			stats.Checked++
		case model.CheckRedirect:
			stats.Checked++
			stats.Redirects++
		case model.CheckBroken:
			stats.Checked++
			stats.Broken++
		}
	}
}
