package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/linkaudit/internal/httpclient"
	"github.com/nao1215/linkaudit/internal/model"
)

// site is a fake website for crawl tests. Paths without a route return 404.
// "{base}" in a route body is replaced by the server URL.
type site struct {
	server *httptest.Server
	mu     sync.Mutex
	hits   map[string]int
}

func newSite(t *testing.T, routes map[string]string) *site {
	t.Helper()

	s := &site{hits: make(map[string]int)}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()

		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, ".xml"):
			w.Header().Set("Content-Type", "application/xml")
		case strings.HasSuffix(r.URL.Path, ".txt"):
			w.Header().Set("Content-Type", "text/plain")
		case body == "500":
			w.WriteHeader(http.StatusInternalServerError)
			return
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		fmt.Fprint(w, strings.ReplaceAll(body, "{base}", s.server.URL))
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *site) URL() string {
	return s.server.URL
}

func (s *site) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func newTestClient(t *testing.T) *httpclient.Client {
	t.Helper()
	client, err := httpclient.NewClient(httpclient.WithTimeout(2 * time.Second))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func htmlPage(links ...string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>t</title></head><body>")
	for _, l := range links {
		fmt.Fprintf(&b, `<a href="%s">link</a>`, l)
	}
	b.WriteString("</body></html>")
	return b.String()
}

const urlset = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">%s</urlset>`

func sitemapOf(locs ...string) string {
	var b strings.Builder
	for _, l := range locs {
		fmt.Fprintf(&b, "<url><loc>%s</loc></url>", l)
	}
	return fmt.Sprintf(urlset, b.String())
}

// TestNormalizeURL tests URL normalization for deduplication.
func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"HTTP://Example.COM", "http://example.com/"},
		{"https://example.com/page#section", "https://example.com/page"},
		{"https://example.com/Path/", "https://example.com/Path/"},
		{"https://example.com?q=1", "https://example.com/?q=1"},
		{"  https://example.com/a  ", "https://example.com/a"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeURL(tt.input); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestCrawlState tests the visited set.
func TestCrawlState(t *testing.T) {
	t.Parallel()

	t.Run("concurrent visits claim once", func(t *testing.T) {
		t.Parallel()

		state := NewCrawlState(0)
		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := range 64 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				u := "https://example.com/page"
				if i%2 == 0 {
					u = "HTTPS://EXAMPLE.COM/page#frag"
				}
				if state.Visit(u) {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		if wins.Load() != 1 {
			t.Errorf("expected exactly one successful visit, got %d", wins.Load())
		}
		if !state.Visited("https://example.com/page") || state.Len() != 1 {
			t.Error("expected the URL to be recorded once")
		}
	})

	t.Run("budget stops claims without marking", func(t *testing.T) {
		t.Parallel()

		state := NewCrawlState(2)
		if !state.Visit("https://example.com/a") || !state.Visit("https://example.com/b") {
			t.Fatal("expected first two visits to succeed")
		}
		if state.Visit("https://example.com/c") {
			t.Error("expected budget to stop third visit")
		}
		if state.Visited("https://example.com/c") {
			t.Error("rejected URL must not be marked visited")
		}
		if !state.Exhausted() {
			t.Error("expected state to be exhausted")
		}
	})
}

// TestMatchPattern tests glob matching of paths.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"prefix match", "/admin/*", "/admin/dashboard", true},
		{"prefix exact", "/admin/*", "/admin", true},
		{"prefix nested", "/admin/*", "/admin/users/edit", true},
		{"prefix partial no match", "/admin/*", "/administrator", false},
		{"extension", "*.pdf", "/docs/file.pdf", true},
		{"extension no match", "*.pdf", "/docs/file.txt", false},
		{"exact", "/logout", "/logout", true},
		{"exact no match", "/logout", "/login", false},
		{"single char wildcard", "/api/v?/users", "/api/v1/users", true},
		{"single char wildcard no match", "/api/v?/users", "/api/v10/users", false},
		{"segment glob", "draft-*", "/blog/draft-1", true},
		{"root", "/", "/", true},
		{"globstar", "/blog/**/draft", "/blog/2024/01/draft", true},
		{"globstar zero segments", "/blog/**/draft", "/blog/draft", true},
		{"globstar no match", "/blog/**/draft", "/blog/2024/final", false},
		{"alternatives", "/{tag,category}/*", "/tag/go", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

// TestPathFilter tests ignore and follow patterns together.
func TestPathFilter(t *testing.T) {
	t.Parallel()

	filter := PathFilter{Ignore: []string{"/blog/private/*"}, Follow: []string{"/blog/*"}}

	tests := []struct {
		path string
		want bool
	}{
		{"/blog/post", true},
		{"/blog/private/x", false},
		{"/shop", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := filter.Allow(tt.path); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	nested := PathFilter{Ignore: []string{"/blog/**/draft"}}
	if nested.Allow("/blog/2024/01/draft") {
		t.Error("globstar ignore pattern should reject nested drafts")
	}
	if !nested.Allow("/blog/2024/01/post") {
		t.Error("globstar ignore pattern should allow other posts")
	}

	if !(PathFilter{}).Allow("/anything") {
		t.Error("empty filter should allow everything")
	}
}

// TestParseSitemap tests sitemap entry extraction.
func TestParseSitemap(t *testing.T) {
	t.Parallel()

	t.Run("urlset", func(t *testing.T) {
		t.Parallel()

		entries, err := parseSitemap([]byte(sitemapOf("https://example.com/", " https://example.com/a ", "https://example.com/posts.xml")))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(entries.pages, []string{"https://example.com/", "https://example.com/a"}) {
			t.Errorf("unexpected pages %v", entries.pages)
		}
		if !slices.Equal(entries.sitemaps, []string{"https://example.com/posts.xml"}) {
			t.Errorf("unexpected sitemaps %v", entries.sitemaps)
		}
	})

	t.Run("sitemap index", func(t *testing.T) {
		t.Parallel()

		body := `<?xml version="1.0"?><sitemapindex><sitemap><loc>https://example.com/pages</loc></sitemap></sitemapindex>`
		entries, err := parseSitemap([]byte(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(entries.pages) != 0 || !slices.Equal(entries.sitemaps, []string{"https://example.com/pages"}) {
			t.Errorf("unexpected entries %+v", entries)
		}
	})
}

// TestIsXML tests XML sniffing.
func TestIsXML(t *testing.T) {
	t.Parallel()

	if !isXML([]byte(`<?xml version="1.0"?><urlset></urlset>`), "text/plain") {
		t.Error("expected XML declaration to sniff as XML")
	}
	if !isXML([]byte(`<urlset></urlset>`), "application/xml") {
		t.Error("expected declared XML content type to be accepted")
	}
	if isXML([]byte(`<!DOCTYPE html><html><body>404</body></html>`), "text/html") {
		t.Error("expected HTML to be rejected")
	}
}

// TestFindSitemap tests sitemap probing.
func TestFindSitemap(t *testing.T) {
	t.Parallel()

	t.Run("falls back to later probes", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/sitemap-index.xml": "<html><body>not a sitemap</body></html>",
			"/sitemap-0.xml":     sitemapOf("{base}/a", "{base}/b", "https://other.org/c"),
		})
		base, _ := url.Parse(s.URL())

		urls, info := FindSitemap(context.Background(), newTestClient(t), base, time.Second)
		if !info.Found || info.Location != s.URL()+"/sitemap-0.xml" {
			t.Fatalf("unexpected info %+v", info)
		}
		if len(info.Probed) != 3 {
			t.Errorf("expected 3 probes, got %v", info.Probed)
		}
		if !slices.Equal(urls, []string{s.URL() + "/a", s.URL() + "/b"}) {
			t.Errorf("unexpected urls %v", urls)
		}
	})

	t.Run("follows one level of nested sitemaps", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/sitemap.xml": `<?xml version="1.0"?><sitemapindex>
<sitemap><loc>{base}/pages.xml</loc></sitemap>
<sitemap><loc>https://other.org/foreign.xml</loc></sitemap></sitemapindex>`,
			"/pages.xml": `<?xml version="1.0"?><sitemapindex>
<sitemap><loc>{base}/deeper.xml</loc></sitemap></sitemapindex>` + sitemapOf("{base}/x"),
			"/deeper.xml": sitemapOf("{base}/never"),
		})
		base, _ := url.Parse(s.URL())

		urls, info := FindSitemap(context.Background(), newTestClient(t), base, time.Second)
		if !slices.Equal(urls, []string{s.URL() + "/x"}) {
			t.Errorf("unexpected urls %v", urls)
		}
		if !slices.Equal(info.SubSitemaps, []string{s.URL() + "/pages.xml"}) {
			t.Errorf("unexpected sub sitemaps %v", info.SubSitemaps)
		}
		if s.Hits("/deeper.xml") != 0 {
			t.Error("nested sitemaps must not be followed more than one level")
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{})
		base, _ := url.Parse(s.URL())

		urls, info := FindSitemap(context.Background(), newTestClient(t), base, time.Second)
		if urls != nil || info.Found {
			t.Errorf("expected no sitemap, got %v %+v", urls, info)
		}
	})
}

// TestReadSitemapEmpty tests the empty sitemap error.
func TestReadSitemapEmpty(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{"/sitemap.xml": sitemapOf("https://other.org/")})
	_, _, err := readSitemap(context.Background(), newTestClient(t), s.URL()+"/sitemap.xml", "127.0.0.1", time.Second)
	if !errors.Is(err, ErrEmptySitemap) {
		t.Errorf("expected ErrEmptySitemap, got %v", err)
	}
}

// TestDiscover tests the discoverer end to end.
func TestDiscover(t *testing.T) {
	t.Parallel()

	t.Run("sitemap and crawl are merged without duplicates", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/sitemap.xml": sitemapOf("{base}/", "{base}/a", "{base}/b"),
			"/":            htmlPage("/a", "/b", "/a#top", "/b?x=1"),
			"/a":           htmlPage("/", "/b"),
			"/b":           htmlPage("/a"),
		})

		d := NewDiscoverer(newTestClient(t))
		discovery, err := d.Discover(context.Background(), s.URL())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{s.URL() + "/", s.URL() + "/a", s.URL() + "/b"}
		if !slices.Equal(discovery.URLs, want) {
			t.Errorf("URLs = %v, want %v", discovery.URLs, want)
		}
		for _, path := range []string{"/", "/a", "/b"} {
			if s.Hits(path) != 1 {
				t.Errorf("expected %s to be fetched once, got %d", path, s.Hits(path))
			}
		}
		if len(discovery.Pending()) != 0 {
			t.Errorf("expected no pending URLs, got %v", discovery.Pending())
		}
		if p := discovery.Page(s.URL()); p == nil || !p.OK() || len(p.Raw) == 0 || p.Fingerprint == "" {
			t.Errorf("expected cached root page, got %+v", p)
		}
	})

	t.Run("depth bound", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/":   htmlPage("/d1"),
			"/d1": htmlPage("/d2"),
			"/d2": htmlPage("/d3"),
			"/d3": htmlPage(),
		})

		d := NewDiscoverer(newTestClient(t), WithMaxDepth(1), WithSeedPaths(nil))
		discovery, err := d.Discover(context.Background(), s.URL())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(discovery.URLs, []string{s.URL() + "/", s.URL() + "/d1"}) {
			t.Errorf("unexpected URLs %v", discovery.URLs)
		}
		if s.Hits("/d2") != 0 {
			t.Error("page beyond max depth must not be fetched")
		}
		if p := discovery.Page(s.URL() + "/d1"); p == nil || p.Depth != 1 || p.Source != model.SourceCrawl {
			t.Errorf("unexpected /d1 page %+v", p)
		}
	})

	t.Run("failed pages are recorded but not discovered", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/":       htmlPage("/ok", "/broken", "/gone"),
			"/ok":     htmlPage(),
			"/broken": "500",
		})

		d := NewDiscoverer(newTestClient(t), WithSeedPaths(nil))
		discovery, err := d.Discover(context.Background(), s.URL())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(discovery.URLs, []string{s.URL() + "/", s.URL() + "/ok"}) {
			t.Errorf("unexpected URLs %v", discovery.URLs)
		}
		broken := discovery.Page(s.URL() + "/broken")
		if broken == nil || broken.FetchStatus != model.FetchError || broken.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected failed page record, got %+v", broken)
		}
		if gone := discovery.Page(s.URL() + "/gone"); gone == nil || gone.FetchError == "" {
			t.Errorf("expected 404 page record with error, got %+v", gone)
		}
	})

	t.Run("seed paths and external links", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/":      htmlPage("https://other.org/x", "mailto:a@b.c"),
			"/about": htmlPage(),
		})

		d := NewDiscoverer(newTestClient(t))
		discovery, err := d.Discover(context.Background(), s.URL())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(discovery.URLs, []string{s.URL() + "/", s.URL() + "/about"}) {
			t.Errorf("unexpected URLs %v", discovery.URLs)
		}
		if s.Hits("/blog") != 1 || s.Hits("/contact") != 1 {
			t.Error("expected seed paths to be requested")
		}
	})

	t.Run("sitemap-only pages stay pending", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/sitemap.xml": sitemapOf("{base}/orphan"),
			"/":            htmlPage(),
			"/orphan":      htmlPage(),
		})

		d := NewDiscoverer(newTestClient(t), WithSeedPaths(nil))
		discovery, err := d.Discover(context.Background(), s.URL())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(discovery.Pending(), []string{s.URL() + "/orphan"}) {
			t.Errorf("unexpected pending %v", discovery.Pending())
		}
		if s.Hits("/orphan") != 0 {
			t.Error("sitemap-only page must not be fetched during discovery")
		}
	})

	t.Run("ignore patterns", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/":            htmlPage("/admin/panel", "/docs/a.pdf", "/keep"),
			"/admin/panel": htmlPage(),
			"/docs/a.pdf":  htmlPage(),
			"/keep":        htmlPage(),
		})

		d := NewDiscoverer(newTestClient(t), WithSeedPaths(nil), WithIgnorePatterns([]string{"/admin/*", "*.pdf"}))
		discovery, err := d.Discover(context.Background(), s.URL())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(discovery.URLs, []string{s.URL() + "/", s.URL() + "/keep"}) {
			t.Errorf("unexpected URLs %v", discovery.URLs)
		}
	})

	t.Run("max pages", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/":   htmlPage("/p1", "/p2", "/p3", "/p4"),
			"/p1": htmlPage(),
			"/p2": htmlPage(),
			"/p3": htmlPage(),
			"/p4": htmlPage(),
		})

		d := NewDiscoverer(newTestClient(t), WithSeedPaths(nil), WithMaxPages(3))
		discovery, err := d.Discover(context.Background(), s.URL())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(discovery.Pages) != 3 {
			t.Errorf("expected 3 fetched pages, got %d", len(discovery.Pages))
		}
	})

	t.Run("robots disallow", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/robots.txt": "User-agent: *\nDisallow: /private\n",
			"/":           htmlPage("/private/x", "/public"),
			"/private/x":  htmlPage(),
			"/public":     htmlPage(),
		})
		client := newTestClient(t)
		base, _ := url.Parse(s.URL())
		robots := FetchRobots(context.Background(), client, base, time.Second)

		d := NewDiscoverer(client, WithSeedPaths(nil), WithRobots(robots, "SEO-Auditor"))
		discovery, err := d.Discover(context.Background(), s.URL())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Hits("/private/x") != 0 {
			t.Error("disallowed page must not be fetched")
		}
		if !slices.Equal(discovery.URLs, []string{s.URL() + "/", s.URL() + "/public"}) {
			t.Errorf("unexpected URLs %v", discovery.URLs)
		}
	})

	t.Run("crawl delay spaces requests", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/":  htmlPage("/a", "/b"),
			"/a": htmlPage(),
			"/b": htmlPage(),
		})

		d := NewDiscoverer(newTestClient(t), WithSeedPaths(nil), WithDelay(50*time.Millisecond), WithoutSitemap())
		start := time.Now()
		if _, err := d.Discover(context.Background(), s.URL()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
			t.Errorf("expected at least 100ms for 3 requests, took %v", elapsed)
		}
		if s.Hits("/sitemap.xml") != 0 {
			t.Error("sitemap must not be probed when disabled")
		}
	})

	t.Run("sitemap URLs follow robots and patterns", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/robots.txt":  "User-agent: *\nDisallow: /private\n",
			"/sitemap.xml": sitemapOf("{base}/", "{base}/private/a", "{base}/drafts/2026/b", "{base}/c"),
			"/":            htmlPage(),
		})
		client := newTestClient(t)
		base, _ := url.Parse(s.URL())
		robots := FetchRobots(context.Background(), client, base, time.Second)

		d := NewDiscoverer(client, WithSeedPaths(nil), WithRobots(robots, "SEO-Auditor"), WithIgnorePatterns([]string{"/drafts/**"}))
		discovery, err := d.Discover(context.Background(), s.URL())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(discovery.URLs, []string{s.URL() + "/", s.URL() + "/c"}) {
			t.Errorf("unexpected URLs %v", discovery.URLs)
		}
		if len(discovery.SitemapURLs) != 4 {
			t.Errorf("expected the sitemap listing to be kept, got %v", discovery.SitemapURLs)
		}
	})

	t.Run("single page keeps the query", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{"/search": htmlPage("/other")})

		d := NewDiscoverer(newTestClient(t), WithSeedPaths(nil), WithMaxDepth(0), WithoutSitemap())
		discovery, err := d.Discover(context.Background(), s.URL()+"/search?q=shoes#top")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := s.URL() + "/search?q=shoes"
		if discovery.BaseURL != want || len(discovery.Pages) != 1 || discovery.Pages[0].URL != want {
			t.Errorf("expected only %s, got base %s and %d pages", want, discovery.BaseURL, len(discovery.Pages))
		}
	})

	t.Run("pages follow frontier order", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/":  htmlPage("/c", "/a", "/b"),
			"/a": htmlPage(),
			"/b": htmlPage(),
			"/c": htmlPage(),
		})

		d := NewDiscoverer(newTestClient(t), WithSeedPaths(nil), WithConcurrency(3), WithoutSitemap())
		discovery, err := d.Discover(context.Background(), s.URL())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got []string
		for _, p := range discovery.Pages {
			got = append(got, p.URL)
		}
		want := []string{s.URL() + "/", s.URL() + "/a", s.URL() + "/b", s.URL() + "/c"}
		if !slices.Equal(got, want) {
			t.Errorf("page order = %v, want %v", got, want)
		}
	})

	t.Run("invalid base URL", func(t *testing.T) {
		t.Parallel()

		d := NewDiscoverer(newTestClient(t))
		for _, raw := range []string{"", "example.com", "ftp://example.com", "http://"} {
			if _, err := d.Discover(context.Background(), raw); !errors.Is(err, ErrInvalidBaseURL) {
				t.Errorf("Discover(%q) error = %v, want ErrInvalidBaseURL", raw, err)
			}
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{"/": htmlPage()})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		d := NewDiscoverer(newTestClient(t))
		discovery, err := d.Discover(ctx, s.URL())
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if discovery == nil {
			t.Error("expected partial discovery")
		}
	})
}

// TestFetchRobots tests robots.txt parsing.
func TestFetchRobots(t *testing.T) {
	t.Parallel()

	t.Run("parses rules and sitemaps", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{
			"/robots.txt": "User-agent: *\nDisallow: /admin # staff\nDisallow: /tmp\nDisallow:\nCrawl-delay: 2\nSitemap: https://example.com/sitemap.xml\n",
		})
		base, _ := url.Parse(s.URL())

		robots := FetchRobots(context.Background(), newTestClient(t), base, time.Second)
		info := robots.Info
		if !info.Exists || info.StatusCode != http.StatusOK {
			t.Fatalf("unexpected info %+v", info)
		}
		if info.DisallowCount != 2 || info.DisallowAll {
			t.Errorf("unexpected disallow summary %+v", info)
		}
		if !slices.Equal(info.Sitemaps, []string{"https://example.com/sitemap.xml"}) {
			t.Errorf("unexpected sitemaps %v", info.Sitemaps)
		}
		if info.CrawlDelay != 2 || robots.CrawlDelay("SEO-Auditor") != 2*time.Second {
			t.Errorf("unexpected crawl delay %v", info.CrawlDelay)
		}
		if robots.Allowed("/admin/x", "SEO-Auditor") || !robots.Allowed("/blog", "SEO-Auditor") {
			t.Error("unexpected Allowed result")
		}
	})

	t.Run("disallow all", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{"/robots.txt": "User-agent: *\nDisallow: /\n"})
		base, _ := url.Parse(s.URL())

		robots := FetchRobots(context.Background(), newTestClient(t), base, time.Second)
		if !robots.Info.DisallowAll {
			t.Error("expected DisallowAll")
		}
	})

	t.Run("missing file allows everything", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{})
		base, _ := url.Parse(s.URL())

		robots := FetchRobots(context.Background(), newTestClient(t), base, time.Second)
		if robots.Info.Exists || robots.Info.StatusCode != http.StatusNotFound {
			t.Errorf("unexpected info %+v", robots.Info)
		}
		if !robots.Allowed("/anything", "SEO-Auditor") {
			t.Error("missing robots.txt must allow everything")
		}
	})

	t.Run("nil robots allows everything", func(t *testing.T) {
		t.Parallel()

		var robots *Robots
		if !robots.Allowed("/x", "agent") || robots.CrawlDelay("agent") != 0 {
			t.Error("nil robots must allow everything")
		}
	})
}

// TestFetchPending tests fetching URLs outside the crawl.
func TestFetchPending(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{
		"/robots.txt": "User-agent: *\nDisallow: /private\n",
		"/a":          htmlPage(),
		"/b":          htmlPage(),
		"/private/c":  htmlPage(),
		"/drafts/d":   htmlPage(),
	})
	client := newTestClient(t)
	base, _ := url.Parse(s.URL())
	robots := FetchRobots(context.Background(), client, base, time.Second)

	d := NewDiscoverer(client,
		WithRobots(robots, "SEO-Auditor"),
		WithIgnorePatterns([]string{"/drafts/*"}),
		WithDelay(50*time.Millisecond),
		WithConcurrency(4),
	)
	urls := []string{s.URL() + "/b", s.URL() + "/private/c", s.URL() + "/drafts/d", s.URL() + "/a"}

	start := time.Now()
	pages, err := d.FetchPending(context.Background(), urls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)

	if len(pages) != 2 || pages[0].URL != s.URL()+"/b" || pages[1].URL != s.URL()+"/a" {
		t.Fatalf("expected /b and /a in input order, got %d pages", len(pages))
	}
	for _, p := range pages {
		if !p.OK() || p.Source != model.SourceSitemap || p.Depth != 0 {
			t.Errorf("unexpected page %+v", p)
		}
	}
	if s.Hits("/private/c") != 0 || s.Hits("/drafts/d") != 0 {
		t.Error("disallowed and ignored URLs must not be fetched")
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("expected the delay between two requests, took %v", elapsed)
	}
}
