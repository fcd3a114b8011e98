package linkgraph

import (
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/linkaudit/internal/model"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse html: %v", err)
	}
	return doc
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", raw, err)
	}
	return u
}

// TestNormalizeDomain tests domain normalization.
func TestNormalizeDomain(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected string
	}{
		{"example.com", "example.com"},
		{"WWW.Example.COM", "example.com"},
		{"www.www.example.com", "www.example.com"},
		{"blog.example.com", "blog.example.com"},
		{" example.com ", "example.com"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeDomain(tc.input); got != tc.expected {
				t.Errorf("NormalizeDomain(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

// TestClassify tests link classification.
func TestClassify(t *testing.T) {
	t.Parallel()

	page := mustURL(t, "https://example.com/blog/post")

	testCases := []struct {
		name         string
		resolved     string
		expectDomain string
		expectType   model.LinkType
		expectSame   bool
	}{
		{"same host", "https://example.com/about", "example.com", model.LinkInternal, false},
		{"www host is internal", "https://www.example.com/about", "example.com", model.LinkInternal, false},
		{"subdomain is external", "https://blog.example.com/", "blog.example.com", model.LinkExternal, false},
		{"other host", "https://other.org/x", "other.org", model.LinkExternal, false},
		{"fragment on same page", "https://example.com/blog/post#top", "example.com", model.LinkInternal, true},
		{"fragment on other page", "https://example.com/blog#top", "example.com", model.LinkInternal, false},
		{"fragment with other scheme", "http://example.com/blog/post#top", "example.com", model.LinkInternal, false},
		{"mailto has no domain", "mailto:someone@example.com", "", model.LinkExternal, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(page, mustURL(t, tc.resolved), "www.example.com")
			if got.Domain != tc.expectDomain {
				t.Errorf("Domain = %q, expected %q", got.Domain, tc.expectDomain)
			}
			if got.Type != tc.expectType {
				t.Errorf("Type = %q, expected %q", got.Type, tc.expectType)
			}
			if got.IsSamePage != tc.expectSame {
				t.Errorf("IsSamePage = %v, expected %v", got.IsSamePage, tc.expectSame)
			}
		})
	}

	t.Run("repeated calls agree", func(t *testing.T) {
		t.Parallel()

		resolved := mustURL(t, "https://www.example.com/#x")
		root := mustURL(t, "https://www.example.com")
		first := Classify(root, resolved, "example.com")
		for range 10 {
			if Classify(root, resolved, "example.com") != first {
				t.Fatal("Classify returned different results for the same input")
			}
		}
		if !first.IsSamePage {
			t.Error("empty path and / should be the same page")
		}
	})
}

// TestParseRel tests rel token parsing.
func TestParseRel(t *testing.T) {
	t.Parallel()

	got := ParseRel("NoFollow  Sponsored nofollow")
	if !slices.Equal(got, []string{"nofollow", "sponsored"}) {
		t.Errorf("unexpected tokens %v", got)
	}
	if ParseRel("   ") != nil {
		t.Error("expected nil for blank rel")
	}
}

// TestExtract tests anchor extraction.
func TestExtract(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<a href="/about">About   us</a>
<a href="https://example.com/services">Services</a>
<a href="contact">Contact</a>
<a href="https://partner.org/" rel="NoFollow  Sponsored" target="_BLANK" title=" Partner ">Partner</a>
<a href="https://news.org/"><img src="x.png" alt="News"></a>
<a href="">empty</a>
<a href="http://%zz">bad</a>
<a>no href</a>
<a href="#section">Jump</a>
</body></html>`

	edges := Extract("https://example.com/blog/", "example.com", mustDoc(t, html))
	if len(edges) != 6 {
		t.Fatalf("expected 6 edges, got %d", len(edges))
	}

	for i, e := range edges {
		if e.Position != i+1 {
			t.Errorf("edge %d has position %d", i, e.Position)
		}
		if e.SourcePage != "https://example.com/blog/" {
			t.Errorf("unexpected source page %q", e.SourcePage)
		}
		if e.CheckState != model.CheckNotChecked || e.Status != nil {
			t.Errorf("edge %d should start unchecked", i)
		}
	}

	if edges[0].ResolvedURL != "https://example.com/about" || edges[0].AnchorText != "About us" {
		t.Errorf("unexpected first edge %+v", edges[0])
	}
	if edges[2].ResolvedURL != "https://example.com/blog/contact" {
		t.Errorf("relative href resolved to %q", edges[2].ResolvedURL)
	}

	partner := edges[3]
	if !partner.IsExternal() || partner.Domain != "partner.org" {
		t.Errorf("unexpected partner classification %+v", partner)
	}
	if !partner.HasRel("nofollow") || !partner.HasRel("sponsored") || len(partner.RelTokens) != 2 {
		t.Errorf("unexpected rel tokens %v", partner.RelTokens)
	}
	if !partner.OpensNewTab || partner.Title != "Partner" {
		t.Errorf("unexpected target/title %+v", partner)
	}

	if !edges[4].AnchorTextMissing() {
		t.Error("image alt must not count as anchor text")
	}

	if !edges[5].IsSamePage || edges[5].Position != 6 {
		t.Errorf("unexpected fragment edge %+v", edges[5])
	}
}

// TestExtractNilDocument tests the nil guard.
func TestExtractNilDocument(t *testing.T) {
	t.Parallel()

	if got := Extract("https://example.com/", "example.com", nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

// TestFilter tests edge filtering.
func TestFilter(t *testing.T) {
	t.Parallel()

	edges := []model.LinkEdge{
		{Position: 1, Domain: "example.com", Type: model.LinkInternal},
		{Position: 2, Domain: "a.org", Type: model.LinkExternal},
		{Position: 3, Domain: "example.com", Type: model.LinkInternal},
		{Position: 4, Domain: "b.org", Type: model.LinkExternal},
		{Position: 5, Domain: "a.org", Type: model.LinkExternal},
	}

	positions := func(es []model.LinkEdge) []int {
		out := make([]int, 0, len(es))
		for _, e := range es {
			out = append(out, e.Position)
		}
		return out
	}

	testCases := []struct {
		name     string
		opts     FilterOptions
		expected []int
	}{
		{"keep all", DefaultFilterOptions(), []int{1, 2, 3, 4, 5}},
		{"internal only", FilterOptions{IncludeInternal: true}, []int{1, 3}},
		{"external only", FilterOptions{IncludeExternal: true}, []int{2, 4, 5}},
		{"allow domains", FilterOptions{IncludeInternal: true, IncludeExternal: true, AllowDomains: []string{"WWW.A.org"}}, []int{2, 5}},
		{"max links", FilterOptions{IncludeInternal: true, IncludeExternal: true, MaxLinks: 2}, []int{1, 2}},
		{"cap after filters", FilterOptions{IncludeExternal: true, MaxLinks: 2}, []int{2, 4}},
		{"nothing", FilterOptions{}, []int{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := positions(Filter(edges, tc.opts))
			if !slices.Equal(got, tc.expected) {
				t.Errorf("Filter() positions = %v, expected %v", got, tc.expected)
			}
		})
	}
}
