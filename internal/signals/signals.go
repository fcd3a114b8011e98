package signals

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/linkaudit/internal/linkgraph"
	"github.com/nao1215/linkaudit/internal/model"
)

// Extract collects the signals of page from its parsed document.
func Extract(page *model.Page, doc *goquery.Document) model.Signals {
	s := model.Signals{
		URL:      page.URL,
		HTTPS:    page.IsHTTPS(),
		PageSize: len(page.Raw),
	}
	if doc == nil {
		return s
	}

	s.Title = strings.TrimSpace(doc.Find("title").First().Text())
	s.TitleLength = utf8.RuneCountInString(s.Title)
	s.MetaDescLength = utf8.RuneCountInString(metaContent(doc, `meta[name="description"]`))

	s.H1Count = doc.Find("h1").Length()
	s.H2Count = doc.Find("h2").Length()
	s.H3Count = doc.Find("h3").Length()
	images := doc.Find("img")
	s.ImageCount = images.Length()
	s.ImagesMissingAlt = s.ImageCount - images.Filter("[alt]").Length()
	s.WordCount = len(strings.Fields(doc.Find("body").Text()))

	s.TwitterCard = metaContent(doc, `meta[name="twitter:card"]`) != ""
	s.TwitterTitle = metaContent(doc, `meta[name="twitter:title"]`) != ""
	s.TwitterDescription = metaContent(doc, `meta[name="twitter:description"]`) != ""
	s.TwitterImage = metaContent(doc, `meta[name="twitter:image"]`) != ""
	s.OGType = metaContent(doc, `meta[property="og:type"]`) != ""
	s.OGTitle = metaContent(doc, `meta[property="og:title"]`) != ""
	s.OGDescription = metaContent(doc, `meta[property="og:description"]`) != ""
	s.OGImage = metaContent(doc, `meta[property="og:image"]`) != ""
	s.TwitterTagCount = doc.Find(`meta[name^="twitter:"]`).Length()
	s.OpenGraphTagCount = doc.Find(`meta[property^="og:"]`).Length()

	s.Canonical = strings.TrimSpace(doc.Find(`link[rel="canonical"]`).First().AttrOr("href", ""))
	viewport := metaContent(doc, `meta[name="viewport"]`)
	s.ResponsiveViewport = strings.Contains(strings.ToLower(viewport), "width=device-width")
	s.StructuredDataCount, s.InvalidStructuredData = countJSONLD(page.URL, doc)
	s.Charset = doc.Find("meta[charset]").First().AttrOr("charset", "")
	s.Generator = metaContent(doc, `meta[name="generator"]`)
	s.RobotsMeta = metaContent(doc, `meta[name="robots"]`)

	s.LazyLoading = doc.Find(`img[loading="lazy"]`).Length() > 0
	s.PreloadCount = doc.Find(`link[rel="preload"]`).Length()
	s.PrefetchCount = doc.Find(`link[rel="prefetch"]`).Length()

	pageURL := page.URL
	if page.FinalURL != "" {
		pageURL = page.FinalURL
	}
	var baseDomain string
	if u, err := url.Parse(pageURL); err == nil {
		baseDomain = linkgraph.NormalizeDomain(u.Hostname())
	}
	for _, e := range linkgraph.Extract(pageURL, baseDomain, doc) {
		if e.IsInternal() {
			s.InternalLinks++
		} else {
			s.ExternalLinks++
		}
	}
	return s
}

// metaContent returns the trimmed content attribute of the first match.
func metaContent(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
}

// countJSONLD counts valid and invalid JSON-LD blocks.
func countJSONLD(pageURL string, doc *goquery.Document) (valid, invalid int) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		content := strings.TrimSpace(sel.Text())
		if content == "" {
			return
		}
		if json.Valid([]byte(content)) {
			valid++
			return
		}
		invalid++
		slog.Debug("invalid JSON-LD block", "url", pageURL, "index", i)
	})
	return valid, invalid
}
