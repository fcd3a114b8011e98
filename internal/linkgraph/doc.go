// Package linkgraph turns the anchors of a parsed page into classified
// model.LinkEdge values and filters them.
//
// Extraction walks a[href] in document order. Every href that resolves
// against the page URL becomes one edge with a 1-based position; hrefs that
// do not resolve are dropped without consuming a position. Classification is
// a pure function of the page URL, the resolved URL and the base domain.
//
// # Usage
//
//	doc, _ := goquery.NewDocumentFromReader(bytes.NewReader(page.Raw))
//	edges := linkgraph.Extract(page.URL, "example.com", doc)
//	edges = linkgraph.Filter(edges, linkgraph.FilterOptions{IncludeInternal: true, IncludeExternal: true})
package linkgraph
