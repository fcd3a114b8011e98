// Package main is the linkaudit command line tool.
//
// linkaudit crawls a website, builds its link graph, probes link targets
// and scores every page for on-page SEO signals.
//
// Usage:
//
//	linkaudit audit https://example.com
//	linkaudit audit --page https://example.com/pricing
//	linkaudit audit --list sites.txt --save
//
// See --help for all available options.
package main

func main() {
	Execute()
}
