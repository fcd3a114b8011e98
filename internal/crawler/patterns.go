package crawler

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PathFilter decides which crawled paths are followed.
//
// Ignore patterns win over follow patterns. When follow patterns are set, a
// path must match one of them.
type PathFilter struct {
	Ignore []string
	Follow []string
}

// Allow reports whether urlPath may be fetched.
func (f PathFilter) Allow(urlPath string) bool {
	if urlPath == "" {
		urlPath = "/"
	}
	for _, pattern := range f.Ignore {
		if matchPattern(pattern, urlPath) {
			return false
		}
	}
	if len(f.Follow) == 0 {
		return true
	}
	for _, pattern := range f.Follow {
		if matchPattern(pattern, urlPath) {
			return true
		}
	}
	return false
}

// matchPattern matches urlPath against a doublestar glob.
//
// Two shorthands are kept from the config format: "/admin/*" means "/admin"
// and everything below it, and "*.pdf" matches the extension at any depth.
// Patterns without "/" are also tried against the last path segment.
func matchPattern(pattern, urlPath string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if urlPath == prefix {
			return true
		}
		pattern = prefix + "/**"
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") && !strings.ContainsAny(ext, "*?[{/") {
		return strings.HasSuffix(urlPath, ext)
	}

	if matched, err := doublestar.Match(pattern, urlPath); err == nil && matched {
		return true
	}

	if !strings.Contains(pattern, "/") {
		matched, err := doublestar.Match(pattern, path.Base(urlPath))
		return err == nil && matched
	}
	return false
}
