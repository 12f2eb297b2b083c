package crawler

import (
	"net/url"
	"path"
	"strings"
)

// pathFilter decides which discovered links are worth following based on
// glob patterns over the URL path.
type pathFilter struct {
	ignore []string
	follow []string
}

// allows checks if a URL should be crawled based on ignore/follow patterns.
//
// Logic:
//  1. If the path matches any ignore pattern, skip it
//  2. If follow patterns are set and the path matches none, skip it
//  3. Otherwise, crawl it
func (f pathFilter) allows(targetURL string) bool {
	if len(f.ignore) == 0 && len(f.follow) == 0 {
		return true
	}

	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	p := u.Path
	if p == "" {
		p = "/"
	}

	for _, pattern := range f.ignore {
		if matchPattern(pattern, p) {
			return false
		}
	}

	if len(f.follow) > 0 {
		for _, pattern := range f.follow {
			if matchPattern(pattern, p) {
				return true
			}
		}
		return false
	}

	return true
}

// matchPattern checks if a URL path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//   - a trailing /* to match a whole subtree
//
// Examples:
//   - "/admin/*" matches "/admin", "/admin/users", "/admin/users/1"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/blog/page-?" matches "/blog/page-2"
func matchPattern(pattern, urlPath string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(urlPath, prefix+"/") || urlPath == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(urlPath, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	if matched, err := path.Match(pattern, urlPath); err == nil && matched {
		return true
	}

	// Patterns without a slash match the last path segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := path.Match(pattern, path.Base(urlPath)); err == nil && matched {
			return true
		}
	}

	return false
}
