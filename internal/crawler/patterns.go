package crawler

import (
	"net/url"
	"path"
	"strings"
)

// pathFilter decides which same-host URLs are enqueued, based on the
// per-site ignore and follow patterns. The zero value allows everything.
//
// Logic:
//  1. If the URL path matches any ignore pattern, skip it
//  2. If follow patterns are set and the path matches none, skip it
//  3. Otherwise, crawl it
//
// Filtering only affects recursion. Filtered links are still probed.
type pathFilter struct {
	ignore []string
	follow []string
}

// allows reports whether u may be enqueued.
func (f pathFilter) allows(u *url.URL) bool {
	p := u.Path
	if p == "" {
		p = "/"
	}

	for _, pattern := range f.ignore {
		if matchPattern(pattern, p) {
			return false
		}
	}

	if len(f.follow) == 0 {
		return true
	}
	for _, pattern := range f.follow {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// matchPattern checks if a URL path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ** to match across path segments
//   - ? to match any single character
//
// Examples:
//   - "/admin/*" matches "/admin", "/admin/users" and "/admin/users/1"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/**/delete" matches "/api/v1/users/delete"
//   - "/api/v?" matches "/api/v1"
func matchPattern(pattern, p string) bool {
	// A trailing "/*" covers the whole subtree, which is what users mean by "/admin/*".
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok && !strings.ContainsAny(prefix, "*?[") {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}

	// Patterns without a slash match the last path segment, so "*.pdf" works anywhere.
	if !strings.Contains(pattern, "/") {
		matched, err := path.Match(pattern, path.Base(p))
		return err == nil && matched
	}

	if strings.Contains(pattern, "**") {
		return matchDoubleStar(strings.Split(pattern, "/"), strings.Split(p, "/"))
	}

	matched, err := path.Match(pattern, p)
	return err == nil && matched
}

// matchDoubleStar matches path segments where a "**" segment consumes zero or more segments.
func matchDoubleStar(pattern, segments []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(segments); i++ {
				if matchDoubleStar(rest, segments[i:]) {
					return true
				}
			}
			return false
		}
		if len(segments) == 0 {
			return false
		}
		matched, err := path.Match(pattern[0], segments[0])
		if err != nil || !matched {
			return false
		}
		pattern, segments = pattern[1:], segments[1:]
	}
	return len(segments) == 0
}
