package crawler

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when a crawl is started with a URL that has no
// scheme or no host. No events are emitted in that case.
var ErrInvalidURL = errors.New("a valid URL is required")

// IsValidURL reports whether s parses as a URL with a non-empty scheme and host.
// Relative paths, bare words and opaque URLs such as mailto: are not valid.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// normalizeURL returns the key used for visited and frontier membership.
// Scheme and host are lower-cased, the fragment is removed and an empty path
// becomes "/", so http://Example.com and http://example.com/#top are one page.
// Reported URLs keep their original spelling; only the key is normalized.
func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return normalizeParsed(u)
}

func normalizeParsed(u *url.URL) string {
	n := *u
	n.Fragment = ""
	n.RawFragment = ""
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)
	if n.Path == "" && n.Opaque == "" {
		n.Path = "/"
		n.RawPath = ""
	}
	return n.String()
}

// sameHost reports whether link belongs to the crawled site.
// Hosts are compared case-insensitively and include the port, so
// sub.example.com and example.com:8080 are different sites.
func sameHost(link, seed *url.URL) bool {
	return strings.EqualFold(link.Host, seed.Host)
}
