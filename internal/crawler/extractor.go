package crawler

import (
	"bytes"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractLinks returns the absolute URLs of every <a href> on the page.
//
// Each href is trimmed, resolved against pageURL and stripped of its fragment.
// Results that are not valid absolute URLs (mailto:, javascript:, empty)
// are dropped. The returned list is de-duplicated and sorted, so probe order
// is deterministic. Unparsable input yields an empty list, never an error.
//
// Design decision: We use goquery on top of golang.org/x/net/html rather than
// regular expressions because the HTML5 parser recovers from the malformed
// markup that is common on real sites exactly the way browsers do.
func ExtractLinks(pageURL string, body []byte) []string {
	links := make([]string, 0)

	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return links
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return links
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		abs, ok := resolveLink(base, href)
		if !ok {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	slices.Sort(links)
	return links
}

// resolveLink resolves href against base and removes the fragment.
func resolveLink(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	abs := base.ResolveReference(ref)
	abs.Fragment = ""
	abs.RawFragment = ""

	s := abs.String()
	if !IsValidURL(s) {
		return "", false
	}
	return s, true
}
