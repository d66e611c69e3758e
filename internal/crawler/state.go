package crawler

import (
	"net/url"

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

// crawlState is everything one Crawl call owns: the frontier, the visited
// set, both reports and the progress denominator. A fresh state is created
// per call and discarded when the call returns, so concurrent crawls never
// share anything.
type crawlState struct {
	seed    *url.URL
	seedRaw string
	filter  pathFilter

	frontier *frontier
	visited  map[string]struct{}
	order    []string

	result *model.Result

	// totalKnown is visited plus queued as of the last enqueue. It starts at 1
	// for the seed and only changes when links are enqueued.
	totalKnown int
}

func newCrawlState(seedRaw string, seed *url.URL, filter pathFilter) *crawlState {
	s := &crawlState{
		seed:       seed,
		seedRaw:    seedRaw,
		filter:     filter,
		frontier:   newFrontier(),
		visited:    make(map[string]struct{}),
		result:     model.NewResult(),
		totalKnown: 1,
	}
	s.frontier.push(frontierEntry{url: seedRaw, key: normalizeParsed(seed)})
	return s
}

// isVisited reports whether key has been visited.
func (s *crawlState) isVisited(key string) bool {
	_, ok := s.visited[key]
	return ok
}

// markVisited records a visit. Visited URLs never leave the set.
func (s *crawlState) markVisited(e frontierEntry) {
	s.visited[e.key] = struct{}{}
	s.order = append(s.order, e.url)
}

// visitedCount returns the number of visited pages.
func (s *crawlState) visitedCount() int {
	return len(s.visited)
}

// progress estimates completion as a percentage in the range 0-99.
// Rounding is to the nearest integer; 100 is reserved for the result event.
func (s *crawlState) progress() int {
	total := max(s.totalKnown, 1)
	p := (200*s.visitedCount() + total) / (2 * total)
	return min(99, p)
}

// enqueue adds link to the frontier when it is on the seed's host, allowed by
// the path filter, and neither visited nor queued. It reports whether the
// link was added.
func (s *crawlState) enqueue(link *url.URL, raw, referrer string) bool {
	if !sameHost(link, s.seed) || !s.filter.allows(link) {
		return false
	}
	key := normalizeParsed(link)
	if s.isVisited(key) || s.frontier.contains(key) {
		return false
	}
	s.frontier.push(frontierEntry{url: raw, key: key, referrer: referrer})
	s.totalKnown = s.visitedCount() + s.frontier.len()
	return true
}

// fetchFailureSource returns the provenance text for a page that could not be fetched.
func (s *crawlState) fetchFailureSource(e frontierEntry) string {
	if e.referrer == "" {
		return model.SourceInitialURL
	}
	return model.FoundOn(e.referrer)
}
