package crawler

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

// TestFrontierFIFO tests queue order and membership.
func TestFrontierFIFO(t *testing.T) {
	t.Parallel()

	f := newFrontier()
	for _, k := range []string{"a", "b", "c"} {
		if !f.push(frontierEntry{url: k, key: k}) {
			t.Fatalf("push(%q) rejected", k)
		}
	}
	if f.push(frontierEntry{url: "b again", key: "b"}) {
		t.Error("duplicate key accepted")
	}
	if f.len() != 3 {
		t.Errorf("len() = %d, expected 3", f.len())
	}

	for _, want := range []string{"a", "b", "c"} {
		e, ok := f.pop()
		if !ok || e.url != want {
			t.Fatalf("pop() = %q, %v; expected %q", e.url, ok, want)
		}
		if f.contains(want) {
			t.Errorf("popped key %q still reported as queued", want)
		}
	}
	if _, ok := f.pop(); ok {
		t.Error("pop() on empty frontier succeeded")
	}
}

// TestFrontierCompaction tests that long runs of push/pop keep order.
func TestFrontierCompaction(t *testing.T) {
	t.Parallel()

	f := newFrontier()
	next := 0
	for i := range 5000 {
		f.push(frontierEntry{url: strconv.Itoa(i), key: strconv.Itoa(i)})
		if i%2 == 1 {
			e, _ := f.pop()
			if e.url != strconv.Itoa(next) {
				t.Fatalf("pop %d returned %q", next, e.url)
			}
			next++
		}
	}
	if f.len() != 5000-next {
		t.Errorf("len() = %d, expected %d", f.len(), 5000-next)
	}
}

// TestCrawlStateProgress tests the progress estimate.
func TestCrawlStateProgress(t *testing.T) {
	t.Parallel()

	seed := mustParse(t, "http://example.com/")
	s := newCrawlState("http://example.com/", seed, pathFilter{})

	e, _ := s.frontier.pop()
	s.markVisited(e)
	if got := s.progress(); got != 99 {
		t.Errorf("progress after seed = %d, expected 99 (capped)", got)
	}

	for _, p := range []string{"/a", "/b"} {
		link := "http://example.com" + p
		if !s.enqueue(mustParse(t, link), link, "http://example.com/") {
			t.Fatalf("enqueue(%q) rejected", link)
		}
	}
	if s.totalKnown != 3 {
		t.Fatalf("totalKnown = %d, expected 3", s.totalKnown)
	}

	e, _ = s.frontier.pop()
	s.markVisited(e)
	if got := s.progress(); got != 67 {
		t.Errorf("progress at 2/3 = %d, expected 67", got)
	}
}

// TestCrawlStateEnqueue tests the enqueue rules.
func TestCrawlStateEnqueue(t *testing.T) {
	t.Parallel()

	seed := mustParse(t, "http://example.com/")
	s := newCrawlState("http://example.com/", seed, pathFilter{ignore: []string{"/private/*"}})

	testCases := []struct {
		link     string
		expected bool
	}{
		{"http://example.com", false}, // seed is queued
		{"http://other.org/", false},
		{"http://example.com/private/x", false},
		{"http://example.com/a", true},
		{"http://EXAMPLE.com/a", false}, // same key as above
		{"http://example.com/a#frag", false},
	}
	for _, tc := range testCases {
		if got := s.enqueue(mustParse(t, tc.link), tc.link, "http://example.com/"); got != tc.expected {
			t.Errorf("enqueue(%q) = %v, expected %v", tc.link, got, tc.expected)
		}
	}

	e, _ := s.frontier.pop()
	s.markVisited(e)
	if s.enqueue(seed, "http://example.com/", "http://example.com/a") {
		t.Error("visited seed was enqueued again")
	}
}

// TestFetchFailureSource tests provenance of fetch failures.
func TestFetchFailureSource(t *testing.T) {
	t.Parallel()

	s := newCrawlState("http://example.com/", mustParse(t, "http://example.com/"), pathFilter{})
	if got := s.fetchFailureSource(frontierEntry{url: "http://example.com/"}); got != model.SourceInitialURL {
		t.Errorf("seed source = %q", got)
	}
	if got := s.fetchFailureSource(frontierEntry{url: "http://example.com/x", referrer: "http://example.com/"}); got != "Found on http://example.com/" {
		t.Errorf("child source = %q", got)
	}
}
