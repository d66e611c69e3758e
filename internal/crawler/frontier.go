package crawler

// frontierEntry is a URL waiting to be crawled.
type frontierEntry struct {
	// url is the link as it was extracted; it is what gets fetched and reported.
	url string

	// key is the normalized form used for membership checks.
	key string

	// referrer is the page that first linked to url, or "" for the seed.
	referrer string
}

// frontier is a FIFO queue of URLs with set membership.
// Breadth-first order keeps crawls deterministic and visits the pages
// closest to the seed first, which matters when the page cap cuts a crawl short.
//
// It is owned by a single crawl loop and is not safe for concurrent use.
type frontier struct {
	queue []frontierEntry
	head  int
	keys  map[string]struct{}
}

func newFrontier() *frontier {
	return &frontier{keys: make(map[string]struct{})}
}

// push appends an entry unless its key is already queued.
// It reports whether the entry was added.
func (f *frontier) push(e frontierEntry) bool {
	if _, ok := f.keys[e.key]; ok {
		return false
	}
	f.keys[e.key] = struct{}{}
	f.queue = append(f.queue, e)
	return true
}

// pop removes and returns the oldest entry.
func (f *frontier) pop() (frontierEntry, bool) {
	if f.head >= len(f.queue) {
		return frontierEntry{}, false
	}
	e := f.queue[f.head]
	f.queue[f.head] = frontierEntry{}
	f.head++
	delete(f.keys, e.key)

	// Reclaim the consumed prefix once it dominates the backing array.
	if f.head > 1024 && f.head*2 > len(f.queue) {
		f.queue = append([]frontierEntry(nil), f.queue[f.head:]...)
		f.head = 0
	}
	return e, true
}

// contains reports whether key is queued.
func (f *frontier) contains(key string) bool {
	_, ok := f.keys[key]
	return ok
}

// len returns the number of queued entries.
func (f *frontier) len() int {
	return len(f.queue) - f.head
}
