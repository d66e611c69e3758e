// Package crawler provides same-site web crawling with broken-link and
// sensitive-content reporting.
//
// # Architecture
//
// The crawler package is designed around the Spider type, which coordinates
// a breadth-first crawl from one seed URL. Each Crawl call owns its own
// frontier, visited set and reports, so a single Spider can serve many
// crawls at once.
//
// Design decision: We implement our own crawl loop rather than using a
// third-party crawling framework because:
//  1. Every visit must emit an ordered progress event before the page is fetched
//  2. Every link on a page is probed, not only the ones that are followed
//  3. The page cap, host rule and progress estimate need tight control
//
// # Components
//
//   - Spider: The main crawler that drives the visit loop and emits events
//   - ExtractLinks: goquery-based anchor extraction and URL resolution
//   - frontier: FIFO queue with membership keys for deduplication
//   - pathFilter: glob-based ignore and follow patterns per site
//
// # Crawl Rules
//
// Only pages on the seed's exact host (port included, case-insensitive) are
// crawled. Links to other hosts are probed but never followed. At most
// MaxPages pages are visited, and no page is visited twice.
//
// # Usage
//
//	spider := crawler.NewSpider(fetcher, checker, crawler.WithMaxPages(50))
//	report, err := spider.Crawl(ctx, "https://example.com/", emit)
package crawler
