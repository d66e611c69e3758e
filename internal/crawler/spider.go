package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nadyarudie/Web-Crawler/internal/linkcheck"
	"github.com/nadyarudie/Web-Crawler/internal/model"
	"github.com/nadyarudie/Web-Crawler/internal/scanner"
)

// Default spider settings.
const (
	// DefaultMaxPages caps the number of visited pages per crawl.
	DefaultMaxPages = 50

	// DefaultDelay is the pause after each progress event.
	DefaultDelay = 100 * time.Millisecond

	// DefaultLinkConcurrency is the number of in-flight probes per page.
	DefaultLinkConcurrency = 8
)

// Fetcher downloads a page. Transport failures are errors; HTTP error
// statuses are not.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*model.Page, error)
}

// LinkChecker probes a link for liveness.
type LinkChecker interface {
	Check(ctx context.Context, link string) linkcheck.Status
}

// ContentScanner finds sensitive content in page markup.
type ContentScanner interface {
	Scan(pageURL, html string) []model.Finding
}

// EmitFunc receives crawl events in order. Returning an error stops the crawl.
type EmitFunc func(model.Event) error

// Spider crawls one site breadth-first from a seed URL.
// It emits a progress event per visited page and exactly one result event.
//
// Design decision: We call it "Spider" rather than "Crawler" because
// "Spider" is the traditional term for web crawlers and it reads better
// than crawler.NewCrawler() at call sites.
//
// A Spider holds configuration only. Every Crawl call builds its own state,
// so one Spider can serve many concurrent crawls.
type Spider struct {
	fetcher Fetcher
	checker LinkChecker
	scanner ContentScanner
	logger  *slog.Logger

	// maxPages limits the total number of pages visited.
	maxPages int

	// delay is the pause after each progress event.
	delay time.Duration

	// linkConcurrency bounds concurrent probes per page.
	linkConcurrency int

	// maxLinkChecks caps probes per page; 0 means unlimited.
	maxLinkChecks int

	// filter restricts which same-host links are enqueued.
	filter pathFilter
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxPages sets the maximum number of pages to visit.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the pause after each progress event. 0 disables it.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithLinkConcurrency sets the number of concurrent link probes per page.
func WithLinkConcurrency(n int) SpiderOption {
	return func(s *Spider) {
		s.linkConcurrency = n
	}
}

// WithMaxLinkChecksPerPage caps how many links of one page are probed.
// Links are probed in sorted order, so the cap is deterministic. 0 means unlimited.
func WithMaxLinkChecksPerPage(n int) SpiderOption {
	return func(s *Spider) {
		s.maxLinkChecks = n
	}
}

// WithScanner replaces the content scanner.
func WithScanner(sc ContentScanner) SpiderOption {
	return func(s *Spider) {
		s.scanner = sc
	}
}

// WithLogger sets the logger used for crawl diagnostics.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
// Ignored URLs are not crawled but are still probed.
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.filter.ignore = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during crawling.
// If set, only URLs matching at least one pattern are crawled.
// Empty slice means all URLs are allowed (default behavior).
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.filter.follow = patterns
	}
}

// NewSpider creates a new Spider on top of a fetcher and a link checker.
//
// Design decision: We require external fetcher and checker values because
// they own the HTTP clients and the probe rate limiter, which are shared
// across crawls, and because tests substitute them freely.
func NewSpider(fetcher Fetcher, checker LinkChecker, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:         fetcher,
		checker:         checker,
		maxPages:        DefaultMaxPages,
		delay:           DefaultDelay,
		linkConcurrency: DefaultLinkConcurrency,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.scanner == nil {
		s.scanner = scanner.New(scanner.WithLogger(s.logger))
	}
	if s.maxPages <= 0 {
		s.maxPages = DefaultMaxPages
	}
	if s.linkConcurrency <= 0 {
		s.linkConcurrency = DefaultLinkConcurrency
	}

	return s
}

// Crawl crawls the site of startURL and reports through emit.
//
// An invalid startURL returns ErrInvalidURL before any event is emitted.
// Otherwise emit receives one progress event per visited page, in visit
// order, followed by exactly one result event. If ctx is cancelled or emit
// fails, the crawl stops early, a best-effort result event with everything
// gathered so far is still emitted, and the cause is returned.
//
// The returned report mirrors the result event and adds crawl metadata.
func (s *Spider) Crawl(ctx context.Context, startURL string, emit EmitFunc) (*model.ScanReport, error) {
	if !IsValidURL(startURL) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, startURL)
	}
	seed, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, startURL)
	}

	report := model.NewScanReport(startURL)
	state := newCrawlState(startURL, seed, s.filter)
	logger := s.logger.With("seed", startURL)

	crawlErr := s.run(ctx, state, emit, logger)

	report.Duration = time.Since(report.DateScanned)
	report.PagesCrawled = state.visitedCount()
	report.CrawledURLs = state.order
	report.Result = state.result
	report.Cancelled = crawlErr != nil

	if err := emit(model.NewResultEvent(state.result)); err != nil && crawlErr == nil {
		crawlErr = fmt.Errorf("emit result: %w", err)
	}

	logger.Debug("crawl finished",
		"pages", report.PagesCrawled,
		"broken_links", len(report.Result.BrokenLinks),
		"findings", len(report.Result.SensitiveInfo),
		"duration", report.Duration)

	return report, crawlErr
}

// run is the Crawling state: it pops pages until the frontier is empty, the
// page cap is reached, ctx is cancelled or emit fails.
func (s *Spider) run(ctx context.Context, state *crawlState, emit EmitFunc, logger *slog.Logger) error {
	for state.frontier.len() > 0 && state.visitedCount() < s.maxPages {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry, _ := state.frontier.pop()
		if state.isVisited(entry.key) {
			continue
		}
		state.markVisited(entry)

		if err := emit(model.NewProgressEvent(entry.url, state.progress())); err != nil {
			return fmt.Errorf("emit progress: %w", err)
		}
		if err := sleep(ctx, s.delay); err != nil {
			return err
		}

		if err := s.visit(ctx, state, entry, logger); err != nil {
			return err
		}
	}
	return nil
}

// visit fetches one page, scans it, enqueues its same-host links and probes all of them.
// It only returns an error when ctx is cancelled; page-level failures become report entries.
func (s *Spider) visit(ctx context.Context, state *crawlState, entry frontierEntry, logger *slog.Logger) error {
	page, err := s.fetcher.Fetch(ctx, entry.url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Debug("page fetch failed", "url", entry.url, "error", err)
		state.result.AddBrokenLink(model.BrokenLink{
			Status:     model.StatusFetchFailed,
			URL:        entry.url,
			SourceText: state.fetchFailureSource(entry),
		})
		return nil
	}

	if !page.IsText() {
		logger.Debug("skipping non-text page", "url", entry.url, "content_type", page.ContentType)
		return nil
	}

	state.result.AddFindings(s.scanner.Scan(entry.url, page.Body)...)

	links := ExtractLinks(entry.url, []byte(page.Body))
	for _, link := range links {
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		state.enqueue(u, link, entry.url)
	}

	broken, err := s.probeLinks(ctx, entry.url, links)
	if err != nil {
		return err
	}
	for _, b := range broken {
		state.result.AddBrokenLink(b)
	}

	logger.Debug("page crawled",
		"url", entry.url,
		"status", page.StatusCode,
		"links", len(links),
		"broken", len(broken),
		"queued", state.frontier.len())
	return nil
}

// probeLinks checks links concurrently and returns the broken ones in link order.
// Probe results from a cancelled context are discarded rather than reported.
func (s *Spider) probeLinks(ctx context.Context, pageURL string, links []string) ([]model.BrokenLink, error) {
	if s.maxLinkChecks > 0 && len(links) > s.maxLinkChecks {
		links = links[:s.maxLinkChecks]
	}

	statuses := make([]linkcheck.Status, len(links))
	var g errgroup.Group
	g.SetLimit(s.linkConcurrency)
	for i, link := range links {
		g.Go(func() error {
			statuses[i] = s.checker.Check(ctx, link)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	broken := make([]model.BrokenLink, 0)
	for i, st := range statuses {
		if st.Healthy {
			continue
		}
		broken = append(broken, model.BrokenLink{
			Status:     st.Code,
			URL:        links[i],
			SourceText: model.FoundOn(pageURL),
		})
	}
	return broken, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
