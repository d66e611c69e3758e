package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/nadyarudie/Web-Crawler/internal/config"
	"github.com/nadyarudie/Web-Crawler/internal/crawler"
	"github.com/nadyarudie/Web-Crawler/internal/fetch"
	"github.com/nadyarudie/Web-Crawler/internal/linkcheck"
	"github.com/nadyarudie/Web-Crawler/internal/model"
	"github.com/nadyarudie/Web-Crawler/internal/report"
	"github.com/nadyarudie/Web-Crawler/internal/scanner"
)

// Archive stores completed crawl reports. *database.CrawlDB implements it.
type Archive interface {
	SaveScanReport(ctx context.Context, report *model.ScanReport) (int64, error)
}

// CrawlStep crawls the report's seed and fills in its result.
//
// Design decision: The spider is built by the caller so that per-site
// settings (headers, cookie, patterns, page cap) are resolved once, outside
// the step, and the step stays trivial to test with a fake spider.
type CrawlStep struct {
	// spider performs the crawl.
	spider *crawler.Spider

	// emit receives progress and result events. nil discards them.
	emit crawler.EmitFunc

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlEmit sets the event sink for the crawl.
func WithCrawlEmit(emit crawler.EmitFunc) CrawlStepOption {
	return func(s *CrawlStep) {
		s.emit = emit
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a new crawling step around spider.
func NewCrawlStep(spider *crawler.Spider, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		spider: spider,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.emit == nil {
		s.emit = func(model.Event) error { return nil }
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step. A cancelled crawl is not an error: the partial
// result is kept and the report is marked cancelled.
func (s *CrawlStep) Do(ctx context.Context, rep *model.ScanReport) error {
	crawled, err := s.spider.Crawl(ctx, rep.Seed, s.emit)
	if crawled != nil {
		rep.DateScanned = crawled.DateScanned
		rep.Duration = crawled.Duration
		rep.PagesCrawled = crawled.PagesCrawled
		rep.CrawledURLs = crawled.CrawledURLs
		rep.Cancelled = crawled.Cancelled
		rep.Result = crawled.Result
	}

	switch {
	case err == nil:
		s.logger.Info("crawl completed",
			"seed", rep.Seed,
			"pages", rep.PagesCrawled,
			"broken_links", len(rep.Result.BrokenLinks),
			"findings", len(rep.Result.SensitiveInfo),
		)
		return nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		s.logger.Warn("crawl cancelled, keeping partial result",
			"seed", rep.Seed,
			"pages", rep.PagesCrawled,
		)
		rep.Cancelled = true
		return nil
	default:
		return fmt.Errorf("crawl %s: %w", rep.Seed, err)
	}
}

// ExportStep writes broken_links.csv and sensitive_info.csv for the report
// into a per-seed subdirectory of dir, so a batch never overwrites itself.
type ExportStep struct {
	// dir is the export root.
	dir string

	// logger for structured logging.
	logger *slog.Logger
}

// NewExportStep creates a CSV export step writing below dir.
func NewExportStep(dir string, logger *slog.Logger) *ExportStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportStep{
		dir:    dir,
		logger: logger,
	}
}

// Name returns the step name.
func (s *ExportStep) Name() string {
	return "csv-export"
}

// Do writes the CSV files.
func (s *ExportStep) Do(_ context.Context, rep *model.ScanReport) error {
	dir := filepath.Join(s.dir, report.SeedDirName(rep.Seed))
	if _, err := report.NewCSVWriter(dir).Write(rep); err != nil {
		return fmt.Errorf("csv export: %w", err)
	}
	s.logger.Debug("csv files written", "seed", rep.Seed, "dir", dir)
	return nil
}

// ArchiveStep saves completed reports to the result archive.
// Cancelled and failed reports are not archived, so history comparisons
// only ever see full crawls.
type ArchiveStep struct {
	// archive is the result store.
	archive Archive

	// logger for structured logging.
	logger *slog.Logger
}

// NewArchiveStep creates an archiving step.
func NewArchiveStep(archive Archive, logger *slog.Logger) *ArchiveStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveStep{
		archive: archive,
		logger:  logger,
	}
}

// Name returns the step name.
func (s *ArchiveStep) Name() string {
	return "archive"
}

// Do saves the report. Archive failures are logged, not returned: the crawl
// result itself is still valid.
func (s *ArchiveStep) Do(ctx context.Context, rep *model.ScanReport) error {
	if rep.Cancelled || rep.Error != "" {
		s.logger.Debug("skipping archive of partial report", "seed", rep.Seed)
		return nil
	}

	id, err := s.archive.SaveScanReport(ctx, rep)
	if err != nil {
		s.logger.Warn("failed to archive report", "seed", rep.Seed, "error", err)
		return nil
	}

	s.logger.Debug("report archived", "seed", rep.Seed, "id", id)
	return nil
}

// Services are the long-lived components shared by every pipeline of a run:
// one HTTP transport, one link checker (with its rate limiter and probe
// deduplication) and an optional archive.
type Services struct {
	// Fetcher is the base page fetcher; pipelines derive per-site copies.
	Fetcher *fetch.HTTPFetcher

	// Checker probes link liveness for every crawl.
	Checker *linkcheck.Checker

	// Archive stores completed reports. nil disables archiving.
	Archive Archive

	// Logger is shared by every component.
	Logger *slog.Logger
}

// NewServices builds the shared components from cfg.
func NewServices(cfg *config.Config, archive Archive, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.Default()
	}

	fetcher := fetch.NewHTTPFetcher(fetch.Options{
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.Timeout,
		MaxBodyBytes: cfg.MaxBodySize,
	})
	checker := linkcheck.NewChecker(fetcher.Client(),
		linkcheck.WithTimeout(cfg.LinkTimeout),
		linkcheck.WithUserAgent(cfg.UserAgent),
		linkcheck.WithRate(cfg.LinkCheckRate),
		linkcheck.WithLogger(logger),
	)

	return &Services{
		Fetcher: fetcher,
		Checker: checker,
		Archive: archive,
		Logger:  logger,
	}
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// MaxPages is the maximum number of pages to crawl.
	MaxPages int

	// Cookie is the cookie string to send with page requests.
	Cookie string

	// Headers are additional HTTP headers to send with page requests.
	Headers map[string]string

	// IgnorePatterns are URL path patterns to skip during crawling.
	IgnorePatterns []string

	// FollowPatterns are URL path patterns to follow during crawling.
	FollowPatterns []string

	// CrawlDelay is the pause after each progress event. 0 disables it.
	CrawlDelay time.Duration

	// LinkConcurrency bounds concurrent probes per page.
	LinkConcurrency int

	// MaxLinkChecks caps probes per page; 0 means unlimited.
	MaxLinkChecks int

	// SensitiveKeywords are reported as Dangerous Keyword findings.
	SensitiveKeywords []string

	// DevCommentKeywords are reported as Developer Comment findings.
	DevCommentKeywords []string

	// CSVDir enables the CSV export step when non-empty.
	CSVDir string

	// Emit receives the crawl events. nil discards them.
	Emit crawler.EmitFunc
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineMaxPages sets the maximum pages to crawl.
func WithPipelineMaxPages(maxPages int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxPages = maxPages
	}
}

// WithPipelineCookie sets the cookie for page requests.
func WithPipelineCookie(cookie string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Cookie = cookie
	}
}

// WithPipelineHeaders sets additional HTTP headers.
func WithPipelineHeaders(headers map[string]string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Headers = headers
	}
}

// WithPipelineIgnorePatterns sets URL patterns to skip during crawling.
func WithPipelineIgnorePatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.IgnorePatterns = patterns
	}
}

// WithPipelineFollowPatterns sets URL patterns to follow during crawling.
func WithPipelineFollowPatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FollowPatterns = patterns
	}
}

// WithPipelineCrawlDelay sets the pause after each progress event.
func WithPipelineCrawlDelay(delay time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlDelay = delay
	}
}

// WithPipelineLinkConcurrency sets the number of concurrent probes per page.
func WithPipelineLinkConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.LinkConcurrency = n
	}
}

// WithPipelineMaxLinkChecks caps the probes per page.
func WithPipelineMaxLinkChecks(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxLinkChecks = n
	}
}

// WithPipelineKeywords sets the scanner keyword lists.
func WithPipelineKeywords(sensitive, devComments []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SensitiveKeywords = sensitive
		c.DevCommentKeywords = devComments
	}
}

// WithPipelineCSVDir enables CSV export into dir.
func WithPipelineCSVDir(dir string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CSVDir = dir
	}
}

// WithPipelineEmit sets the event sink of the crawl.
func WithPipelineEmit(emit crawler.EmitFunc) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Emit = emit
	}
}

// ConfigOptions translates the global configuration and the site
// configuration of seed's host into pipeline options. Site settings
// override global ones.
func ConfigOptions(cfg *config.Config, seed string) []DefaultPipelineOption {
	opts := []DefaultPipelineOption{
		WithPipelineMaxPages(cfg.MaxPages),
		WithPipelineCrawlDelay(cfg.CrawlDelay),
		WithPipelineLinkConcurrency(cfg.LinkConcurrency),
		WithPipelineMaxLinkChecks(cfg.MaxLinkChecksPerPage),
		WithPipelineKeywords(cfg.SensitiveKeywords, cfg.DevCommentKeywords),
	}

	if cfg.SiteConfigs == nil {
		return opts
	}
	u, err := url.Parse(seed)
	if err != nil {
		return opts
	}

	site := cfg.SiteConfigs.GetSiteConfig(u.Host)
	if site.MaxPages > 0 {
		opts = append(opts, WithPipelineMaxPages(site.MaxPages))
	}
	if site.Cookie != "" {
		opts = append(opts, WithPipelineCookie(site.Cookie))
	}
	if len(site.Headers) > 0 {
		opts = append(opts, WithPipelineHeaders(site.Headers))
	}
	if len(site.IgnorePatterns) > 0 {
		opts = append(opts, WithPipelineIgnorePatterns(site.IgnorePatterns))
	}
	if len(site.FollowPatterns) > 0 {
		opts = append(opts, WithPipelineFollowPatterns(site.FollowPatterns))
	}
	return opts
}

// DefaultPipeline creates a pipeline with the standard steps: crawl, then
// CSV export when a directory is configured, then archiving when the
// services carry an archive.
//
// Design decision: We provide a default pipeline because:
// 1. The CLI and the HTTP shell need the same step ordering
// 2. Reduces boilerplate in callers
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineMaxPages, etc).
func DefaultPipeline(services *Services, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(append([]Option{WithLogger(services.Logger)}, pipelineOpts...)...)

	cfg := &DefaultPipelineConfig{
		MaxPages:           config.DefaultMaxPages,
		CrawlDelay:         config.DefaultCrawlDelay,
		LinkConcurrency:    config.DefaultLinkConcurrency,
		SensitiveKeywords:  config.DefaultSensitiveKeywords,
		DevCommentKeywords: config.DefaultDevCommentKeywords,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	fetcher := services.Fetcher
	if cfg.Cookie != "" || len(cfg.Headers) > 0 {
		fetcher = fetcher.WithSite(cfg.Headers, cfg.Cookie)
	}

	spiderOpts := []crawler.SpiderOption{
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithDelay(cfg.CrawlDelay),
		crawler.WithLinkConcurrency(cfg.LinkConcurrency),
		crawler.WithMaxLinkChecksPerPage(cfg.MaxLinkChecks),
		crawler.WithLogger(services.Logger),
		crawler.WithScanner(scanner.New(
			scanner.WithSensitiveKeywords(cfg.SensitiveKeywords),
			scanner.WithDevCommentKeywords(cfg.DevCommentKeywords),
			scanner.WithLogger(services.Logger),
		)),
	}
	if len(cfg.IgnorePatterns) > 0 {
		spiderOpts = append(spiderOpts, crawler.WithIgnorePatterns(cfg.IgnorePatterns))
	}
	if len(cfg.FollowPatterns) > 0 {
		spiderOpts = append(spiderOpts, crawler.WithFollowPatterns(cfg.FollowPatterns))
	}

	spider := crawler.NewSpider(fetcher, services.Checker, spiderOpts...)
	p.AddStep(NewCrawlStep(spider,
		WithCrawlEmit(cfg.Emit),
		WithCrawlLogger(services.Logger),
	))

	if cfg.CSVDir != "" {
		p.AddStep(NewExportStep(cfg.CSVDir, services.Logger))
	}
	if services.Archive != nil {
		p.AddStep(NewArchiveStep(services.Archive, services.Logger))
	}

	return p
}
