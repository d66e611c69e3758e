package config

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The crawl values match what the crawler has always shipped with,
// so scans stay comparable with earlier archived results.
const (
	// DefaultMaxPages caps the number of pages visited per seed.
	// Every visited page costs one fetch plus one probe per link,
	// so 50 pages already means thousands of requests on link-heavy sites.
	DefaultMaxPages = 50

	// DefaultTimeout is the page fetch timeout.
	DefaultTimeout = 5 * time.Second

	// DefaultLinkTimeout is the liveness probe timeout. Probes are HEAD
	// requests, so they get a shorter budget than page fetches.
	DefaultLinkTimeout = 3 * time.Second

	// DefaultCrawlDelay is the pause after each progress event.
	// It keeps the event stream readable for interactive consumers and
	// spaces out page fetches. Set to 0 to disable.
	DefaultCrawlDelay = 100 * time.Millisecond

	// DefaultLinkConcurrency is the number of in-flight link probes per page.
	DefaultLinkConcurrency = 8

	// DefaultBatchSize is the number of seeds crawled concurrently.
	DefaultBatchSize = 4

	// DefaultUserAgent identifies the crawler in HTTP requests.
	DefaultUserAgent = "ArachneLens-Crawler/1.0"

	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB is sufficient for most HTML pages while preventing memory exhaustion.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultServeAddr is the listen address of the HTTP shell.
	DefaultServeAddr = "127.0.0.1:5000"

	// AppName is the application name used for XDG directory paths.
	AppName = "arachne"
)

// DefaultSensitiveKeywords are the dangerous keywords reported with High severity.
var DefaultSensitiveKeywords = []string{"password", "api_key", "secret", "token", "passwd", "credentials"}

// DefaultDevCommentKeywords are the developer markers reported with Low severity.
var DefaultDevCommentKeywords = []string{"TODO", "FIXME", "BUG", "HACK"}

// Config holds all configuration options for a crawl.
// This struct is populated from CLI flags and the configuration file and is
// passed through the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Targets is the list of seed URLs to crawl.
	Targets []string

	// MaxPages is the maximum number of pages visited per seed.
	MaxPages int

	// Timeout is the fetch timeout for a single page.
	Timeout time.Duration

	// LinkTimeout is the timeout for a single link liveness probe.
	LinkTimeout time.Duration

	// CrawlDelay is the pause after each progress event. 0 disables it.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// LinkConcurrency is the number of concurrent link probes per page.
	LinkConcurrency int

	// MaxLinkChecksPerPage caps the number of links probed per page.
	// 0 means every discovered link is probed.
	MaxLinkChecksPerPage int

	// LinkCheckRate limits outbound probes per second across all crawls.
	// 0 means unlimited.
	LinkCheckRate float64

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// SensitiveKeywords are reported as Dangerous Keyword findings.
	SensitiveKeywords []string

	// DevCommentKeywords are reported as Developer Comment findings.
	DevCommentKeywords []string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of seeds crawled concurrently.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .arachne in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	// This is populated by LoadConfigFile and used during crawling.
	SiteConfigs *File

	// NDJSON streams the raw event stream to the output instead of a report.
	NDJSON bool

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable format.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// CSVDir, when set, receives broken_links.csv and sensitive_info.csv per seed.
	CSVDir string

	// DBDir is the directory path for storing the SQLite result archive.
	// Defaults to XDG data directory (~/.local/share/arachne on Linux).
	DBDir string

	// SaveToDB indicates whether to archive results for history comparison.
	SaveToDB bool

	// ServeAddr is the listen address of the HTTP shell.
	ServeAddr string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, page cap).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxPages:           DefaultMaxPages,
		Timeout:            DefaultTimeout,
		LinkTimeout:        DefaultLinkTimeout,
		CrawlDelay:         DefaultCrawlDelay,
		UserAgent:          DefaultUserAgent,
		LinkConcurrency:    DefaultLinkConcurrency,
		MaxBodySize:        DefaultMaxBodySize,
		SensitiveKeywords:  slices.Clone(DefaultSensitiveKeywords),
		DevCommentKeywords: slices.Clone(DefaultDevCommentKeywords),
		BatchSize:          DefaultBatchSize,
		SaveToDB:           true,
		ServeAddr:          DefaultServeAddr,
	}
}

// XDGDataDir returns the XDG data directory for arachne.
// On Linux: ~/.local/share/arachne
// On macOS: ~/Library/Application Support/arachne
// On Windows: %LOCALAPPDATA%\arachne
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for arachne.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyFile merges the scanner section of a configuration file into c.
// Keyword lists from the file replace the defaults; explicit flags are applied
// by the caller afterwards and therefore win.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.SiteConfigs = f
	if len(f.Scanner.SensitiveKeywords) > 0 {
		c.SensitiveKeywords = slices.Clone(f.Scanner.SensitiveKeywords)
	}
	if len(f.Scanner.DevCommentKeywords) > 0 {
		c.DevCommentKeywords = slices.Clone(f.Scanner.DevCommentKeywords)
	}
}

// Validate checks if the configuration is valid for a scan.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.NDJSON && (c.JSONReport || c.MarkdownReport) {
		return ErrConflictingReportFormats
	}

	return c.ValidateCrawl()
}

// ValidateCrawl checks only the options that shape a single crawl.
// The HTTP shell uses it because requests, not flags, carry the targets.
func (c *Config) ValidateCrawl() error {
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	if c.Timeout <= 0 || c.LinkTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.LinkConcurrency <= 0 {
		return ErrInvalidLinkConcurrency
	}

	if c.MaxLinkChecksPerPage < 0 {
		return ErrInvalidMaxLinkChecks
	}

	if c.LinkCheckRate < 0 {
		return ErrInvalidLinkCheckRate
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if slices.Contains(c.SensitiveKeywords, "") || slices.Contains(c.DevCommentKeywords, "") {
		return ErrEmptyKeyword
	}

	return nil
}
