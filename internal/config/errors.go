package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no seed URL is specified.
	ErrNoTarget = errors.New("no target specified: provide at least one URL")

	// ErrInvalidMaxPages is returned when the page cap is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidTimeout is returned when the fetch or probe timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when more than one of --ndjson,
	// --json and --markdown is specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --ndjson, --json and --markdown cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between pages.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidLinkConcurrency is returned when the probe concurrency is not positive.
	ErrInvalidLinkConcurrency = errors.New("invalid link concurrency: must be positive")

	// ErrInvalidMaxLinkChecks is returned when the per-page probe cap is negative.
	// Use 0 to probe every link.
	ErrInvalidMaxLinkChecks = errors.New("invalid max link checks per page: must be non-negative")

	// ErrInvalidLinkCheckRate is returned when the probe rate is negative.
	ErrInvalidLinkCheckRate = errors.New("invalid link check rate: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrEmptyKeyword is returned when a keyword list contains an empty string,
	// which would match every line.
	ErrEmptyKeyword = errors.New("invalid keyword: keywords must not be empty")
)
