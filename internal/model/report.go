package model

import "time"

// ScanReport is the outcome of one crawl together with its metadata.
// It is what the report writers render and what the result archive stores.
//
// Design decision: We embed the wire Result unchanged rather than copying its
// lists into flat fields so that archived reports, rendered reports and the
// event stream always agree on the shape of a finding.
type ScanReport struct {
	// Seed is the start URL of the crawl.
	Seed string `json:"seed"`

	// DateScanned is the time the crawl started.
	DateScanned time.Time `json:"date_scanned"`

	// Duration is how long the crawl took.
	Duration time.Duration `json:"duration"`

	// PagesCrawled is the number of pages visited, including pages that failed to fetch.
	PagesCrawled int `json:"pages_crawled"`

	// CrawledURLs lists the visited pages in visitation order.
	CrawledURLs []string `json:"crawled_urls,omitempty"`

	// Cancelled is true when the crawl was stopped before the frontier was exhausted
	// or the page cap was reached.
	Cancelled bool `json:"cancelled,omitempty"`

	// Error holds a fatal error message, if any. Fatal errors are rare;
	// fetch and probe failures are recorded as broken links instead.
	Error string `json:"error,omitempty"`

	// Result is the accumulated broken-link and sensitive-info reports.
	Result *Result `json:"result"`

	// Steps records the post-crawl processing of the report, in execution order.
	Steps []StepTiming `json:"steps,omitempty"`
}

// StepTiming is how long one processing step (crawl, csv-export, archive) took.
type StepTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// NewScanReport creates a report for seed with an empty result.
func NewScanReport(seed string) *ScanReport {
	return &ScanReport{
		Seed:        seed,
		DateScanned: time.Now(),
		Result:      NewResult(),
	}
}

// Summary aggregates the counts shown at the top of every rendered report.
type Summary struct {
	PagesCrawled int `json:"pages_crawled"`
	BrokenLinks  int `json:"broken_links"`
	High         int `json:"high"`
	Medium       int `json:"medium"`
	Low          int `json:"low"`
}

// Total returns the number of sensitive-info findings.
func (s Summary) Total() int {
	return s.High + s.Medium + s.Low
}

// Summary computes the report summary.
func (r *ScanReport) Summary() Summary {
	result := r.Result.normalized()
	return Summary{
		PagesCrawled: r.PagesCrawled,
		BrokenLinks:  len(result.BrokenLinks),
		High:         result.CountBySeverity(SeverityHigh),
		Medium:       result.CountBySeverity(SeverityMedium),
		Low:          result.CountBySeverity(SeverityLow),
	}
}

// RiskLevel returns the highest severity present, or 0 when there are no findings.
func (r *ScanReport) RiskLevel() Severity {
	s := r.Summary()
	switch {
	case s.High > 0:
		return SeverityHigh
	case s.Medium > 0:
		return SeverityMedium
	case s.Low > 0:
		return SeverityLow
	default:
		return 0
	}
}
