package report

import (
	"io"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

// Writer defines the interface for report output.
// Implementations write crawl reports in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.ScanReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.ScanReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

var (
	titleCaser = cases.Title(language.English)
	upperCaser = cases.Upper(language.English)
)

// sectionTitle formats a heading for markdown output ("broken links" -> "Broken Links").
func sectionTitle(s string) string {
	return titleCaser.String(s)
}

// bannerTitle formats a heading for plain text output ("broken links" -> "BROKEN LINKS").
func bannerTitle(s string) string {
	return upperCaser.String(s)
}

// statusText describes how the crawl ended.
func statusText(report *model.ScanReport) string {
	switch {
	case report.Error != "":
		return "Error - " + report.Error
	case report.Cancelled:
		return "Cancelled (partial results)"
	default:
		return "Complete"
	}
}

// riskText names the highest severity present in the report.
func riskText(report *model.ScanReport) string {
	level := report.RiskLevel()
	if level == 0 {
		return "None"
	}
	return level.String()
}

// resultOf returns the report's result, never nil.
func resultOf(report *model.ScanReport) *model.Result {
	if report.Result == nil {
		return model.NewResult()
	}
	return report.Result
}
