package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in every terminal and pipes cleanly to files.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose adds the matched line to every finding and lists crawled pages.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeBrokenLinks(&sb, report)
	w.writeFindings(&sb, report)
	w.writeCrawledPages(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// writeBanner writes a section title framed by rules.
func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(bannerTitle(title))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       ARACHNE CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Seed URL:       %s\n", report.Seed)
	fmt.Fprintf(sb, "Scan Date:      %s\n", report.DateScanned.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:       %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(sb, "Pages Crawled:  %d\n", report.PagesCrawled)
	fmt.Fprintf(sb, "Status:         %s\n", statusText(report))
	sb.WriteString("\n")
}

// writeSummary writes the count summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.ScanReport) {
	writeBanner(sb, "summary")

	s := report.Summary()
	fmt.Fprintf(sb, "  BROKEN LINKS: %d\n", s.BrokenLinks)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  HIGH:         %d\n", s.High)
	fmt.Fprintf(sb, "  MEDIUM:       %d\n", s.Medium)
	fmt.Fprintf(sb, "  LOW:          %d\n", s.Low)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:        %d findings\n", s.Total())
	fmt.Fprintf(sb, "  RISK LEVEL:   %s\n", bannerTitle(riskText(report)))
	sb.WriteString("\n")
}

// writeBrokenLinks writes every broken link with its status and source.
func (w *SimpleWriter) writeBrokenLinks(sb *strings.Builder, report *model.ScanReport) {
	links := resultOf(report).BrokenLinks
	if len(links) == 0 && !w.showEmpty {
		return
	}

	writeBanner(sb, "broken links")

	if len(links) == 0 {
		sb.WriteString("  No broken links\n\n")
		return
	}
	for _, l := range links {
		fmt.Fprintf(sb, "  [%d] %s\n", l.Status, l.URL)
		fmt.Fprintf(sb, "        %s\n", l.SourceText)
	}
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.ScanReport) {
	result := resultOf(report)
	if len(result.SensitiveInfo) == 0 && !w.showEmpty {
		return
	}

	writeBanner(sb, "sensitive information")

	for _, severity := range model.Severities {
		findings := result.FindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}
		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// writeFindingsForSeverity writes findings of a specific severity level.
func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	fmt.Fprintf(sb, "[%s] %s\n", severityIndicator(severity), severity.String())

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, f := range findings {
		fmt.Fprintf(sb, "  * %s: %s\n", f.Category, f.Finding)
		fmt.Fprintf(sb, "    Location: %s\n", f.URL)
		if w.verbose && f.Line != "" {
			fmt.Fprintf(sb, "    Line: %s\n", truncateString(f.Line, 120))
		}
	}
	sb.WriteString("\n")
}

// severityIndicator returns a visual indicator for the severity level.
func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	default:
		return "?"
	}
}

// writeCrawledPages lists visited pages in verbose mode.
func (w *SimpleWriter) writeCrawledPages(sb *strings.Builder, report *model.ScanReport) {
	if !w.verbose || len(report.CrawledURLs) == 0 {
		return
	}

	writeBanner(sb, "crawled pages")
	for i, u := range report.CrawledURLs {
		fmt.Fprintf(sb, "  %3d. %s\n", i+1, u)
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by Arachne\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
