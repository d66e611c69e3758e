package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeBrokenLinks(md, report)
	w.writeFindings(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	md.H1(sectionTitle("arachne crawl report"))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + report.Seed + "`"},
			{"Scan Date", report.DateScanned.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration.String()},
			{"Pages Crawled", strconv.Itoa(report.PagesCrawled)},
			{"Status", markdownStatus(report)},
			{"Risk Level", riskText(report)},
		},
	})
	md.PlainText("")
}

// markdownStatus returns the status text with an emoji marker.
func markdownStatus(report *model.ScanReport) string {
	switch {
	case report.Error != "":
		return "❌ " + statusText(report)
	case report.Cancelled:
		return "⚠️ " + statusText(report)
	default:
		return "✅ " + statusText(report)
	}
}

// writeSummary writes the count summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScanReport) {
	md.H2(sectionTitle("summary"))
	md.PlainText("")

	s := report.Summary()
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Count"},
		Rows: [][]string{
			{"🔗 Broken Links", strconv.Itoa(s.BrokenLinks)},
			{"🟠 High", strconv.Itoa(s.High)},
			{"🟡 Medium", strconv.Itoa(s.Medium)},
			{"🔵 Low", strconv.Itoa(s.Low)},
			{"**Total Findings**", "**" + strconv.Itoa(s.Total()) + "**"},
		},
	})
	md.PlainText("")

	if s.Total() > 0 {
		w.writePieChart(md, s)
	}

	w.writeAlert(md, s)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	if s.High > 0 {
		chart.LabelAndIntValue("High", uint64(s.High))
	}
	if s.Medium > 0 {
		chart.LabelAndIntValue("Medium", uint64(s.Medium))
	}
	if s.Low > 0 {
		chart.LabelAndIntValue("Low", uint64(s.Low))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the summary.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s model.Summary) {
	switch {
	case s.High > 0:
		md.Cautionf(
			"Possible secret exposure! %d high severity finding(s) require immediate attention.",
			s.High,
		)
	case s.Medium > 0:
		md.Warningf(
			"%d email address(es) are exposed in page markup.",
			s.Medium,
		)
	case s.BrokenLinks > 0:
		md.Importantf("%d broken link(s) found.", s.BrokenLinks)
	case s.Total() > 0:
		md.Note("Only low severity findings detected.")
	default:
		md.Tip("No broken links or sensitive information detected.")
	}
	md.PlainText("")
}

// writeBrokenLinks writes the broken-link table.
func (w *MarkdownWriter) writeBrokenLinks(md *markdown.Markdown, report *model.ScanReport) {
	md.H2(sectionTitle("broken links"))
	md.PlainText("")

	links := resultOf(report).BrokenLinks
	if len(links) == 0 {
		md.PlainText("No broken links detected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(links))
	for i, l := range links {
		rows[i] = []string{
			strconv.Itoa(l.Status),
			truncateString(l.URL, 80),
			truncateString(l.SourceText, 80),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Status", "URL", "Source"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.ScanReport) {
	md.H2(sectionTitle("sensitive information"))
	md.PlainText("")

	result := resultOf(report)
	if len(result.SensitiveInfo) == 0 {
		md.PlainText("No sensitive information detected.")
		md.PlainText("")
		return
	}

	headers := map[model.Severity]string{
		model.SeverityHigh:   "### 🟠 High",
		model.SeverityMedium: "### 🟡 Medium",
		model.SeverityLow:    "### 🔵 Low",
	}

	for _, severity := range model.Severities {
		findings := result.FindingsBySeverity(severity)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(headers[severity])
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		rows[i] = []string{
			string(f.Category),
			truncateString(f.Finding, 50),
			truncateString(f.URL, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Category", "Finding", "Location"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range findings {
		if f.Line != "" && f.Line != f.Finding {
			md.Details(f.Finding+" @ "+f.URL, f.Line)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by Arachne*")
}
