// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown with a mermaid severity chart for sharing
//   - CSVWriter: broken_links.csv and sensitive_info.csv for spreadsheets
//   - NDJSONWriter: the raw crawl event stream, one JSON object per line
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) so that adding an output format never
// touches the crawler or the wire types.
//
// Report writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
