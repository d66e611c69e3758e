package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nadyarudie/Web-Crawler/internal/config"
	"github.com/nadyarudie/Web-Crawler/internal/database"
	"github.com/nadyarudie/Web-Crawler/internal/model"
	"github.com/spf13/cobra"
)

// Constants for risk direction and summary messages.
const (
	riskDirectionWorsened  = "worsened"
	riskDirectionImproved  = "improved"
	riskDirectionUnchanged = "unchanged"
	noIssuesMessage        = "No issues"
)

// NewHistoryCmd creates the history command.
// This command compares crawl results with earlier runs stored in the archive.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Compare crawl results with archived runs",
		Long: `History displays differences between the latest and an earlier crawl of a seed.

It shows:
- Broken links that appeared or were fixed since the earlier crawl
- Findings that appeared or were resolved
- Changes in the severity counts

Only completed crawls are archived. The comparison requires at least two
archived crawls of the same seed URL.

Examples:
  # Compare the latest two crawls of a seed
  arachne history https://example.com/

  # List archived crawls of a seed
  arachne history --list https://example.com/

  # Compare with a specific archived crawl by ID
  arachne history --with-scan-id 5 https://example.com/

  # Compare with the first crawl since a date
  arachne history --since 2025-01-01 https://example.com/

  # Output comparison in JSON format
  arachne history --json https://example.com/

  # List all archived seeds
  arachne history --list-seeds

  # Remove every archived crawl of a seed
  arachne history --delete https://example.com/`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List archived crawls of the specified seed")
	cmd.Flags().BoolP("list-seeds", "L", false,
		"List all archived seeds")
	cmd.Flags().Bool("delete", false,
		"Delete every archived crawl of the specified seed")

	// Comparison target flags
	cmd.Flags().Int64P("with-scan-id", "i", 0,
		"Compare with a specific crawl by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first crawl on or after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	cmd.Flags().String("db-dir", "",
		"Directory of the result archive (default: XDG data directory)")

	return cmd
}

// historyOptions are the parsed flags of the history command.
type historyOptions struct {
	seed           string
	listSeeds      bool
	list           bool
	deleteSeed     bool
	withScanID     int64
	since          string
	jsonOutput     bool
	markdownOutput bool
	dbDir          string
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryFlags(cmd, args)
	if err != nil {
		return err
	}

	// Arguments are validated before the database is opened so a usage error
	// never creates an empty archive.
	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return runHistory(cmd.Context(), db, opts, cmd.OutOrStdout())
}

func parseHistoryFlags(cmd *cobra.Command, args []string) (*historyOptions, error) {
	opts := &historyOptions{}
	flags := cmd.Flags()
	var err error

	if opts.listSeeds, err = flags.GetBool("list-seeds"); err != nil {
		return nil, err
	}
	if opts.list, err = flags.GetBool("list"); err != nil {
		return nil, err
	}
	if opts.deleteSeed, err = flags.GetBool("delete"); err != nil {
		return nil, err
	}
	if opts.withScanID, err = flags.GetInt64("with-scan-id"); err != nil {
		return nil, err
	}
	if opts.since, err = flags.GetString("since"); err != nil {
		return nil, err
	}
	if opts.jsonOutput, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdownOutput, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}

	if opts.jsonOutput && opts.markdownOutput {
		return nil, config.ErrConflictingReportFormats
	}
	if !opts.listSeeds {
		if len(args) == 0 {
			return nil, errors.New("seed URL is required (use --list-seeds to see archived seeds)")
		}
		opts.seed = args[0]
	}
	return opts, nil
}

// runHistory dispatches to listing or comparison.
func runHistory(ctx context.Context, db *database.CrawlDB, opts *historyOptions, w io.Writer) error {
	switch {
	case opts.listSeeds:
		return listArchivedSeeds(ctx, db, w)
	case opts.list:
		return listCrawlHistory(ctx, db, opts.seed, w)
	case opts.deleteSeed:
		return deleteCrawlHistory(ctx, db, opts.seed, w)
	}

	comparison, err := buildComparison(ctx, db, opts.seed, opts.withScanID, opts.since)
	if err != nil {
		return err
	}

	switch {
	case opts.jsonOutput:
		return outputComparisonJSON(w, comparison)
	case opts.markdownOutput:
		outputComparisonMarkdown(w, comparison)
	default:
		outputComparisonText(w, comparison)
	}
	return nil
}

// listArchivedSeeds lists all seeds that have archived crawls.
func listArchivedSeeds(ctx context.Context, db *database.CrawlDB, w io.Writer) error {
	seeds, err := db.ListScannedSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list seeds: %w", err)
	}

	if len(seeds) == 0 {
		fmt.Fprintln(w, "No archived crawls found.")
		fmt.Fprintln(w, "\nUse 'arachne scan <url>' to crawl a site.")
		return nil
	}

	fmt.Fprintf(w, "Archived seeds (%d):\n\n", len(seeds))
	for _, seed := range seeds {
		fmt.Fprintf(w, "  • %s\n", seed)
	}
	fmt.Fprintln(w, "\nUse 'arachne history --list <url>' to see the crawls of a seed.")

	return nil
}

// listCrawlHistory lists all archived crawls of a seed.
func listCrawlHistory(ctx context.Context, db *database.CrawlDB, seed string, w io.Writer) error {
	reports, err := db.GetScanHistoryWithMetadata(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(reports) == 0 {
		fmt.Fprintf(w, "No archived crawls found for %s\n", seed)
		return nil
	}

	fmt.Fprintf(w, "Crawl history for %s (%d crawls):\n\n", seed, len(reports))
	fmt.Fprintf(w, "  %-6s  %-20s  %-6s  %s\n", "ID", "Date", "Pages", "Summary")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 60))

	for _, meta := range reports {
		fmt.Fprintf(w, "  %-6d  %-20s  %-6d  %s\n",
			meta.ID,
			meta.DateScanned.Local().Format("2006-01-02 15:04:05"),
			meta.Summary.PagesCrawled,
			formatSummary(meta.Summary),
		)
	}

	fmt.Fprintln(w, "\nUse 'arachne history <url>' to compare the latest two crawls.")
	fmt.Fprintln(w, "Use 'arachne history --with-scan-id <id> <url>' to compare with a specific crawl.")

	return nil
}

// deleteCrawlHistory removes every archived crawl of a seed.
func deleteCrawlHistory(ctx context.Context, db *database.CrawlDB, seed string, w io.Writer) error {
	n, err := db.DeleteScanHistory(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to delete crawl history: %w", err)
	}
	if n == 0 {
		fmt.Fprintf(w, "No archived crawls found for %s\n", seed)
		return nil
	}
	fmt.Fprintf(w, "Deleted %d archived crawls of %s\n", n, seed)
	return nil
}

// formatSummary formats the counts of a crawl into a compact string.
func formatSummary(s model.Summary) string {
	var parts []string
	if s.BrokenLinks > 0 {
		parts = append(parts, fmt.Sprintf("B:%d", s.BrokenLinks))
	}
	if s.High > 0 {
		parts = append(parts, fmt.Sprintf("H:%d", s.High))
	}
	if s.Medium > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", s.Medium))
	}
	if s.Low > 0 {
		parts = append(parts, fmt.Sprintf("L:%d", s.Low))
	}

	if len(parts) == 0 {
		return noIssuesMessage
	}
	return strings.Join(parts, " ")
}

// buildComparison loads the latest crawl of seed and the crawl to compare it with.
func buildComparison(ctx context.Context, db *database.CrawlDB, seed string, withScanID int64, sinceDate string) (*ComparisonResult, error) {
	// Reports are sorted newest first.
	reports, err := db.GetScanHistory(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(reports) == 0 {
		return nil, fmt.Errorf("no archived crawls found for %s", seed)
	}

	if len(reports) < 2 && withScanID == 0 && sinceDate == "" {
		return nil, fmt.Errorf("at least 2 crawls are required for comparison (found %d)", len(reports))
	}

	current := reports[0]
	var previous *model.ScanReport

	switch {
	case withScanID > 0:
		previous, err = db.GetScanReportByID(ctx, withScanID)
		if err != nil {
			return nil, fmt.Errorf("failed to get crawl with ID %d: %w", withScanID, err)
		}
		if previous.Seed != seed {
			return nil, fmt.Errorf("crawl ID %d belongs to %s, not %s", withScanID, previous.Seed, seed)
		}
	case sinceDate != "":
		parsedDate, err := time.ParseInLocation("2006-01-02", sinceDate, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Iterate in reverse to find the oldest crawl at or after the date.
		for i := len(reports) - 1; i >= 0; i-- {
			if !reports[i].DateScanned.Before(parsedDate) {
				previous = reports[i]
				break
			}
		}
		if previous == nil {
			return nil, fmt.Errorf("no crawls found since %s", sinceDate)
		}
		if previous == current {
			return nil, fmt.Errorf("only one crawl found since %s; at least 2 crawls are required for comparison", sinceDate)
		}
	default:
		previous = reports[1]
	}

	return compareReports(previous, current), nil
}

// ComparisonResult holds the result of comparing two crawls of one seed.
type ComparisonResult struct {
	// Seed is the start URL of both crawls.
	Seed string `json:"seed"`

	// PreviousScan contains metadata about the earlier crawl.
	PreviousScan model.Summary `json:"previous_scan"`

	// CurrentScan contains metadata about the latest crawl.
	CurrentScan model.Summary `json:"current_scan"`

	// PreviousDate is when the earlier crawl ran.
	PreviousDate time.Time `json:"previous_date"`

	// CurrentDate is when the latest crawl ran.
	CurrentDate time.Time `json:"current_date"`

	// NewBrokenLinks are broken in the latest crawl only.
	NewBrokenLinks []model.BrokenLink `json:"new_broken_links"`

	// FixedBrokenLinks were broken in the earlier crawl only.
	FixedBrokenLinks []model.BrokenLink `json:"fixed_broken_links"`

	// NewFindings appear in the latest crawl only.
	NewFindings []model.Finding `json:"new_findings"`

	// ResolvedFindings appear in the earlier crawl only.
	ResolvedFindings []model.Finding `json:"resolved_findings"`

	// UnchangedCount is the number of broken links and findings present in both.
	UnchangedCount int `json:"unchanged_count"`

	// RiskChange describes the overall change in risk level.
	RiskChange RiskChange `json:"risk_change"`
}

// RiskChange describes the change in risk level between crawls.
type RiskChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// BrokenLinksDelta is the change in broken link count.
	BrokenLinksDelta int `json:"broken_links_delta"`

	// HighDelta is the change in high severity findings count.
	HighDelta int `json:"high_delta"`

	// MediumDelta is the change in medium severity findings count.
	MediumDelta int `json:"medium_delta"`

	// LowDelta is the change in low severity findings count.
	LowDelta int `json:"low_delta"`
}

// compareReports compares two crawls and generates a comparison result.
// Lists are kept in the order of the crawl they come from.
func compareReports(previous, current *model.ScanReport) *ComparisonResult {
	result := &ComparisonResult{
		Seed:             current.Seed,
		PreviousScan:     previous.Summary(),
		CurrentScan:      current.Summary(),
		PreviousDate:     previous.DateScanned,
		CurrentDate:      current.DateScanned,
		NewBrokenLinks:   []model.BrokenLink{},
		FixedBrokenLinks: []model.BrokenLink{},
		NewFindings:      []model.Finding{},
		ResolvedFindings: []model.Finding{},
	}

	prevLinks := brokenLinkSet(previous)
	currLinks := brokenLinkSet(current)
	for _, l := range linksOf(current) {
		if !prevLinks[l.URL] {
			result.NewBrokenLinks = append(result.NewBrokenLinks, l)
		}
	}
	for _, l := range linksOf(previous) {
		if currLinks[l.URL] {
			result.UnchangedCount++
		} else {
			result.FixedBrokenLinks = append(result.FixedBrokenLinks, l)
		}
	}

	prevFindings := findingSet(previous)
	currFindings := findingSet(current)
	for _, f := range findingsOf(current) {
		if !prevFindings[findingKey(f)] {
			result.NewFindings = append(result.NewFindings, f)
		}
	}
	for _, f := range findingsOf(previous) {
		if currFindings[findingKey(f)] {
			result.UnchangedCount++
		} else {
			result.ResolvedFindings = append(result.ResolvedFindings, f)
		}
	}

	result.RiskChange = calculateRiskChange(result.PreviousScan, result.CurrentScan)
	return result
}

func linksOf(r *model.ScanReport) []model.BrokenLink {
	if r.Result == nil {
		return nil
	}
	return r.Result.BrokenLinks
}

func findingsOf(r *model.ScanReport) []model.Finding {
	if r.Result == nil {
		return nil
	}
	return r.Result.SensitiveInfo
}

// brokenLinkSet keys broken links by URL: a link that stays broken with a
// different status is not news.
func brokenLinkSet(r *model.ScanReport) map[string]bool {
	set := make(map[string]bool)
	for _, l := range linksOf(r) {
		set[l.URL] = true
	}
	return set
}

func findingSet(r *model.ScanReport) map[string]bool {
	set := make(map[string]bool)
	for _, f := range findingsOf(r) {
		set[findingKey(f)] = true
	}
	return set
}

// findingKey generates a unique key for a finding for comparison purposes.
func findingKey(f model.Finding) string {
	return string(f.Category) + "|" + f.Finding + "|" + f.URL + "|" + f.Line
}

// calculateRiskChange calculates the change in risk between two crawls.
func calculateRiskChange(previous, current model.Summary) RiskChange {
	change := RiskChange{
		BrokenLinksDelta: current.BrokenLinks - previous.BrokenLinks,
		HighDelta:        current.High - previous.High,
		MediumDelta:      current.Medium - previous.Medium,
		LowDelta:         current.Low - previous.Low,
	}

	// High severity changes weigh the most; a broken link counts like a Medium finding.
	score := func(s model.Summary) int {
		return s.High*50 + s.Medium*10 + s.BrokenLinks*10 + s.Low*5
	}

	switch previousScore, currentScore := score(previous), score(current); {
	case currentScore < previousScore:
		change.Direction = riskDirectionImproved
	case currentScore > previousScore:
		change.Direction = riskDirectionWorsened
	default:
		change.Direction = riskDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(w io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(w io.Writer, result *ComparisonResult) {
	fmt.Fprintf(w, "# Crawl Comparison: %s\n\n", result.Seed)

	fmt.Fprintln(w, "## Summary")
	fmt.Fprintf(w, "\n**Risk Status:** %s\n\n", formatRiskDirection(result.RiskChange.Direction))

	fmt.Fprintln(w, "| Metric | Previous | Current | Change |")
	fmt.Fprintln(w, "|--------|----------|---------|--------|")
	fmt.Fprintf(w, "| Date | %s | %s | - |\n",
		result.PreviousDate.Local().Format("2006-01-02 15:04"),
		result.CurrentDate.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "| Pages | %d | %d | %s |\n",
		result.PreviousScan.PagesCrawled, result.CurrentScan.PagesCrawled,
		formatDelta(result.CurrentScan.PagesCrawled-result.PreviousScan.PagesCrawled))
	fmt.Fprintf(w, "| Broken Links | %d | %d | %s |\n",
		result.PreviousScan.BrokenLinks, result.CurrentScan.BrokenLinks,
		formatDelta(result.RiskChange.BrokenLinksDelta))
	fmt.Fprintf(w, "| High | %d | %d | %s |\n",
		result.PreviousScan.High, result.CurrentScan.High,
		formatDelta(result.RiskChange.HighDelta))
	fmt.Fprintf(w, "| Medium | %d | %d | %s |\n",
		result.PreviousScan.Medium, result.CurrentScan.Medium,
		formatDelta(result.RiskChange.MediumDelta))
	fmt.Fprintf(w, "| Low | %d | %d | %s |\n",
		result.PreviousScan.Low, result.CurrentScan.Low,
		formatDelta(result.RiskChange.LowDelta))

	if len(result.NewBrokenLinks) > 0 {
		fmt.Fprintf(w, "\n## New Broken Links (%d)\n\n", len(result.NewBrokenLinks))
		for _, l := range result.NewBrokenLinks {
			fmt.Fprintf(w, "- **[%d]** %s (%s)\n", l.Status, l.URL, l.SourceText)
		}
	}
	if len(result.FixedBrokenLinks) > 0 {
		fmt.Fprintf(w, "\n## Fixed Broken Links (%d)\n\n", len(result.FixedBrokenLinks))
		for _, l := range result.FixedBrokenLinks {
			fmt.Fprintf(w, "- ~~**[%d]** %s~~\n", l.Status, l.URL)
		}
	}
	if len(result.NewFindings) > 0 {
		fmt.Fprintf(w, "\n## New Findings (%d)\n\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Fprintf(w, "- **[%s]** %s: %s\n", f.Severity, f.Category, f.Finding)
			fmt.Fprintf(w, "  - Location: `%s`\n", f.URL)
		}
	}
	if len(result.ResolvedFindings) > 0 {
		fmt.Fprintf(w, "\n## Resolved Findings (%d)\n\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Fprintf(w, "- ~~**[%s]** %s: %s~~\n", f.Severity, f.Category, f.Finding)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(w, "\n---\n\n*%d issues unchanged*\n", result.UnchangedCount)
	}
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(w io.Writer, result *ComparisonResult) {
	fmt.Fprintf(w, "Crawl Comparison: %s\n", result.Seed)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintf(w, "\nRisk Status: %s\n", formatRiskDirection(result.RiskChange.Direction))

	fmt.Fprintf(w, "\nPrevious crawl: %s\n", result.PreviousDate.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Current crawl:  %s\n", result.CurrentDate.Local().Format("2006-01-02 15:04:05"))

	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintf(w, "  %-14s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 49))
	rows := []struct {
		name       string
		prev, curr int
	}{
		{"Broken Links", result.PreviousScan.BrokenLinks, result.CurrentScan.BrokenLinks},
		{"High", result.PreviousScan.High, result.CurrentScan.High},
		{"Medium", result.PreviousScan.Medium, result.CurrentScan.Medium},
		{"Low", result.PreviousScan.Low, result.CurrentScan.Low},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "  %-14s  %-10d  %-10d  %-10s\n", row.name, row.prev, row.curr, formatDelta(row.curr-row.prev))
	}

	if len(result.NewBrokenLinks) > 0 {
		fmt.Fprintf(w, "\nNew Broken Links (%d):\n", len(result.NewBrokenLinks))
		for _, l := range result.NewBrokenLinks {
			fmt.Fprintf(w, "  [+] [%d] %s\n", l.Status, l.URL)
			fmt.Fprintf(w, "      %s\n", l.SourceText)
		}
	}
	if len(result.FixedBrokenLinks) > 0 {
		fmt.Fprintf(w, "\nFixed Broken Links (%d):\n", len(result.FixedBrokenLinks))
		for _, l := range result.FixedBrokenLinks {
			fmt.Fprintf(w, "  [-] [%d] %s\n", l.Status, l.URL)
		}
	}
	if len(result.NewFindings) > 0 {
		fmt.Fprintf(w, "\nNew Findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Fprintf(w, "  [+] [%s] %s: %s\n", f.Severity, f.Category, f.Finding)
			fmt.Fprintf(w, "      Location: %s\n", f.URL)
		}
	}
	if len(result.ResolvedFindings) > 0 {
		fmt.Fprintf(w, "\nResolved Findings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Fprintf(w, "  [-] [%s] %s: %s\n", f.Severity, f.Category, f.Finding)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(w, "\nUnchanged: %d issues\n", result.UnchangedCount)
	}
}

// formatRiskDirection formats the risk change direction for display.
func formatRiskDirection(direction string) string {
	switch direction {
	case riskDirectionImproved:
		return "IMPROVED (risk decreased)"
	case riskDirectionWorsened:
		return "WORSENED (risk increased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
