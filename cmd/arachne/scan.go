package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/nadyarudie/Web-Crawler/internal/config"
	"github.com/nadyarudie/Web-Crawler/internal/crawler"
	"github.com/nadyarudie/Web-Crawler/internal/database"
	"github.com/nadyarudie/Web-Crawler/internal/log"
	"github.com/nadyarudie/Web-Crawler/internal/model"
	"github.com/nadyarudie/Web-Crawler/internal/pipeline"
	"github.com/nadyarudie/Web-Crawler/internal/report"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url]...",
		Short: "Crawl a website and report broken links and sensitive information",
		Long: `Scan crawls each seed URL, visiting only pages on the seed's host, and checks
every discovered link for liveness, including links to other hosts.

Each visited page is scanned for:
- Email addresses (Medium)
- Dangerous keywords such as password or api_key (High)
- Developer comments such as TODO or FIXME (Low)

Examples:
  # Scan a single site
  arachne scan https://example.com/

  # Scan several sites, two at a time
  arachne scan -b 2 https://example.com/ https://example.org/

  # Stream raw progress and result events as NDJSON
  arachne scan --ndjson https://example.com/

  # Write a Markdown report and CSV exports
  arachne scan -m -o report.md --csv-dir exports https://example.com/

  # Use a custom configuration file
  arachne scan -c myconfig.yaml https://example.com/

Configuration file (.arachne) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      maxPages: 200
      ignorePatterns:
        - "/logout"`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	addCrawlFlags(cmd)

	// Batch scanning flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of seeds crawled concurrently")

	// Report flags
	cmd.Flags().Bool("ndjson", false,
		"Stream raw progress and result events as NDJSON instead of a report")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown and --ndjson)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json and --ndjson)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the specified file (creates directories if needed); the text report is still printed")
	cmd.Flags().String("csv-dir", "",
		"Write broken_links.csv and sensitive_info.csv per seed below this directory")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrNoTarget) {
			return errNoSeeds
		}
		return fmt.Errorf("configuration error: %w", err)
	}

	// Seeds are checked up front so a typo fails before any crawl starts.
	for _, seed := range cfg.Targets {
		if !crawler.IsValidURL(seed) {
			return fmt.Errorf("%w: %q", crawler.ErrInvalidURL, seed)
		}
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose,
		log.WithSensitiveKeywords(cfg.SensitiveKeywords...))
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScan(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.NDJSON, err = flags.GetBool("ndjson"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.CSVDir, err = flags.GetString("csv-dir"); err != nil {
		return nil, err
	}

	cfg.Targets = args
	return cfg, nil
}

// runScan crawls every target and writes the requested output.
// Progress lines go to stderr; reports or NDJSON go to stdout or the
// report file.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	logger.Info("starting scan",
		"targets", cfg.Targets,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var archive pipeline.Archive
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		archive = db
		logger.Info("database opened", "path", db.Path())
	}

	output, closeOutput, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeOutput()

	services := pipeline.NewServices(cfg, archive, logger)

	var (
		emitFor   func(seed string) crawler.EmitFunc
		writer    report.Writer
		batchSize = cfg.BatchSize
	)
	if cfg.NDJSON {
		stream := report.NewNDJSONWriter(output)
		emitFor = func(string) crawler.EmitFunc { return stream.Emit }
		// One seed at a time keeps each seed's events contiguous in the stream.
		batchSize = 1
	} else {
		emitFor = func(seed string) crawler.EmitFunc { return progressPrinter(stderr, seed, len(cfg.Targets) > 1) }
		writer = newReportWriter(cfg, output, stdout)
	}

	bp := pipeline.NewBatchProcessor(
		func(seed string) *pipeline.Pipeline {
			opts := append(pipeline.ConfigOptions(cfg, seed), pipeline.WithPipelineEmit(emitFor(seed)))
			if cfg.CSVDir != "" {
				opts = append(opts, pipeline.WithPipelineCSVDir(cfg.CSVDir))
			}
			return pipeline.DefaultPipeline(services,
				[]pipeline.Option{pipeline.WithContinueOnError(true)}, opts...)
		},
		pipeline.WithConcurrency(batchSize),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()

	var mu sync.Mutex
	err = bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(rep *model.ScanReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		if len(cfg.Targets) > 1 {
			fmt.Fprintf(stderr, "[%d/%d] Crawl finished: %s\n", index+1, len(cfg.Targets), rep.Seed)
		}
		if rep.Error != "" {
			fmt.Fprintf(stderr, "Crawl error for %s: %s\n", rep.Seed, rep.Error)
		}
		if writer == nil {
			return
		}
		if _, err := writer.Write(rep); err != nil {
			logger.Error("report failed", "seed", rep.Seed, "error", err)
		}
	})

	fmt.Fprintf(stderr, "Finished in %s\n", time.Since(startTime).Round(time.Millisecond))

	if err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("scan interrupted: %w", ctx.Err())
	}
	return nil
}

// newReportWriter selects the report format. When the report goes to a file,
// the text report is still printed to stdout.
func newReportWriter(cfg *config.Config, output, stdout io.Writer) report.Writer {
	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
	if cfg.ReportFile == "" {
		return w
	}
	return report.NewMultiWriter(w, report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose)))
}

// progressPrinter renders progress events as human-readable lines.
// The result event is left to the report writer.
func progressPrinter(w io.Writer, seed string, showSeed bool) crawler.EmitFunc {
	return func(e model.Event) error {
		if e.Type != model.EventProgress {
			return nil
		}
		if showSeed {
			fmt.Fprintf(w, "[%3d%%] %s (%s)\n", e.Progress.Progress, e.Progress.CrawledURL, seed)
			return nil
		}
		fmt.Fprintf(w, "[%3d%%] %s\n", e.Progress.Progress, e.Progress.CrawledURL)
		return nil
	}
}

// openOutput returns the report destination: path when set, else stdout.
func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	// Create directories if they don't exist
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports may contain sensitive information that should only be readable by the owner
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
