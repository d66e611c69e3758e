package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nadyarudie/Web-Crawler/internal/config"
	"github.com/nadyarudie/Web-Crawler/internal/database"
	"github.com/nadyarudie/Web-Crawler/internal/log"
	"github.com/nadyarudie/Web-Crawler/internal/pipeline"
	"github.com/nadyarudie/Web-Crawler/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve crawls over HTTP as an NDJSON stream",
		Long: `Serve starts an HTTP server for browser frontends and scripts.

Endpoints:
  POST /scan    body {"url": "https://example.com/"}; responds with
                application/x-ndjson progress events and one result event
  GET  /health  responds with {"status":"ok"}

Disconnecting from /scan cancels the crawl. Crawl flags and the
configuration file apply to every request.

Examples:
  # Listen on the default address
  arachne serve

  # Listen on all interfaces without archiving results
  arachne serve --addr :8080 --no-save

  # Stream a crawl with curl
  curl -N -d '{"url":"https://example.com/"}' http://127.0.0.1:5000/scan`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addCrawlFlags(cmd)
	cmd.Flags().String("addr", config.DefaultServeAddr,
		"Listen address of the HTTP server")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.ServeAddr, err = cmd.Flags().GetString("addr"); err != nil {
		return err
	}

	if err := cfg.ValidateCrawl(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose,
		log.WithSensitiveKeywords(cfg.SensitiveKeywords...))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServe(ctx, cfg, logger)
}

// runServe serves until ctx is done.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
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

	srv := server.New(cfg, pipeline.NewServices(cfg, archive, logger), server.WithLogger(logger))
	return srv.ListenAndServe(ctx, cfg.ServeAddr)
}
