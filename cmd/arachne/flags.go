package main

import (
	"errors"
	"fmt"

	"github.com/nadyarudie/Web-Crawler/internal/config"
	"github.com/spf13/cobra"
)

// addCrawlFlags registers the flags that shape a single crawl.
// They are shared by scan and serve.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per seed")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Fetch timeout for each page")
	cmd.Flags().Duration("link-timeout", config.DefaultLinkTimeout,
		"Timeout for each link liveness probe")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Pause after each visited page (0 disables)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Int("link-concurrency", config.DefaultLinkConcurrency,
		"Number of concurrent link probes per page")
	cmd.Flags().Int("max-links-per-page", 0,
		"Maximum number of links probed per page (0 probes every link)")
	cmd.Flags().Float64("link-rate", 0,
		"Maximum link probes per second across all crawls (0 is unlimited)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size read per page, in bytes")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .arachne in current or home directory)")

	// Result archive
	cmd.Flags().Bool("no-save", false,
		"Do not archive results for history comparison")
	cmd.Flags().String("db-dir", "",
		"Directory of the result archive (default: XDG data directory)")
}

// buildCrawlConfig creates a Config from the crawl flags and the
// configuration file. Explicit flags win over file settings.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly named a config file, a missing file is an error.
	// Otherwise an absent file just means no site settings.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	flags := cmd.Flags()
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.LinkTimeout, err = flags.GetDuration("link-timeout"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.LinkConcurrency, err = flags.GetInt("link-concurrency"); err != nil {
		return nil, err
	}
	if cfg.MaxLinkChecksPerPage, err = flags.GetInt("max-links-per-page"); err != nil {
		return nil, err
	}
	if cfg.LinkCheckRate, err = flags.GetFloat64("link-rate"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// errNoSeeds is returned when scan is run without arguments.
var errNoSeeds = errors.New("no seeds provided (specify one or more URLs as arguments)")
