package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for arachne.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arachne",
		Short: "Same-site crawler that finds broken links and leaked information",
		Long: `arachne crawls a website starting from a seed URL, following only links on
the seed's host, and reports:
- Broken links (pages that fail to load, links that answer 4xx/5xx)
- Email addresses exposed in the markup
- Developer comments such as TODO and FIXME
- Dangerous keywords such as password, secret and api_key

Results can be printed, exported as JSON, Markdown or CSV, streamed as NDJSON,
served over HTTP, and archived for comparison between runs.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
