package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for multicrawler.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "multicrawler",
		Short: "Multi-threaded web crawler with a control API",
		Long: `multicrawler fetches pages from a seed URL, follows links up to a depth
limit with a pool of workers, and records one result per fetched URL.

Run "multicrawler serve" to control crawls over HTTP, or
"multicrawler crawl <seed-url>" for a one-shot crawl from the terminal.
Results are stored in a SQLite database under the XDG data directory.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .multicrawler.yaml in current, XDG config or home directory)")
	cmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	cmd.PersistentFlags().String("db-dir", "", "Directory of the result database")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewResultsCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewClearDBCmd())
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
