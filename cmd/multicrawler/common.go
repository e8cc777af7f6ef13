package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/multicrawler/internal/config"
	"github.com/nao1215/multicrawler/internal/crawler"
	"github.com/nao1215/multicrawler/internal/database"
	applog "github.com/nao1215/multicrawler/internal/log"
	"github.com/nao1215/multicrawler/internal/model"
	"github.com/nao1215/multicrawler/internal/report"
	"github.com/spf13/cobra"
)

// errNoStore is returned by commands that need the database when it is disabled.
var errNoStore = errors.New("the result database is disabled (--no-db)")

// loadConfig builds the effective configuration for cmd: defaults, the
// config file, the environment, then every flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, _, err := config.Load(flagString(cmd, "config"), os.Getenv)
	if err != nil {
		return nil, err
	}

	if isChanged(cmd, "verbose") {
		cfg.Verbose = flagString(cmd, "verbose") == "true"
	}
	if isChanged(cmd, "log-format") {
		cfg.LogFormat = flagString(cmd, "log-format")
	}
	if isChanged(cmd, "db-dir") {
		cfg.DBDir = flagString(cmd, "db-dir")
	}
	return cfg, nil
}

// isChanged reports whether the named local or inherited flag was set.
func isChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

// flagString returns the textual value of the named local or inherited flag.
func flagString(cmd *cobra.Command, name string) string {
	f := cmd.Flag(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

// setupLogger creates the sanitizing logger described by cfg.
func setupLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	format, err := applog.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return applog.NewLogger(w, format, cfg.Verbose), nil
}

// openStore opens the result database in cfg.DBDir.
func openStore(cfg *config.Config) (*database.CrawlDB, error) {
	if cfg.DisableDB {
		return nil, errNoStore
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// newOrchestrator wires a fetcher and an optional store into an orchestrator.
func newOrchestrator(cfg *config.Config, store *database.CrawlDB, logger *slog.Logger) (*crawler.Orchestrator, error) {
	var fetcherOpts []crawler.FetcherOption
	if cfg.ProxyAddress != "" {
		fetcherOpts = append(fetcherOpts, crawler.WithProxy(cfg.ProxyAddress))
	}
	fetcher, err := crawler.NewHTTPFetcher(fetcherOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	opts := []crawler.Option{
		crawler.WithLogger(logger),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
	}
	// A nil *CrawlDB must not become a non-nil ResultStore.
	if store != nil {
		opts = append(opts, crawler.WithStore(store))
	}
	return crawler.New(fetcher, opts...), nil
}

// addReportFlags registers the output flags shared by crawl and results.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// applyReportFlags copies the output flags onto cfg.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	return nil
}

// outputReport writes the report in the requested format to the report
// file or, when none is set, to stdout.
func outputReport(cfg *config.Config, stdout io.Writer, crawlReport *model.CrawlReport) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports list every crawled URL, so keep them owner-readable only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(crawlReport)
	return err
}

// shutdownTimeout bounds graceful shutdown of the control API.
const shutdownTimeout = 10 * time.Second
