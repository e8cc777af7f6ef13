package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/multicrawler/internal/config"
	"github.com/nao1215/multicrawler/internal/crawler"
	"github.com/nao1215/multicrawler/internal/model"
	"github.com/spf13/cobra"
)

// progressInterval is how often a running crawl logs its progress.
const progressInterval = 5 * time.Second

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url]",
		Short: "Crawl from a seed URL and print a report",
		Long: `Crawl runs one crawl from the seed URL to completion in the foreground,
stores every result in the database, and prints a report.

Press Ctrl-C to terminate the crawl early; the report then covers the
pages fetched so far.

Examples:
  # Crawl two levels deep with 8 workers
  multicrawler crawl -d 2 -n 8 https://example.com/

  # Only follow links inside the docs section, waiting 200ms per fetch
  multicrawler crawl --filter 'https://example\.com/docs/.*' --delay 200ms https://example.com/docs/

  # Write a Markdown report without touching the database
  multicrawler crawl --no-db -m -o report.md https://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link-following depth (0 fetches only the seed)")
	cmd.Flags().IntP("threads", "n", config.DefaultThreads,
		"Number of concurrent workers")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Pause before every fetch")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each fetch")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("filter", "",
		"Regular expression that discovered links must match in full")
	cmd.Flags().String("proxy", "",
		"Route every fetch through a SOCKS5 proxy (host:port)")
	cmd.Flags().Bool("no-db", false,
		"Do not store results in the database")
	addReportFlags(cmd)

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := setupLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	crawlReport, err := runCrawl(ctx, cfg, cfg.CrawlRequest(args[0]), logger)
	if err != nil {
		return err
	}
	return outputReport(cfg, cmd.OutOrStdout(), crawlReport)
}

// buildCrawlConfig layers the crawl flags on top of the loaded configuration.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("depth") {
		if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("threads") {
		if cfg.Threads, err = flags.GetInt("threads"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("delay") {
		if cfg.Delay, err = flags.GetDuration("delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = flagString(cmd, "user-agent")
	}
	if flags.Changed("filter") {
		cfg.Filter = flagString(cmd, "filter")
	}
	if flags.Changed("proxy") {
		cfg.ProxyAddress = flagString(cmd, "proxy")
	}
	if cfg.DisableDB, err = flags.GetBool("no-db"); err != nil {
		return nil, err
	}

	if err := applyReportFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runCrawl runs req to completion, or until ctx is cancelled, and returns
// the report of what was fetched.
func runCrawl(ctx context.Context, cfg *config.Config, req model.CrawlRequest, logger *slog.Logger) (*model.CrawlReport, error) {
	db, err := openStore(cfg)
	switch {
	case err == nil:
		defer db.Close()
	case errors.Is(err, errNoStore):
	default:
		return nil, err
	}

	orch, err := newOrchestrator(cfg, db, logger)
	if err != nil {
		return nil, err
	}
	if err := orch.Start(req); err != nil {
		return nil, fmt.Errorf("failed to start crawl: %w", err)
	}

	if err := waitWithProgress(ctx, orch, logger); err != nil {
		logger.Info("interrupted, terminating crawl")
		orch.Terminate()
	}

	status := orch.Status()
	results := orch.Results()
	logger.Info("crawl finished",
		"state", status.State,
		"pages", humanize.Comma(int64(len(results))),
		"duration", status.FormattedDuration(),
	)
	return model.NewCrawlReport(req.SeedURL, &status, results, time.Now()), nil
}

// waitWithProgress blocks until the crawl ends, logging progress periodically.
// It returns ctx's error if ctx ends first.
func waitWithProgress(ctx context.Context, orch *crawler.Orchestrator, logger *slog.Logger) error {
	done := make(chan error, 1)
	go func() {
		done <- orch.Wait(ctx)
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			s := orch.Status()
			logger.Info("crawl progress",
				"completed", s.CompletedTasks,
				"total", s.TotalTasks,
				"percent", s.ProgressPercentage(),
			)
		}
	}
}
