package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/multicrawler/internal/api"
	"github.com/nao1215/multicrawler/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the crawl control API",
		Long: `Serve starts the HTTP control API. Crawls are started, paused, resumed
and terminated through it, and their progress and results can be polled.

Routes:
  POST /api/start       {"seedUrl","maxDepth","threads","delay","userAgent","filter","timeout"}
  POST /api/stop        pause the running crawl
  POST /api/resume      resume a paused crawl
  POST /api/terminate   hard-stop the crawl
  POST /api/clear-db    delete every stored result
  GET  /api/status      progress snapshot
  GET  /api/results     results of the current crawl
  GET  /api/db-results  every stored result
  GET  /api/stats       aggregate statistics
  GET  /health          liveness probe

Fields a start request omits fall back to the crawl defaults from the
configuration file.

Examples:
  # Listen on the default address (:4567)
  multicrawler serve

  # Listen on another port, without persisting results
  multicrawler serve --listen :8080 --no-db`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress,
		"Address of the control API (the PORT environment variable also sets the port)")
	cmd.Flags().Bool("no-db", false,
		"Keep results in memory only")
	cmd.Flags().String("proxy", "",
		"Route every fetch through a SOCKS5 proxy (host:port)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if isChanged(cmd, "listen") {
		cfg.ListenAddress = flagString(cmd, "listen")
	}
	if isChanged(cmd, "proxy") {
		cfg.ProxyAddress = flagString(cmd, "proxy")
	}
	if cfg.DisableDB, err = cmd.Flags().GetBool("no-db"); err != nil {
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

	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddress, err)
	}

	return serve(ctx, cfg, listener, logger)
}

// serve runs the control API on listener until ctx is cancelled, then
// terminates any crawl and shuts the server down.
func serve(ctx context.Context, cfg *config.Config, listener net.Listener, logger *slog.Logger) error {
	var opts []api.Option
	db, err := openStore(cfg)
	switch {
	case err == nil:
		defer db.Close()
		opts = append(opts, api.WithStatsSource(db))
		logger.Info("database opened", "path", db.Path())
	case errors.Is(err, errNoStore):
		logger.Info("result database disabled, keeping results in memory")
	default:
		listener.Close()
		return err
	}

	orch, err := newOrchestrator(cfg, db, logger)
	if err != nil {
		listener.Close()
		return err
	}

	handler := api.NewServer(orch, append(opts,
		api.WithLogger(logger),
		api.WithRequestDefaults(cfg.CrawlRequest("")),
	)...)
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("control API listening",
			"address", listener.Addr().String(),
			"dashboard", "http://"+listener.Addr().String()+"/",
		)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("control API failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		orch.Terminate()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
