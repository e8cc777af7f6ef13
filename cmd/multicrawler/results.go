package main

import (
	"fmt"
	"time"

	"github.com/nao1215/multicrawler/internal/model"
	"github.com/spf13/cobra"
)

// NewResultsCmd creates the results command.
func NewResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Export every stored result",
		Long: `Results reads every result from the database and prints a report
covering all crawls stored so far.

Examples:
  # Human-readable listing
  multicrawler results -v

  # JSON export to a file
  multicrawler results --json -o results.json`,
		Args: cobra.NoArgs,
		RunE: runResultsCmd,
	}

	addReportFlags(cmd)

	return cmd
}

// runResultsCmd executes the results command.
func runResultsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := db.GetAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	return outputReport(cfg, cmd.OutOrStdout(), model.NewCrawlReport("", nil, results, time.Now()))
}
