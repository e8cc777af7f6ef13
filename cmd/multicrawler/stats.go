package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics over the stored results",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output statistics as JSON")

	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.Statistics(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(stats)
	}

	fmt.Fprintf(out, "Total pages:   %s\n", humanize.Comma(int64(stats.TotalPages)))
	fmt.Fprintf(out, "Successful:    %s\n", humanize.Comma(int64(stats.SuccessCount)))
	fmt.Fprintf(out, "Average size:  %s\n", humanize.Bytes(uint64(max(stats.AverageSize, 0))))
	fmt.Fprintf(out, "Time span:     %dms\n", stats.TotalTime)
	return nil
}
