package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewClearDBCmd creates the clear-db command.
func NewClearDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-db",
		Short: "Delete every stored result",
		Args:  cobra.NoArgs,
		RunE:  runClearDBCmd,
	}
}

// runClearDBCmd executes the clear-db command.
func runClearDBCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count results: %w", err)
	}
	if err := db.ClearAll(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d stored result(s) from %s\n", n, db.Path())
	return nil
}
