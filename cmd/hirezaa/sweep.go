package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/hirezaa/internal/assessment"
)

var sweepExpiredCmd = &cobra.Command{
	Use:   "sweep-expired",
	Short: "Mark overdue assessments as expired",
	Long:  "Persist the expired status on every pending or in-progress assessment past its deadline. Reads already treat such assessments as expired; this keeps stored data in step.",
	RunE:  runSweepExpired,
}

func init() {
	rootCmd.AddCommand(sweepExpiredCmd)
}

func runSweepExpired(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	database, err := connectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	n, err := assessment.NewManager(database).SweepExpired(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Expired %d assessment(s)\n", n)
	return nil
}
