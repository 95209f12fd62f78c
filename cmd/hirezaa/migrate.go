package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
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

	ran, err := database.Migrate(ctx)
	if err != nil {
		return err
	}
	if len(ran) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
		return nil
	}
	for _, name := range ran {
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", name)
	}
	return nil
}
