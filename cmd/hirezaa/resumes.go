package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonathan/hirezaa/internal/observability"
	"github.com/jonathan/hirezaa/internal/resume"
)

var resolveResumeCmd = &cobra.Command{
	Use:   "resolve-resume <reference>",
	Short: "Locate a resume file and print a signed download link",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolveResume,
}

var backfillResumesCmd = &cobra.Command{
	Use:   "backfill-resumes",
	Short: "Resolve and store the resume id of every application missing one",
	RunE:  runBackfillResumes,
}

func init() {
	rootCmd.AddCommand(resolveResumeCmd)
	rootCmd.AddCommand(backfillResumesCmd)
}

func runResolveResume(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Reject malformed references before connecting to storage
	if _, err := resume.ParseReference(args[0], cfg.Storage.ResumePrefix); err != nil {
		return err
	}

	ctx := context.Background()
	resolver, closeStore, err := openResolver(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	artifact, err := resolver.Resolve(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), artifact)
}

func runBackfillResumes(cmd *cobra.Command, _ []string) error {
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

	resolver, closeStore, err := openResolver(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	report, err := resume.Backfill(ctx, resolver, database)
	if err != nil {
		return err
	}
	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintBackfillReport(report)
	}
	return printJSON(cmd.OutOrStdout(), report)
}
