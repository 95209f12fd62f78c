package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/hirezaa/internal/export"
)

var (
	exportJobID string
	exportOut   string
)

var exportApplicantsCmd = &cobra.Command{
	Use:   "export-applicants",
	Short: "Write a job's ranked applicants to an Excel workbook",
	RunE:  runExportApplicants,
}

func init() {
	exportApplicantsCmd.Flags().StringVar(&exportJobID, "job", "", "Job ID (required)")
	exportApplicantsCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path; .xlsx is added when missing (required)")
	_ = exportApplicantsCmd.MarkFlagRequired("job")
	_ = exportApplicantsCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(exportApplicantsCmd)
}

func runExportApplicants(cmd *cobra.Command, _ []string) error {
	jobID, err := parseIDFlag("job", exportJobID)
	if err != nil {
		return err
	}
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

	job, err := database.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}

	report, err := export.BuildReport(ctx, database, job)
	if err != nil {
		return err
	}
	path, err := export.SaveApplicants(exportOut, *report)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d applicant(s) to %s\n", len(report.Applicants), path)
	return nil
}
