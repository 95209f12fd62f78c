package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/hirezaa/internal/app"
	"github.com/jonathan/hirezaa/internal/dispatch"
	"github.com/jonathan/hirezaa/internal/observability"
	"github.com/jonathan/hirezaa/internal/types"
)

var (
	shortlistJobID         string
	shortlistRecruiterID   string
	shortlistApplicationID string
	shortlistPreview       bool
)

var shortlistCmd = &cobra.Command{
	Use:   "shortlist",
	Short: "Send assessments to a job's top applicants",
	Long: `Rank a job's applied candidates by CGPA and send an assessment to each of the
top ceil(openings x multiplier). With --application only that application is
shortlisted. With --preview nothing is sent.`,
	RunE: runShortlist,
}

func init() {
	shortlistCmd.Flags().StringVar(&shortlistJobID, "job", "", "Job ID (required unless --application is set)")
	shortlistCmd.Flags().StringVar(&shortlistRecruiterID, "recruiter", "", "ID of the recruiter acting on the job (required)")
	shortlistCmd.Flags().StringVar(&shortlistApplicationID, "application", "", "Shortlist a single application")
	shortlistCmd.Flags().BoolVar(&shortlistPreview, "preview", false, "List the candidates that would be shortlisted")
	_ = shortlistCmd.MarkFlagRequired("recruiter")
	shortlistCmd.MarkFlagsMutuallyExclusive("application", "preview")

	rootCmd.AddCommand(shortlistCmd)
}

func runShortlist(cmd *cobra.Command, _ []string) error {
	if shortlistJobID == "" && shortlistApplicationID == "" {
		return fmt.Errorf("either --job or --application is required")
	}
	recruiterID, err := parseIDFlag("recruiter", shortlistRecruiterID)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.DB.GetUser(ctx, recruiterID)
	if err != nil {
		return fmt.Errorf("failed to load recruiter: %w", err)
	}
	if user == nil || (user.Role != types.RoleRecruiter && user.Role != types.RoleAdmin) {
		return fmt.Errorf("user %s is not a recruiter", recruiterID)
	}
	actor := dispatch.Actor{UserID: user.ID, Role: user.Role}
	out := cmd.OutOrStdout()

	if shortlistApplicationID != "" {
		appID, err := parseIDFlag("application", shortlistApplicationID)
		if err != nil {
			return err
		}
		outcome, err := a.Dispatcher.ShortlistOne(ctx, appID, actor)
		if outcome != nil {
			if perr := printJSON(out, outcome); perr != nil {
				return perr
			}
		}
		return err
	}

	jobID, err := parseIDFlag("job", shortlistJobID)
	if err != nil {
		return err
	}
	if shortlistPreview {
		candidates, err := a.Dispatcher.Preview(ctx, jobID, actor)
		if err != nil {
			return err
		}
		if verbose {
			job, err := a.DB.GetJob(ctx, jobID)
			if err == nil && job != nil {
				observability.NewPrinter(cmd.ErrOrStderr()).PrintShortlistPreview(job.ShortlistTargetCount(), candidates)
			}
		}
		return printJSON(out, candidates)
	}

	result, err := a.Dispatcher.ShortlistBulk(ctx, jobID, actor)
	if err != nil {
		return err
	}
	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintBatchResult(result)
	}
	if err := printJSON(out, result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d candidates failed", result.Failed, result.Attempted)
	}
	return nil
}
