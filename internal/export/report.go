package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/db"
	"github.com/jonathan/hirezaa/internal/types"
)

// ReportStore is what BuildReport reads.
type ReportStore interface {
	ListApplications(ctx context.Context, jobID uuid.UUID) ([]types.Application, error)
	ListAssessmentSummaries(ctx context.Context, jobID uuid.UUID) (map[uuid.UUID]db.AssessmentSummary, error)
}

// BuildReport gathers the applicants of job and their latest assessment.
// Scores are only carried for completed assessments.
func BuildReport(ctx context.Context, store ReportStore, job *types.Job) (*Report, error) {
	apps, err := store.ListApplications(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	summaries, err := store.ListAssessmentSummaries(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessment summaries: %w", err)
	}

	results := make(map[uuid.UUID]AssessmentResult, len(summaries))
	for appID, sum := range summaries {
		res := AssessmentResult{Status: sum.Status}
		if sum.Status == types.AssessmentCompleted {
			total := sum.Score.Total
			res.Score = &total
		}
		results[appID] = res
	}

	return &Report{
		Job:         job,
		Applicants:  apps,
		Results:     results,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
