package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/types"
)

const jobColumns = `id, title, company, skills, number_of_openings, shortlist_multiplier,
	assessment_config, posted_by, status, posted_at, deadline`

func scanJob(row interface{ Scan(...any) error }) (*types.Job, error) {
	var (
		job    types.Job
		skills StringArray
		config []byte
	)
	if err := row.Scan(&job.ID, &job.Title, &job.Company, &skills, &job.NumberOfOpenings,
		&job.ShortlistMultiplier, &config, &job.PostedBy, &job.Status, &job.PostedAt, &job.Deadline); err != nil {
		return nil, err
	}
	job.Skills = skills
	if len(config) > 0 {
		job.AssessmentConfig = &types.AssessmentConfig{}
		if err := unmarshalJSONB(config, job.AssessmentConfig); err != nil {
			return nil, fmt.Errorf("failed to decode assessment config: %w", err)
		}
	}
	return &job, nil
}

// CreateJob inserts a job posting and sets its ID and PostedAt.
func (db *DB) CreateJob(ctx context.Context, job *types.Job) error {
	config, err := marshalJSONB(job.AssessmentConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment config: %w", err)
	}
	status := job.Status
	if status == "" {
		status = "open"
	}
	err = db.pool.QueryRow(ctx,
		`INSERT INTO jobs (title, company, skills, number_of_openings, shortlist_multiplier,
		                   assessment_config, posted_by, status, deadline)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, posted_at`,
		job.Title, job.Company, StringArray(job.Skills), job.NumberOfOpenings, job.ShortlistMultiplier,
		config, job.PostedBy, status, job.Deadline,
	).Scan(&job.ID, &job.PostedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	job.Status = status
	return nil
}

// GetJob retrieves a job by ID
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	job, err := scanJob(db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListJobsByRecruiter returns the recruiter's jobs, newest first.
func (db *DB) ListJobsByRecruiter(ctx context.Context, recruiterID uuid.UUID) ([]types.Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE posted_by = $1 ORDER BY posted_at DESC`, recruiterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// SetAssessmentConfig replaces a job's assessment settings. nil clears them.
func (db *DB) SetAssessmentConfig(ctx context.Context, jobID uuid.UUID, cfg *types.AssessmentConfig) error {
	config, err := marshalJSONB(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment config: %w", err)
	}
	result, err := db.pool.Exec(ctx, `UPDATE jobs SET assessment_config = $1 WHERE id = $2`, config, jobID)
	if err != nil {
		return fmt.Errorf("failed to update assessment config: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("job not found: %s", jobID)
	}
	return nil
}
