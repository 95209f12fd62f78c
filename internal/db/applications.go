package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/types"
)

// applicationSelect joins the candidate so notifications have a name and address.
const applicationSelect = `SELECT a.id, a.job_id, a.user_id, a.cgpa, a.skills, a.resume, a.resume_public_id,
	a.cover_letter, a.status, a.applied_at, a.updated_at, u.name, u.email
	FROM applications a JOIN users u ON u.id = a.user_id`

func scanApplication(row interface{ Scan(...any) error }) (*types.Application, error) {
	var (
		app    types.Application
		skills StringArray
		status string
	)
	if err := row.Scan(&app.ID, &app.JobID, &app.UserID, &app.CGPA, &skills, &app.Resume, &app.ResumeID,
		&app.CoverLetter, &status, &app.AppliedAt, &app.UpdatedAt, &app.CandidateName, &app.CandidateEmail); err != nil {
		return nil, err
	}
	st, err := types.ParseApplicationStatus(status)
	if err != nil {
		return nil, err
	}
	app.Status = st
	app.Skills = skills
	return &app, nil
}

func (db *DB) queryApplications(ctx context.Context, query string, args ...any) ([]types.Application, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []types.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

// CreateApplication inserts an application in the applied state and sets
// its ID and timestamps.
func (db *DB) CreateApplication(ctx context.Context, app *types.Application) error {
	app.Status = types.ApplicationApplied
	err := db.pool.QueryRow(ctx,
		`INSERT INTO applications (job_id, user_id, cgpa, skills, resume, resume_public_id, cover_letter, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, applied_at, updated_at`,
		app.JobID, app.UserID, app.CGPA, StringArray(app.Skills), app.Resume, app.ResumeID, app.CoverLetter, app.Status,
	).Scan(&app.ID, &app.AppliedAt, &app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// GetApplication retrieves an application with its candidate's name and email.
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	app, err := scanApplication(db.pool.QueryRow(ctx, applicationSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// ListApplicationsByStatus returns a job's applications in status, oldest
// submission first. Ranking relies on this order to break ties.
func (db *DB) ListApplicationsByStatus(ctx context.Context, jobID uuid.UUID, status types.ApplicationStatus) ([]types.Application, error) {
	return db.queryApplications(ctx,
		applicationSelect+` WHERE a.job_id = $1 AND a.status = $2 ORDER BY a.applied_at ASC, a.id ASC`,
		jobID, status)
}

// ListApplications returns every application for a job, oldest first.
func (db *DB) ListApplications(ctx context.Context, jobID uuid.UUID) ([]types.Application, error) {
	return db.queryApplications(ctx,
		applicationSelect+` WHERE a.job_id = $1 ORDER BY a.applied_at ASC, a.id ASC`, jobID)
}

// ListApplicationsMissingResumeID returns applications that have a submitted
// resume but no resolved storage id.
func (db *DB) ListApplicationsMissingResumeID(ctx context.Context) ([]types.Application, error) {
	return db.queryApplications(ctx,
		applicationSelect+` WHERE (a.resume_public_id IS NULL OR a.resume_public_id = '')
		AND a.resume IS NOT NULL AND a.resume <> '' ORDER BY a.applied_at ASC`)
}

// UpdateApplicationStatus sets an application's status. The write is a
// single-row update; transition rules are enforced by callers.
func (db *DB) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status types.ApplicationStatus) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE applications SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %s", id)
	}
	return nil
}

// SetApplicationResumeID stores the resolved storage id of the resume.
func (db *DB) SetApplicationResumeID(ctx context.Context, id uuid.UUID, resumeID string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE applications SET resume_public_id = $1, updated_at = NOW() WHERE id = $2`,
		resumeID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set resume id: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %s", id)
	}
	return nil
}

// CountApplicationsByStatus tallies a job's applications per status, with
// every status present.
func (db *DB) CountApplicationsByStatus(ctx context.Context, jobID uuid.UUID) (types.StatusCounts, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM applications WHERE job_id = $1 GROUP BY status`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}
	defer rows.Close()

	counts := types.CountStatuses(nil)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		st, err := types.ParseApplicationStatus(status)
		if err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, rows.Err()
}
