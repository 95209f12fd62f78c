package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/types"
)

const assessmentColumns = `id, job_id, user_id, application_id, questions, responses, score, weights,
	time_spent_seconds, time_limit_minutes, cheating_events, status, created_at, started_at,
	completed_at, expires_at`

func scanAssessment(row interface{ Scan(...any) error }) (*types.Assessment, error) {
	var (
		a           types.Assessment
		r           assessmentRow
		status      string
		startedAt   *time.Time
		completedAt *time.Time
	)
	if err := row.Scan(&a.ID, &a.JobID, &a.UserID, &a.ApplicationID, &r.Questions, &r.Responses, &r.Score,
		&r.Weights, &a.TimeSpentSeconds, &a.TimeLimitMinutes, &r.CheatingEvents, &status, &a.CreatedAt,
		&startedAt, &completedAt, &a.ExpiresAt); err != nil {
		return nil, err
	}
	if err := r.decode(&a); err != nil {
		return nil, err
	}
	st, err := types.ParseAssessmentStatus(status)
	if err != nil {
		return nil, err
	}
	a.Status = st
	a.StartedAt = startedAt
	a.CompletedAt = completedAt
	return &a, nil
}

// CreateAssessment inserts an assessment with its generated questions.
func (db *DB) CreateAssessment(ctx context.Context, a *types.Assessment) error {
	r, err := encodeAssessment(a)
	if err != nil {
		return err
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO assessments (id, job_id, user_id, application_id, questions, responses, score, weights,
		                          time_spent_seconds, time_limit_minutes, cheating_events, status,
		                          created_at, started_at, completed_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		a.ID, a.JobID, a.UserID, a.ApplicationID, r.Questions, r.Responses, r.Score, r.Weights,
		a.TimeSpentSeconds, a.TimeLimitMinutes, r.CheatingEvents, a.Status,
		a.CreatedAt, a.StartedAt, a.CompletedAt, a.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

// GetAssessment retrieves an assessment by ID
func (db *DB) GetAssessment(ctx context.Context, id uuid.UUID) (*types.Assessment, error) {
	a, err := scanAssessment(db.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return a, nil
}

// GetAssessmentByApplication retrieves the assessment for an application.
func (db *DB) GetAssessmentByApplication(ctx context.Context, applicationID uuid.UUID) (*types.Assessment, error) {
	a, err := scanAssessment(db.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE application_id = $1`, applicationID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assessment for application: %w", err)
	}
	return a, nil
}

// UpdateAssessment writes back the mutable parts of an assessment: responses,
// score, events, status and timestamps. Questions are never rewritten.
func (db *DB) UpdateAssessment(ctx context.Context, a *types.Assessment) error {
	r, err := encodeAssessment(a)
	if err != nil {
		return err
	}
	result, err := db.pool.Exec(ctx,
		`UPDATE assessments
		 SET responses = $1, score = $2, time_spent_seconds = $3, cheating_events = $4,
		     status = $5, started_at = $6, completed_at = $7
		 WHERE id = $8`,
		r.Responses, r.Score, a.TimeSpentSeconds, r.CheatingEvents, a.Status, a.StartedAt, a.CompletedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assessment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("assessment not found: %s", a.ID)
	}
	return nil
}

// ListOverdueAssessments returns pending or in-progress assessments whose
// deadline is before now.
func (db *DB) ListOverdueAssessments(ctx context.Context, now time.Time) ([]types.Assessment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+assessmentColumns+` FROM assessments
		 WHERE status IN ('pending', 'in_progress') AND expires_at < $1
		 ORDER BY expires_at ASC`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue assessments: %w", err)
	}
	defer rows.Close()

	var out []types.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ListAssessmentSummaries returns the newest assessment per application of a
// job, keyed by application ID.
func (db *DB) ListAssessmentSummaries(ctx context.Context, jobID uuid.UUID) (map[uuid.UUID]AssessmentSummary, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT ON (application_id) id, application_id, status, score, expires_at, completed_at
		 FROM assessments WHERE job_id = $1
		 ORDER BY application_id, created_at DESC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessment summaries: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]AssessmentSummary)
	for rows.Next() {
		var (
			s      AssessmentSummary
			status string
			score  []byte
		)
		if err := rows.Scan(&s.ID, &s.ApplicationID, &status, &score, &s.ExpiresAt, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assessment summary: %w", err)
		}
		st, err := types.ParseAssessmentStatus(status)
		if err != nil {
			return nil, err
		}
		s.Status = st
		if err := unmarshalJSONB(score, &s.Score); err != nil {
			return nil, fmt.Errorf("failed to decode score: %w", err)
		}
		out[s.ApplicationID] = s
	}
	return out, rows.Err()
}
