package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/types"
)

// assessmentRow holds the JSONB document columns of an assessments row.
type assessmentRow struct {
	Questions      []byte
	Responses      []byte
	Score          []byte
	Weights        []byte
	CheatingEvents []byte
}

func encodeAssessment(a *types.Assessment) (*assessmentRow, error) {
	var (
		r   assessmentRow
		err error
	)
	if r.Questions, err = marshalJSONB(a.Questions); err != nil {
		return nil, fmt.Errorf("failed to marshal questions: %w", err)
	}
	if r.Responses, err = marshalJSONB(a.Responses); err != nil {
		return nil, fmt.Errorf("failed to marshal responses: %w", err)
	}
	if r.Score, err = marshalJSONB(a.Score); err != nil {
		return nil, fmt.Errorf("failed to marshal score: %w", err)
	}
	if r.Weights, err = marshalJSONB(a.Weights); err != nil {
		return nil, fmt.Errorf("failed to marshal weights: %w", err)
	}
	events := a.CheatingEvents
	if events == nil {
		events = []types.CheatingEvent{}
	}
	if r.CheatingEvents, err = marshalJSONB(events); err != nil {
		return nil, fmt.Errorf("failed to marshal cheating events: %w", err)
	}
	return &r, nil
}

func (r *assessmentRow) decode(a *types.Assessment) error {
	if err := unmarshalJSONB(r.Questions, &a.Questions); err != nil {
		return fmt.Errorf("failed to decode questions: %w", err)
	}
	if err := unmarshalJSONB(r.Responses, &a.Responses); err != nil {
		return fmt.Errorf("failed to decode responses: %w", err)
	}
	if err := unmarshalJSONB(r.Score, &a.Score); err != nil {
		return fmt.Errorf("failed to decode score: %w", err)
	}
	if len(r.Weights) > 0 {
		a.Weights = &types.SectionWeights{}
		if err := unmarshalJSONB(r.Weights, a.Weights); err != nil {
			return fmt.Errorf("failed to decode weights: %w", err)
		}
	}
	if err := unmarshalJSONB(r.CheatingEvents, &a.CheatingEvents); err != nil {
		return fmt.Errorf("failed to decode cheating events: %w", err)
	}
	if a.CheatingEvents == nil {
		a.CheatingEvents = []types.CheatingEvent{}
	}
	return nil
}

// AssessmentSummary is the recruiter-facing slice of an assessment.
type AssessmentSummary struct {
	ID            uuid.UUID              `json:"id"`
	ApplicationID uuid.UUID              `json:"application_id"`
	Status        types.AssessmentStatus `json:"status"`
	Score         types.Score            `json:"score"`
	ExpiresAt     time.Time              `json:"expires_at"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
}
