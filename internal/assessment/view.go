package assessment

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/types"
)

// CandidateMCQ is an MCQ question without its answer key.
type CandidateMCQ struct {
	ID         string           `json:"id"`
	Question   string           `json:"question"`
	Options    []string         `json:"options"`
	Topic      string           `json:"topic"`
	Difficulty types.Difficulty `json:"difficulty"`
}

// CandidateCoding is a coding question with only its visible test cases.
type CandidateCoding struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Examples    []types.Example  `json:"examples"`
	Constraints []string         `json:"constraints"`
	TestCases   []types.TestCase `json:"testCases"`
	Topic       string           `json:"topic"`
	Difficulty  types.Difficulty `json:"difficulty"`
}

// CandidateSQL is a SQL question without its reference query.
type CandidateSQL struct {
	ID         string           `json:"id"`
	Question   string           `json:"question"`
	Schema     string           `json:"schema"`
	Topic      string           `json:"topic"`
	Difficulty types.Difficulty `json:"difficulty"`
}

// CandidateAssessment is what the assessment runner shows a candidate.
type CandidateAssessment struct {
	ID               uuid.UUID              `json:"id"`
	JobID            uuid.UUID              `json:"jobId"`
	Status           types.AssessmentStatus `json:"status"`
	MCQ              []CandidateMCQ         `json:"mcq"`
	Coding           []CandidateCoding      `json:"coding"`
	SQL              []CandidateSQL         `json:"sql"`
	Answered         []string               `json:"answered"`
	TimeLimitMinutes int                    `json:"timeLimit,omitempty"`
	StartedAt        *time.Time             `json:"startedAt,omitempty"`
	ExpiresAt        time.Time              `json:"expiresAt"`
}

// NewCandidateView strips answer keys, reference queries and hidden test
// cases from a.
func NewCandidateView(a *types.Assessment) *CandidateAssessment {
	v := &CandidateAssessment{
		ID:               a.ID,
		JobID:            a.JobID,
		Status:           a.Status,
		MCQ:              make([]CandidateMCQ, 0, len(a.Questions.MCQ)),
		Coding:           make([]CandidateCoding, 0, len(a.Questions.Coding)),
		SQL:              make([]CandidateSQL, 0, len(a.Questions.SQL)),
		Answered:         []string{},
		TimeLimitMinutes: a.TimeLimitMinutes,
		StartedAt:        a.StartedAt,
		ExpiresAt:        a.ExpiresAt,
	}

	for _, q := range a.Questions.MCQ {
		v.MCQ = append(v.MCQ, CandidateMCQ{
			ID:         q.ID,
			Question:   q.Question,
			Options:    q.Options,
			Topic:      q.Topic,
			Difficulty: q.Difficulty,
		})
	}
	for _, q := range a.Questions.Coding {
		visible := make([]types.TestCase, 0, len(q.TestCases))
		for _, tc := range q.TestCases {
			if !tc.IsHidden {
				visible = append(visible, tc)
			}
		}
		v.Coding = append(v.Coding, CandidateCoding{
			ID:          q.ID,
			Title:       q.Title,
			Description: q.Description,
			Examples:    q.Examples,
			Constraints: q.Constraints,
			TestCases:   visible,
			Topic:       q.Topic,
			Difficulty:  q.Difficulty,
		})
	}
	for _, q := range a.Questions.SQL {
		v.SQL = append(v.SQL, CandidateSQL{
			ID:         q.ID,
			Question:   q.Question,
			Schema:     q.Schema,
			Topic:      q.Topic,
			Difficulty: q.Difficulty,
		})
	}

	for _, r := range a.Responses.MCQ {
		v.Answered = append(v.Answered, r.QuestionID)
	}
	for _, r := range a.Responses.Coding {
		v.Answered = append(v.Answered, r.QuestionID)
	}
	for _, r := range a.Responses.SQL {
		v.Answered = append(v.Answered, r.QuestionID)
	}
	return v
}
