package types

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultShortlistMultiplier applies when a job does not set one.
const DefaultShortlistMultiplier = 1.5

// Difficulty of a generated question
type Difficulty string

// Difficulty levels
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// SectionWeights optionally weights the three sections when computing the total score.
type SectionWeights struct {
	MCQ    float64 `json:"mcq" validate:"gte=0"`
	Coding float64 `json:"coding" validate:"gte=0"`
	SQL    float64 `json:"sql" validate:"gte=0"`
}

// AssessmentConfig describes the assessment sent to shortlisted candidates.
type AssessmentConfig struct {
	MCQCount         int             `json:"mcqCount" validate:"gte=0,lte=100"`
	CodingCount      int             `json:"codingCount" validate:"gte=0,lte=20"`
	SQLCount         int             `json:"sqlCount" validate:"gte=0,lte=20"`
	Topics           []string        `json:"topics" validate:"required,min=1,dive,required"`
	TimeLimitMinutes int             `json:"timeLimit" validate:"gte=0"`
	Difficulty       Difficulty      `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
	Weights          *SectionWeights `json:"weights,omitempty"`
}

// Validate validates the AssessmentConfig using the validator.
func (c *AssessmentConfig) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// Job is a recruiter's posting.
type Job struct {
	ID                  uuid.UUID         `json:"id"`
	Title               string            `json:"title" validate:"required"`
	Company             string            `json:"company"`
	Skills              []string          `json:"skills"`
	NumberOfOpenings    int               `json:"numberOfOpenings" validate:"gte=1"`
	ShortlistMultiplier float64           `json:"shortlistMultiplier" validate:"gte=1"`
	AssessmentConfig    *AssessmentConfig `json:"assessmentConfig,omitempty" validate:"omitempty"`
	PostedBy            uuid.UUID         `json:"postedBy"`
	Status              string            `json:"status"`
	PostedAt            time.Time         `json:"postedAt"`
	Deadline            *time.Time        `json:"deadline,omitempty"`
}

// ShortlistTargetCount is ceil(numberOfOpenings * shortlistMultiplier).
// Missing values fall back to one opening and the default multiplier.
func (j *Job) ShortlistTargetCount() int {
	openings := j.NumberOfOpenings
	if openings < 1 {
		openings = 1
	}
	multiplier := j.ShortlistMultiplier
	if multiplier <= 0 {
		multiplier = DefaultShortlistMultiplier
	}
	return ShortlistTarget(openings, multiplier)
}

// ShortlistTarget computes ceil(openings * multiplier).
func ShortlistTarget(openings int, multiplier float64) int {
	product := float64(openings) * multiplier
	// 10 * 1.1 is 11.000000000000002 in float64; trim the noise before ceil.
	rounded := math.Round(product*1e9) / 1e9
	return int(math.Ceil(rounded))
}
