package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AssessmentStatus is the closed set of assessment lifecycle states.
type AssessmentStatus string

// Assessment statuses
const (
	AssessmentPending    AssessmentStatus = "pending"
	AssessmentInProgress AssessmentStatus = "in_progress"
	AssessmentCompleted  AssessmentStatus = "completed"
	AssessmentExpired    AssessmentStatus = "expired"
)

// ParseAssessmentStatus converts a stored string into an AssessmentStatus.
func ParseAssessmentStatus(s string) (AssessmentStatus, error) {
	switch st := AssessmentStatus(s); st {
	case AssessmentPending, AssessmentInProgress, AssessmentCompleted, AssessmentExpired:
		return st, nil
	default:
		return "", fmt.Errorf("unknown assessment status %q", s)
	}
}

// IsTerminal reports whether the status allows no further transitions.
func (s AssessmentStatus) IsTerminal() bool {
	switch s {
	case AssessmentCompleted, AssessmentExpired:
		return true
	case AssessmentPending, AssessmentInProgress:
		return false
	default:
		panic(fmt.Sprintf("unhandled assessment status %q", string(s)))
	}
}

// Section names one of the three question groups.
type Section string

// Sections
const (
	SectionMCQ    Section = "mcq"
	SectionCoding Section = "coding"
	SectionSQL    Section = "sql"
)

// Sections lists every section in presentation order.
var Sections = []Section{SectionMCQ, SectionCoding, SectionSQL}

// MCQQuestion is a multiple-choice question with its answer key.
type MCQQuestion struct {
	ID            string     `json:"id" yaml:"-"`
	Question      string     `json:"question" yaml:"question"`
	Options       []string   `json:"options" yaml:"options"`
	CorrectAnswer int        `json:"correctAnswer" yaml:"correctAnswer"`
	Topic         string     `json:"topic" yaml:"-"`
	Difficulty    Difficulty `json:"difficulty" yaml:"-"`
}

// Example is a visible input/output pair shown with a coding question.
type Example struct {
	Input       string `json:"input" yaml:"input"`
	Output      string `json:"output" yaml:"output"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// TestCase is used to score coding responses. Hidden cases are never shown to candidates.
type TestCase struct {
	Input          string `json:"input" yaml:"input"`
	ExpectedOutput string `json:"expectedOutput" yaml:"expectedOutput"`
	IsHidden       bool   `json:"isHidden" yaml:"isHidden"`
}

// CodingQuestion is a programming problem.
type CodingQuestion struct {
	ID          string     `json:"id" yaml:"-"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Examples    []Example  `json:"examples" yaml:"examples"`
	Constraints []string   `json:"constraints" yaml:"constraints"`
	TestCases   []TestCase `json:"testCases" yaml:"testCases"`
	Topic       string     `json:"topic" yaml:"-"`
	Difficulty  Difficulty `json:"difficulty" yaml:"-"`
}

// HasHiddenTestCase reports whether at least one test case is hidden.
func (q *CodingQuestion) HasHiddenTestCase() bool {
	for _, tc := range q.TestCases {
		if tc.IsHidden {
			return true
		}
	}
	return false
}

// SQLQuestion asks for a query against a given schema.
type SQLQuestion struct {
	ID             string     `json:"id" yaml:"-"`
	Question       string     `json:"question" yaml:"question"`
	Schema         string     `json:"schema" yaml:"schema"`
	ExpectedOutput string     `json:"expectedOutput" yaml:"expectedOutput"`
	Topic          string     `json:"topic" yaml:"-"`
	Difficulty     Difficulty `json:"difficulty" yaml:"-"`
}

// QuestionSet groups the three sections of an assessment.
type QuestionSet struct {
	MCQ    []MCQQuestion    `json:"mcq"`
	Coding []CodingQuestion `json:"coding"`
	SQL    []SQLQuestion    `json:"sql"`
}

// Count returns the number of questions in a section.
func (q *QuestionSet) Count(section Section) int {
	switch section {
	case SectionMCQ:
		return len(q.MCQ)
	case SectionCoding:
		return len(q.Coding)
	case SectionSQL:
		return len(q.SQL)
	default:
		return 0
	}
}

// MCQResponse is a candidate's answer to an MCQ question.
type MCQResponse struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer int    `json:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

// TestResultDetail is the outcome of a single test case.
type TestResultDetail struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	ActualOutput   string `json:"actualOutput"`
	Passed         bool   `json:"passed"`
}

// TestResults summarizes a coding submission's test run.
type TestResults struct {
	Passed  int                `json:"passed"`
	Total   int                `json:"total"`
	Details []TestResultDetail `json:"details,omitempty"`
}

// CodingResponse is a candidate's code submission.
type CodingResponse struct {
	QuestionID  string      `json:"questionId"`
	Code        string      `json:"code"`
	Language    string      `json:"language"`
	TestResults TestResults `json:"testResults"`
}

// AllPassed reports whether every test case passed.
func (r *CodingResponse) AllPassed() bool {
	return r.TestResults.Total > 0 && r.TestResults.Passed == r.TestResults.Total
}

// SQLResponse is a candidate's query submission.
type SQLResponse struct {
	QuestionID string `json:"questionId"`
	Query      string `json:"query"`
	Result     []any  `json:"result,omitempty"`
	IsCorrect  bool   `json:"isCorrect"`
}

// ResponseSet groups recorded responses per section.
type ResponseSet struct {
	MCQ    []MCQResponse    `json:"mcq"`
	Coding []CodingResponse `json:"coding"`
	SQL    []SQLResponse    `json:"sql"`
}

// Score holds per-section and total scores, each 0-100.
type Score struct {
	MCQ    float64 `json:"mcq"`
	Coding float64 `json:"coding"`
	SQL    float64 `json:"sql"`
	Total  float64 `json:"total"`
}

// CheatingEventType is the closed set of anomaly kinds reported by the runner.
type CheatingEventType string

// Cheating event types
const (
	CheatTabSwitch      CheatingEventType = "tab_switch"
	CheatCopy           CheatingEventType = "copy"
	CheatPaste          CheatingEventType = "paste"
	CheatRightClick     CheatingEventType = "right_click"
	CheatFullscreenExit CheatingEventType = "fullscreen_exit"
)

// Valid reports whether t is a known event type.
func (t CheatingEventType) Valid() bool {
	switch t {
	case CheatTabSwitch, CheatCopy, CheatPaste, CheatRightClick, CheatFullscreenExit:
		return true
	default:
		return false
	}
}

// CheatingEvent is an append-only anomaly record.
type CheatingEvent struct {
	Type      CheatingEventType `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Details   string            `json:"details,omitempty"`
}

// Assessment is the technical test sent to one shortlisted application.
type Assessment struct {
	ID               uuid.UUID        `json:"id"`
	JobID            uuid.UUID        `json:"jobId"`
	UserID           uuid.UUID        `json:"userId"`
	ApplicationID    uuid.UUID        `json:"applicationId"`
	Questions        QuestionSet      `json:"questions"`
	Responses        ResponseSet      `json:"responses"`
	Score            Score            `json:"score"`
	TimeSpentSeconds int              `json:"timeSpent"`
	CheatingEvents   []CheatingEvent  `json:"cheatingEvents"`
	Status           AssessmentStatus `json:"status"`
	Weights          *SectionWeights  `json:"weights,omitempty"`
	TimeLimitMinutes int              `json:"timeLimit,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	StartedAt        *time.Time       `json:"startedAt,omitempty"`
	CompletedAt      *time.Time       `json:"completedAt,omitempty"`
	ExpiresAt        time.Time        `json:"expiresAt"`
}

// EffectiveStatus derives the status at now: an unfinished assessment past
// its deadline is expired regardless of the stored value.
func (a *Assessment) EffectiveStatus(now time.Time) AssessmentStatus {
	switch a.Status {
	case AssessmentPending, AssessmentInProgress:
		if now.After(a.ExpiresAt) {
			return AssessmentExpired
		}
		return a.Status
	case AssessmentCompleted, AssessmentExpired:
		return a.Status
	default:
		panic(fmt.Sprintf("unhandled assessment status %q", string(a.Status)))
	}
}

// ScoreSummary is returned when an assessment completes.
type ScoreSummary struct {
	AssessmentID     uuid.UUID `json:"assessmentId"`
	ApplicationID    uuid.UUID `json:"applicationId"`
	Score            Score     `json:"score"`
	TimeSpentSeconds int       `json:"timeSpent"`
	CheatingEvents   int       `json:"cheatingEvents"`
	CompletedAt      time.Time `json:"completedAt"`
}
