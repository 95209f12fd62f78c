package assessment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/types"
)

// DefaultExpiryWindow is how long a candidate has to finish an assessment.
const DefaultExpiryWindow = 7 * 24 * time.Hour

// Store persists assessments and the application status they drive.
// Getters return (nil, nil) when the record does not exist.
type Store interface {
	CreateAssessment(ctx context.Context, a *types.Assessment) error
	GetAssessment(ctx context.Context, id uuid.UUID) (*types.Assessment, error)
	GetAssessmentByApplication(ctx context.Context, applicationID uuid.UUID) (*types.Assessment, error)
	UpdateAssessment(ctx context.Context, a *types.Assessment) error
	ListOverdueAssessments(ctx context.Context, now time.Time) ([]types.Assessment, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status types.ApplicationStatus) error
}

// Response is one answer submitted by the assessment runner. Only the fields
// for Section are read.
type Response struct {
	Section    types.Section `json:"section"`
	QuestionID string        `json:"questionId"`

	SelectedAnswer int `json:"selectedAnswer"`

	Code        string            `json:"code,omitempty"`
	Language    string            `json:"language,omitempty"`
	TestResults types.TestResults `json:"testResults"`

	Query  string `json:"query,omitempty"`
	Result []any  `json:"result,omitempty"`
}

// Manager applies lifecycle rules to assessments held in a Store.
type Manager struct {
	store  Store
	coding CodingEvaluator
	sql    SQLEvaluator
	now    func() time.Time
	window time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithExpiryWindow overrides DefaultExpiryWindow.
func WithExpiryWindow(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.window = d
		}
	}
}

// WithCodingEvaluator replaces the default coding evaluator.
func WithCodingEvaluator(e CodingEvaluator) Option {
	return func(m *Manager) { m.coding = e }
}

// WithSQLEvaluator replaces the default SQL evaluator.
func WithSQLEvaluator(e SQLEvaluator) Option {
	return func(m *Manager) { m.sql = e }
}

// NewManager creates a Manager over store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		coding: ReportedResultsEvaluator{},
		sql:    QueryTextEvaluator{},
		now:    time.Now,
		window: DefaultExpiryWindow,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.now().UTC()
}

// Create persists a pending assessment for app with the given questions.
func (m *Manager) Create(ctx context.Context, app *types.Application, job *types.Job, questions *types.QuestionSet) (*types.Assessment, error) {
	now := m.Now()
	a := &types.Assessment{
		ID:            uuid.New(),
		JobID:         job.ID,
		UserID:        app.UserID,
		ApplicationID: app.ID,
		Questions:     *questions,
		Responses: types.ResponseSet{
			MCQ:    []types.MCQResponse{},
			Coding: []types.CodingResponse{},
			SQL:    []types.SQLResponse{},
		},
		CheatingEvents: []types.CheatingEvent{},
		Status:         types.AssessmentPending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(m.window),
	}
	if job.AssessmentConfig != nil {
		a.Weights = job.AssessmentConfig.Weights
		a.TimeLimitMinutes = job.AssessmentConfig.TimeLimitMinutes
	}

	if err := m.store.CreateAssessment(ctx, a); err != nil {
		return nil, &StoreError{Op: "create", Cause: err}
	}
	return a, nil
}

// Get loads an assessment with its effective status applied.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*types.Assessment, error) {
	a, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Status = a.EffectiveStatus(m.Now())
	return a, nil
}

// ForApplication returns the application's assessment with its effective
// status applied, or nil when none exists.
func (m *Manager) ForApplication(ctx context.Context, applicationID uuid.UUID) (*types.Assessment, error) {
	a, err := m.store.GetAssessmentByApplication(ctx, applicationID)
	if err != nil {
		return nil, &StoreError{Op: "get by application", Cause: err}
	}
	if a == nil {
		return nil, nil
	}
	a.Status = a.EffectiveStatus(m.Now())
	return a, nil
}

// Start moves a pending assessment to in_progress. Starting an assessment
// that is already in progress is a no-op.
func (m *Manager) Start(ctx context.Context, id, candidateID uuid.UUID) (*types.Assessment, error) {
	a, err := m.loadFor(ctx, id, candidateID)
	if err != nil {
		return nil, err
	}
	now := m.Now()

	switch st := a.EffectiveStatus(now); st {
	case types.AssessmentInProgress:
		return a, nil
	case types.AssessmentPending:
		a.Status = types.AssessmentInProgress
		a.StartedAt = &now
	case types.AssessmentCompleted, types.AssessmentExpired:
		return nil, &TransitionError{From: st, Event: "start"}
	}

	if err := m.store.UpdateAssessment(ctx, a); err != nil {
		return nil, &StoreError{Op: "update", Cause: err}
	}
	return a, nil
}

// RecordResponse stores one answer, replacing an earlier answer to the same
// question. The first response starts a pending assessment. Correctness is
// decided here, never taken from the runner.
func (m *Manager) RecordResponse(ctx context.Context, id, candidateID uuid.UUID, resp Response) (*types.Assessment, error) {
	a, err := m.loadFor(ctx, id, candidateID)
	if err != nil {
		return nil, err
	}
	now := m.Now()

	switch st := a.EffectiveStatus(now); st {
	case types.AssessmentExpired:
		return nil, ErrExpired
	case types.AssessmentCompleted:
		return nil, &TransitionError{From: st, Event: "answer"}
	case types.AssessmentPending:
		a.Status = types.AssessmentInProgress
		a.StartedAt = &now
	case types.AssessmentInProgress:
	}

	if err := m.apply(ctx, a, resp); err != nil {
		return nil, err
	}

	if err := m.store.UpdateAssessment(ctx, a); err != nil {
		return nil, &StoreError{Op: "update", Cause: err}
	}
	return a, nil
}

func (m *Manager) apply(ctx context.Context, a *types.Assessment, resp Response) error {
	switch resp.Section {
	case types.SectionMCQ:
		q := findMCQ(a.Questions.MCQ, resp.QuestionID)
		if q == nil {
			return fmt.Errorf("%w: %s", ErrUnknownQuestion, resp.QuestionID)
		}
		if resp.SelectedAnswer < 0 || resp.SelectedAnswer >= len(q.Options) {
			return fmt.Errorf("%w: answer index %d out of range", ErrInvalidResponse, resp.SelectedAnswer)
		}
		r := types.MCQResponse{
			QuestionID:     q.ID,
			SelectedAnswer: resp.SelectedAnswer,
			IsCorrect:      resp.SelectedAnswer == q.CorrectAnswer,
		}
		a.Responses.MCQ = upsert(a.Responses.MCQ, r, func(x types.MCQResponse) string { return x.QuestionID })

	case types.SectionCoding:
		q := findCoding(a.Questions.Coding, resp.QuestionID)
		if q == nil {
			return fmt.Errorf("%w: %s", ErrUnknownQuestion, resp.QuestionID)
		}
		r := types.CodingResponse{
			QuestionID:  q.ID,
			Code:        resp.Code,
			Language:    resp.Language,
			TestResults: resp.TestResults,
		}
		results, err := m.coding.Evaluate(ctx, q, &r)
		if err != nil {
			return fmt.Errorf("failed to evaluate coding response: %w", err)
		}
		r.TestResults = results
		a.Responses.Coding = upsert(a.Responses.Coding, r, func(x types.CodingResponse) string { return x.QuestionID })

	case types.SectionSQL:
		q := findSQL(a.Questions.SQL, resp.QuestionID)
		if q == nil {
			return fmt.Errorf("%w: %s", ErrUnknownQuestion, resp.QuestionID)
		}
		r := types.SQLResponse{
			QuestionID: q.ID,
			Query:      resp.Query,
			Result:     resp.Result,
		}
		ok, err := m.sql.Evaluate(ctx, q, &r)
		if err != nil {
			return fmt.Errorf("failed to evaluate SQL response: %w", err)
		}
		r.IsCorrect = ok
		a.Responses.SQL = upsert(a.Responses.SQL, r, func(x types.SQLResponse) string { return x.QuestionID })

	default:
		return fmt.Errorf("%w: unknown section %q", ErrInvalidResponse, resp.Section)
	}
	return nil
}

// RecordCheatingEvent appends an anomaly record. Events are informational
// and are not checked against any policy.
func (m *Manager) RecordCheatingEvent(ctx context.Context, id, candidateID uuid.UUID, event types.CheatingEvent) (*types.Assessment, error) {
	if !event.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, event.Type)
	}
	a, err := m.loadFor(ctx, id, candidateID)
	if err != nil {
		return nil, err
	}
	now := m.Now()

	if st := a.EffectiveStatus(now); st.IsTerminal() {
		return nil, &TransitionError{From: st, Event: "log an event on"}
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now
	}
	a.CheatingEvents = append(a.CheatingEvents, event)

	if err := m.store.UpdateAssessment(ctx, a); err != nil {
		return nil, &StoreError{Op: "update", Cause: err}
	}
	return a, nil
}

// Complete scores an in-progress assessment and moves its application to
// assessment_completed. When the assessment is saved but the application
// update fails, the summary is returned together with the error.
func (m *Manager) Complete(ctx context.Context, id, candidateID uuid.UUID) (*types.ScoreSummary, error) {
	a, err := m.loadFor(ctx, id, candidateID)
	if err != nil {
		return nil, err
	}
	now := m.Now()

	if st := a.EffectiveStatus(now); st != types.AssessmentInProgress {
		return nil, &TransitionError{From: st, Event: "complete"}
	}

	a.Score = ComputeScore(&a.Questions, &a.Responses, a.Weights)
	if a.StartedAt != nil {
		a.TimeSpentSeconds = int(now.Sub(*a.StartedAt).Seconds())
	}
	a.CompletedAt = &now
	a.Status = types.AssessmentCompleted

	if err := m.store.UpdateAssessment(ctx, a); err != nil {
		return nil, &StoreError{Op: "update", Cause: err}
	}

	summary := &types.ScoreSummary{
		AssessmentID:     a.ID,
		ApplicationID:    a.ApplicationID,
		Score:            a.Score,
		TimeSpentSeconds: a.TimeSpentSeconds,
		CheatingEvents:   len(a.CheatingEvents),
		CompletedAt:      now,
	}

	if err := m.markApplicationCompleted(ctx, a.ApplicationID); err != nil {
		return summary, err
	}
	return summary, nil
}

func (m *Manager) markApplicationCompleted(ctx context.Context, appID uuid.UUID) error {
	app, err := m.store.GetApplication(ctx, appID)
	if err != nil {
		return &StoreError{Op: "get application", Cause: err}
	}
	if app == nil {
		log.Printf("[assessment] application %s no longer exists, status not updated", appID)
		return nil
	}
	if !app.Status.CanTransitionTo(types.ApplicationAssessmentCompleted) {
		log.Printf("[assessment] application %s is %s, leaving status unchanged", appID, app.Status)
		return nil
	}
	if err := m.store.UpdateApplicationStatus(ctx, appID, types.ApplicationAssessmentCompleted); err != nil {
		return &StoreError{Op: "update application", Cause: err}
	}
	return nil
}

// SweepExpired persists the expired status on every overdue assessment and
// returns how many were updated. A failed update is logged and the sweep
// continues; the failures come back together as one *StoreError.
func (m *Manager) SweepExpired(ctx context.Context) (int, error) {
	now := m.Now()
	overdue, err := m.store.ListOverdueAssessments(ctx, now)
	if err != nil {
		return 0, &StoreError{Op: "list overdue", Cause: err}
	}

	swept := 0
	var failures []error
	for i := range overdue {
		a := &overdue[i]
		if a.EffectiveStatus(now) != types.AssessmentExpired || a.Status == types.AssessmentExpired {
			continue
		}
		a.Status = types.AssessmentExpired
		if err := m.store.UpdateAssessment(ctx, a); err != nil {
			log.Printf("[assessment] sweep: failed to expire %s: %v", a.ID, err)
			failures = append(failures, fmt.Errorf("assessment %s: %w", a.ID, err))
			continue
		}
		swept++
	}
	log.Printf("[assessment] sweep: expired %d of %d overdue assessments, %d failed", swept, len(overdue), len(failures))
	if len(failures) > 0 {
		return swept, &StoreError{
			Op:    "update",
			Cause: fmt.Errorf("%d of %d updates failed: %w", len(failures), len(overdue), errors.Join(failures...)),
		}
	}
	return swept, nil
}

// CandidateView loads the candidate-safe projection of an assessment.
func (m *Manager) CandidateView(ctx context.Context, id, candidateID uuid.UUID) (*CandidateAssessment, error) {
	a, err := m.loadFor(ctx, id, candidateID)
	if err != nil {
		return nil, err
	}
	a.Status = a.EffectiveStatus(m.Now())
	return NewCandidateView(a), nil
}

func (m *Manager) load(ctx context.Context, id uuid.UUID) (*types.Assessment, error) {
	a, err := m.store.GetAssessment(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "get", Cause: err}
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *Manager) loadFor(ctx context.Context, id, candidateID uuid.UUID) (*types.Assessment, error) {
	a, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != candidateID {
		return nil, ErrForbidden
	}
	return a, nil
}

func upsert[T any](items []T, item T, key func(T) string) []T {
	k := key(item)
	for i := range items {
		if key(items[i]) == k {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func findMCQ(qs []types.MCQQuestion, id string) *types.MCQQuestion {
	for i := range qs {
		if qs[i].ID == id {
			return &qs[i]
		}
	}
	return nil
}

func findCoding(qs []types.CodingQuestion, id string) *types.CodingQuestion {
	for i := range qs {
		if qs[i].ID == id {
			return &qs[i]
		}
	}
	return nil
}

func findSQL(qs []types.SQLQuestion, id string) *types.SQLQuestion {
	for i := range qs {
		if qs[i].ID == id {
			return &qs[i]
		}
	}
	return nil
}
