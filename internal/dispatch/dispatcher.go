package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/hirezaa/internal/generation"
	"github.com/jonathan/hirezaa/internal/ranking"
	"github.com/jonathan/hirezaa/internal/types"
)

// DefaultDelay spaces out candidates in a bulk run so the mail relay is not
// hit with a burst.
const DefaultDelay = 500 * time.Millisecond

// MaxConcurrency caps how many candidates a bulk run processes at once.
const MaxConcurrency = 4

// Store reads jobs and applications and advances application status.
// Getters return (nil, nil) when the record does not exist.
type Store interface {
	GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error)
	// ListApplicationsByStatus returns a job's applications in the given
	// status, oldest submission first.
	ListApplicationsByStatus(ctx context.Context, jobID uuid.UUID, status types.ApplicationStatus) ([]types.Application, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status types.ApplicationStatus) error
}

// Generator builds question sets.
type Generator interface {
	Generate(ctx context.Context, cfg generation.Config) (*types.QuestionSet, error)
}

// Assessments persists new assessments.
type Assessments interface {
	// ForApplication returns the application's existing assessment or nil.
	ForApplication(ctx context.Context, applicationID uuid.UUID) (*types.Assessment, error)
	Create(ctx context.Context, app *types.Application, job *types.Job, questions *types.QuestionSet) (*types.Assessment, error)
}

// Notifier emails candidates.
type Notifier interface {
	SendAssessmentInvite(ctx context.Context, app *types.Application, job *types.Job, a *types.Assessment) error
	SendSelection(ctx context.Context, app *types.Application, job *types.Job) error
	SendRejection(ctx context.Context, app *types.Application, job *types.Job) error
}

// Actor is the authenticated user performing a recruiter action.
type Actor struct {
	UserID uuid.UUID
	Role   types.Role
}

// Outcome is the result of dispatching one candidate.
type Outcome struct {
	ApplicationID uuid.UUID               `json:"applicationId"`
	CandidateName string                  `json:"candidateName,omitempty"`
	AssessmentID  *uuid.UUID              `json:"assessmentId,omitempty"`
	ExpiresAt     *time.Time              `json:"expiresAt,omitempty"`
	Status        types.ApplicationStatus `json:"status"`
	Succeeded     bool                    `json:"succeeded"`
	Error         string                  `json:"error,omitempty"`
	Collaborator  Collaborator            `json:"failedCollaborator,omitempty"`
	Skipped       bool                    `json:"skipped,omitempty"`

	err error
}

// Err returns the failure behind an unsuccessful outcome.
func (o *Outcome) Err() error {
	return o.err
}

// BatchResult aggregates a bulk shortlist run.
type BatchResult struct {
	JobID     uuid.UUID `json:"jobId"`
	Target    int       `json:"target"`
	Eligible  int       `json:"eligible"`
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Dispatcher runs the shortlist workflow.
type Dispatcher struct {
	store       Store
	generator   Generator
	assessments Assessments
	notifier    Notifier
	difficulty  types.Difficulty
	delay       time.Duration
	concurrency int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDelay sets the pause between candidates in a bulk run. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(x *Dispatcher) {
		if d >= 0 {
			x.delay = d
		}
	}
}

// WithConcurrency sets how many candidates a bulk run processes at once,
// clamped to [1, MaxConcurrency].
func WithConcurrency(n int) Option {
	return func(x *Dispatcher) {
		x.concurrency = min(max(n, 1), MaxConcurrency)
	}
}

// WithDefaultDifficulty is used when a job's assessment config names none.
func WithDefaultDifficulty(d types.Difficulty) Option {
	return func(x *Dispatcher) { x.difficulty = d }
}

// NewDispatcher creates a Dispatcher. Bulk runs are sequential with
// DefaultDelay between candidates unless configured otherwise.
func NewDispatcher(store Store, generator Generator, assessments Assessments, notifier Notifier, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:       store,
		generator:   generator,
		assessments: assessments,
		notifier:    notifier,
		difficulty:  types.DifficultyMedium,
		delay:       DefaultDelay,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Preview returns the applications a bulk run would shortlist, without
// dispatching anything.
func (d *Dispatcher) Preview(ctx context.Context, jobID uuid.UUID, actor Actor) ([]types.Application, error) {
	job, err := d.loadJob(ctx, jobID, actor)
	if err != nil {
		return nil, err
	}
	applied, err := d.store.ListApplicationsByStatus(ctx, job.ID, types.ApplicationApplied)
	if err != nil {
		return nil, &CollaboratorError{Collaborator: CollaboratorStorage, Cause: err}
	}
	return ranking.Shortlist(job, applied)
}

// ShortlistOne sends an assessment to a single application. A notification
// failure is returned as a *CollaboratorError alongside a non-nil outcome:
// the assessment exists and the application has advanced.
func (d *Dispatcher) ShortlistOne(ctx context.Context, applicationID uuid.UUID, actor Actor) (*Outcome, error) {
	app, err := d.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	job, err := d.loadJob(ctx, app.JobID, actor)
	if err != nil {
		return nil, err
	}
	if job.AssessmentConfig == nil {
		return nil, ErrNoAssessmentConfigured
	}
	if !app.Status.CanTransitionTo(types.ApplicationAssessmentSent) {
		return nil, fmt.Errorf("%w: status is %s", ErrNotEligible, app.Status)
	}

	out := d.dispatch(ctx, job, app)
	if out.err != nil && out.AssessmentID == nil {
		return nil, out.err
	}
	return out, out.err
}

// ShortlistBulk ranks the job's applied candidates and dispatches an
// assessment to each selected one. Job-level problems fail the whole call;
// per-candidate failures are recorded in the result and never stop the run.
func (d *Dispatcher) ShortlistBulk(ctx context.Context, jobID uuid.UUID, actor Actor) (*BatchResult, error) {
	job, err := d.loadJob(ctx, jobID, actor)
	if err != nil {
		return nil, err
	}
	if job.AssessmentConfig == nil {
		return nil, ErrNoAssessmentConfigured
	}

	applied, err := d.store.ListApplicationsByStatus(ctx, job.ID, types.ApplicationApplied)
	if err != nil {
		return nil, &CollaboratorError{Collaborator: CollaboratorStorage, Cause: err}
	}
	target := job.ShortlistTargetCount()
	selected, err := ranking.RankApplicants(applied, target)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		JobID:    job.ID,
		Target:   target,
		Eligible: len(applied),
		Outcomes: make([]Outcome, len(selected)),
	}
	log.Printf("[dispatch] job %s: %d of %d applied candidates selected (target %d)",
		job.ID, len(selected), len(applied), target)

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i := range selected {
		app := &selected[i]
		if i > 0 {
			if err := d.wait(ctx); err != nil {
				for j := i; j < len(selected); j++ {
					result.Outcomes[j] = skipped(&selected[j], err)
				}
				break
			}
		}
		g.Go(func() error {
			result.Outcomes[i] = *d.dispatch(ctx, job, app)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range result.Outcomes {
		if o.Skipped {
			continue
		}
		result.Attempted++
		if o.Succeeded {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	log.Printf("[dispatch] job %s: %d/%d candidates dispatched, %d failed",
		job.ID, result.Succeeded, result.Attempted, result.Failed)
	return result, nil
}

// dispatch runs the per-candidate steps in order. The application only moves
// to assessment_sent once its assessment is stored. An open assessment left
// by an earlier attempt is reused so an application never has two.
func (d *Dispatcher) dispatch(ctx context.Context, job *types.Job, app *types.Application) *Outcome {
	a, err := d.assessments.ForApplication(ctx, app.ID)
	if err != nil {
		return failed(app, CollaboratorStorage, err)
	}
	switch {
	case a != nil && a.Status.IsTerminal():
		return ineligible(app, fmt.Errorf("%w: application already has a %s assessment", ErrNotEligible, a.Status))
	case a != nil:
		log.Printf("[dispatch] application %s: reusing assessment %s", app.ID, a.ID)
	default:
		questions, err := d.generator.Generate(ctx, generation.ConfigFromJob(job.AssessmentConfig, d.difficulty))
		if err != nil {
			return failed(app, CollaboratorGenerator, err)
		}
		a, err = d.assessments.Create(ctx, app, job, questions)
		if err != nil {
			return failed(app, CollaboratorStorage, err)
		}
	}

	out := &Outcome{
		ApplicationID: app.ID,
		CandidateName: app.CandidateName,
		AssessmentID:  &a.ID,
		ExpiresAt:     &a.ExpiresAt,
		Status:        app.Status,
	}

	if err := d.store.UpdateApplicationStatus(ctx, app.ID, types.ApplicationAssessmentSent); err != nil {
		out.fail(CollaboratorStorage, err)
		return out
	}
	out.Status = types.ApplicationAssessmentSent
	app.Status = types.ApplicationAssessmentSent

	if err := d.notifier.SendAssessmentInvite(ctx, app, job, a); err != nil {
		out.fail(CollaboratorNotifier, err)
		return out
	}

	out.Succeeded = true
	log.Printf("[dispatch] application %s: assessment %s sent", app.ID, a.ID)
	return out
}

// Reject moves an application to rejected and emails the candidate.
func (d *Dispatcher) Reject(ctx context.Context, applicationID uuid.UUID, actor Actor) (*types.Application, error) {
	return d.decide(ctx, applicationID, actor, types.ApplicationRejected, d.notifier.SendRejection)
}

// Select moves an application to selected and emails the candidate.
func (d *Dispatcher) Select(ctx context.Context, applicationID uuid.UUID, actor Actor) (*types.Application, error) {
	return d.decide(ctx, applicationID, actor, types.ApplicationSelected, d.notifier.SendSelection)
}

type sendFunc func(ctx context.Context, app *types.Application, job *types.Job) error

func (d *Dispatcher) decide(ctx context.Context, applicationID uuid.UUID, actor Actor, next types.ApplicationStatus, send sendFunc) (*types.Application, error) {
	app, err := d.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	job, err := d.loadJob(ctx, app.JobID, actor)
	if err != nil {
		return nil, err
	}
	if !app.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: cannot move from %s to %s", ErrNotEligible, app.Status, next)
	}

	if err := d.store.UpdateApplicationStatus(ctx, app.ID, next); err != nil {
		return nil, &CollaboratorError{Collaborator: CollaboratorStorage, Cause: err}
	}
	app.Status = next

	if err := send(ctx, app, job); err != nil {
		log.Printf("[dispatch] application %s: %s email not delivered: %v", app.ID, next, err)
		return app, &CollaboratorError{Collaborator: CollaboratorNotifier, Cause: err}
	}
	return app, nil
}

func (d *Dispatcher) loadApplication(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	app, err := d.store.GetApplication(ctx, id)
	if err != nil {
		return nil, &CollaboratorError{Collaborator: CollaboratorStorage, Cause: err}
	}
	if app == nil {
		return nil, fmt.Errorf("%w: application %s", ErrNotFound, id)
	}
	return app, nil
}

// loadJob fetches the job and checks the actor may act on it.
func (d *Dispatcher) loadJob(ctx context.Context, id uuid.UUID, actor Actor) (*types.Job, error) {
	job, err := d.store.GetJob(ctx, id)
	if err != nil {
		return nil, &CollaboratorError{Collaborator: CollaboratorStorage, Cause: err}
	}
	if job == nil {
		return nil, fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	if actor.Role != types.RoleAdmin && job.PostedBy != actor.UserID {
		return nil, ErrForbidden
	}
	return job, nil
}

func (d *Dispatcher) wait(ctx context.Context) error {
	if d.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func failed(app *types.Application, c Collaborator, err error) *Outcome {
	out := &Outcome{
		ApplicationID: app.ID,
		CandidateName: app.CandidateName,
		Status:        app.Status,
	}
	out.fail(c, err)
	return out
}

// ineligible records a candidate whose state rules out dispatch.
func ineligible(app *types.Application, err error) *Outcome {
	log.Printf("[dispatch] application %s: %v", app.ID, err)
	return &Outcome{
		ApplicationID: app.ID,
		CandidateName: app.CandidateName,
		Status:        app.Status,
		Error:         err.Error(),
		err:           err,
	}
}

// skipped records a candidate the run never reached because ctx ended.
func skipped(app *types.Application, err error) Outcome {
	return Outcome{
		ApplicationID: app.ID,
		CandidateName: app.CandidateName,
		Status:        app.Status,
		Skipped:       true,
		Error:         err.Error(),
		err:           err,
	}
}

func (o *Outcome) fail(c Collaborator, err error) {
	log.Printf("[dispatch] application %s: %s failed: %v", o.ApplicationID, c, err)
	o.err = &CollaboratorError{Collaborator: c, Cause: err}
	o.Collaborator = c
	o.Error = err.Error()
}
