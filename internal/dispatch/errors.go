// Package dispatch runs the shortlist workflow: rank applicants, generate and
// persist an assessment per candidate, advance the application and notify.
package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAssessmentConfigured means the job has no assessment settings.
	ErrNoAssessmentConfigured = errors.New("job has no assessment configured")
	// ErrNotFound means the job or application does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the acting recruiter does not own the job.
	ErrForbidden = errors.New("recruiter does not own this job")
	// ErrNotEligible means the application's status does not allow the action.
	ErrNotEligible = errors.New("application is not eligible")
)

// Collaborator names the external dependency that failed.
type Collaborator string

// Collaborators
const (
	CollaboratorStorage   Collaborator = "storage"
	CollaboratorGenerator Collaborator = "generator"
	CollaboratorNotifier  Collaborator = "notifier"
)

// CollaboratorError reports a failure of an external dependency.
type CollaboratorError struct {
	Collaborator Collaborator
	Cause        error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Collaborator, e.Cause)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Cause
}

// IsNotificationFailure reports whether err is a notifier failure, meaning
// the state change it followed did happen.
func IsNotificationFailure(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce) && ce.Collaborator == CollaboratorNotifier
}
