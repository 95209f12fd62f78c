// Package types provides type definitions for structured data used throughout the hiring pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus is the closed set of states an Application moves through.
type ApplicationStatus string

// Application statuses
const (
	ApplicationApplied             ApplicationStatus = "applied"
	ApplicationShortlisted         ApplicationStatus = "shortlisted"
	ApplicationAssessmentSent      ApplicationStatus = "assessment_sent"
	ApplicationAssessmentCompleted ApplicationStatus = "assessment_completed"
	ApplicationSelected            ApplicationStatus = "selected"
	ApplicationRejected            ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every status in lifecycle order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationApplied,
	ApplicationShortlisted,
	ApplicationAssessmentSent,
	ApplicationAssessmentCompleted,
	ApplicationSelected,
	ApplicationRejected,
}

// ParseApplicationStatus converts a stored string into an ApplicationStatus.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	for _, st := range ApplicationStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsTerminal reports whether no further transition is possible.
func (s ApplicationStatus) IsTerminal() bool {
	switch s {
	case ApplicationSelected, ApplicationRejected:
		return true
	case ApplicationApplied, ApplicationShortlisted, ApplicationAssessmentSent, ApplicationAssessmentCompleted:
		return false
	default:
		panic(fmt.Sprintf("unhandled application status %q", string(s)))
	}
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Transitions only move forward; rejected is reachable from every non-terminal state.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == ApplicationRejected {
		return true
	}
	switch s {
	case ApplicationApplied:
		return next == ApplicationShortlisted || next == ApplicationAssessmentSent
	case ApplicationShortlisted:
		return next == ApplicationAssessmentSent
	case ApplicationAssessmentSent:
		return next == ApplicationAssessmentCompleted
	case ApplicationAssessmentCompleted:
		return next == ApplicationSelected
	default:
		return false
	}
}

// Application is a candidate's submission against a job.
type Application struct {
	ID          uuid.UUID         `json:"id"`
	JobID       uuid.UUID         `json:"job_id"`
	UserID      uuid.UUID         `json:"user_id"`
	CGPA        float64           `json:"cgpa"`
	Skills      []string          `json:"skills"`
	Resume      *string           `json:"resume,omitempty"`    // URL or storage id as submitted
	ResumeID    *string           `json:"public_id,omitempty"` // resolved storage id
	CoverLetter *string           `json:"cover_letter,omitempty"`
	Status      ApplicationStatus `json:"status"`
	AppliedAt   time.Time         `json:"applied_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// Denormalized candidate identity, loaded with the application when available
	CandidateName  string `json:"candidate_name,omitempty"`
	CandidateEmail string `json:"candidate_email,omitempty"`
}

// ResumeReference returns the best stored reference to the resume file:
// the resolved storage id when present, else the submitted value.
func (a *Application) ResumeReference() string {
	if a.ResumeID != nil && *a.ResumeID != "" {
		return *a.ResumeID
	}
	if a.Resume != nil {
		return *a.Resume
	}
	return ""
}

// StatusCounts tallies applications per status.
type StatusCounts map[ApplicationStatus]int

// CountStatuses builds per-status counts with every status present.
func CountStatuses(apps []Application) StatusCounts {
	counts := make(StatusCounts, len(ApplicationStatuses))
	for _, st := range ApplicationStatuses {
		counts[st] = 0
	}
	for _, a := range apps {
		counts[a.Status]++
	}
	return counts
}
