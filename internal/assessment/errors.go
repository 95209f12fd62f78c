// Package assessment owns the assessment state machine: responses, anomaly
// events, expiry and scoring.
package assessment

import (
	"errors"
	"fmt"

	"github.com/jonathan/hirezaa/internal/types"
)

// Expected conditions. All are caller errors, not system faults.
var (
	ErrNotFound          = errors.New("assessment not found")
	ErrExpired           = errors.New("assessment has expired")
	ErrInvalidTransition = errors.New("invalid assessment transition")
	ErrUnknownQuestion   = errors.New("question is not part of this assessment")
	ErrForbidden         = errors.New("assessment belongs to another candidate")
	ErrInvalidResponse   = errors.New("invalid response")
	ErrInvalidEvent      = errors.New("invalid cheating event")
)

// TransitionError describes a rejected state change.
type TransitionError struct {
	From  types.AssessmentStatus
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s an assessment that is %s", e.Event, e.From)
}

// Is makes a *TransitionError match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// StoreError wraps a failure of the backing store.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("assessment store %s failed: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
