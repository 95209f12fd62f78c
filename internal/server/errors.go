// Package server provides the HTTP REST API for shortlisting and assessments.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/hirezaa/internal/assessment"
	"github.com/jonathan/hirezaa/internal/dispatch"
	"github.com/jonathan/hirezaa/internal/ranking"
	"github.com/jonathan/hirezaa/internal/resume"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// errNotFound is returned by handlers for records the caller cannot see.
var errNotFound = errors.New("not found")

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		exists        *ErrEmailAlreadyExists
		creds         *ErrInvalidCredentials
		invalid       *ErrValidation
		fieldErrs     validator.ValidationErrors
		collaborator  *dispatch.CollaboratorError
		storage       *resume.StorageError
		transitionErr *assessment.TransitionError
	)

	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &exists):
		return http.StatusConflict
	case errors.As(err, &creds):
		return http.StatusUnauthorized
	case errors.As(err, &invalid), errors.As(err, &fieldErrs),
		errors.Is(err, resume.ErrInvalidReference),
		errors.Is(err, ranking.ErrInvalidTargetCount):
		return http.StatusBadRequest
	case errors.Is(err, dispatch.ErrForbidden), errors.Is(err, assessment.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errNotFound), errors.Is(err, dispatch.ErrNotFound),
		errors.Is(err, assessment.ErrNotFound), errors.Is(err, resume.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, assessment.ErrExpired):
		return http.StatusGone
	case errors.As(err, &transitionErr), errors.Is(err, dispatch.ErrNotEligible):
		return http.StatusConflict
	case errors.Is(err, dispatch.ErrNoAssessmentConfigured),
		errors.Is(err, assessment.ErrUnknownQuestion),
		errors.Is(err, assessment.ErrInvalidResponse),
		errors.Is(err, assessment.ErrInvalidEvent):
		return http.StatusUnprocessableEntity
	case errors.As(err, &collaborator), errors.As(err, &storage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
