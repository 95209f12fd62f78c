package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/dispatch"
	"github.com/jonathan/hirezaa/internal/types"
)

// signRequest is the body of POST /resumes/sign. Reference is optional and
// defaults to the application's stored resume.
type signRequest struct {
	ApplicationID string `json:"applicationId"`
	Reference     string `json:"reference,omitempty"`
}

// handleSignResume handles POST /resumes/sign. Only references stored on an
// application of one of the caller's jobs can be signed.
func (s *Server) handleSignResume(w http.ResponseWriter, r *http.Request) {
	if s.resumes == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "resume storage is not configured")
		return
	}
	a, err := actor(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req signRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	appID, err := uuid.Parse(strings.TrimSpace(req.ApplicationID))
	if err != nil {
		s.errorFromErr(w, "sign resume", &ErrValidation{Field: "applicationId", Message: "must be a UUID"})
		return
	}

	app, ok := s.ownedApplication(w, r, "sign resume", appID, a)
	if !ok {
		return
	}

	if strings.TrimSpace(req.Reference) == "" {
		artifact, err := s.resumes.ResolveApplication(r.Context(), app, s.store)
		if err != nil {
			s.errorFromErr(w, "sign resume", err)
			return
		}
		s.jsonResponse(w, http.StatusOK, artifact)
		return
	}

	belongs, err := s.resumes.BelongsTo(req.Reference, app)
	if err != nil {
		s.errorFromErr(w, "sign resume", err)
		return
	}
	if !belongs {
		s.errorFromErr(w, "sign resume", dispatch.ErrForbidden)
		return
	}

	artifact, err := s.resumes.Resolve(r.Context(), req.Reference)
	if err != nil {
		s.errorFromErr(w, "sign resume", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, artifact)
}

// handleApplicationResume handles GET /applications/{id}/resume. The resolved
// storage id is saved on the application.
func (s *Server) handleApplicationResume(w http.ResponseWriter, r *http.Request) {
	if s.resumes == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "resume storage is not configured")
		return
	}
	appID, err := pathID(r)
	if err != nil {
		s.errorFromErr(w, "application resume", err)
		return
	}
	a, err := actor(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	app, ok := s.ownedApplication(w, r, "application resume", appID, a)
	if !ok {
		return
	}

	artifact, err := s.resumes.ResolveApplication(r.Context(), app, s.store)
	if err != nil {
		s.errorFromErr(w, "application resume", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, artifact)
}

// ownedApplication loads an application on one of the actor's jobs and
// writes the error response when there is none.
func (s *Server) ownedApplication(w http.ResponseWriter, r *http.Request, op string, id uuid.UUID, a dispatch.Actor) (*types.Application, bool) {
	app, err := s.store.GetApplication(r.Context(), id)
	if err != nil {
		s.errorFromErr(w, op, err)
		return nil, false
	}
	if app == nil {
		s.errorFromErr(w, op, errNotFound)
		return nil, false
	}
	if _, err := s.ownedJob(r.Context(), app.JobID, a); err != nil {
		s.errorFromErr(w, op, err)
		return nil, false
	}
	return app, true
}
