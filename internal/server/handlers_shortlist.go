package server

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/dispatch"
	"github.com/jonathan/hirezaa/internal/types"
)

// previewResponse lists the candidates a bulk shortlist would pick.
type previewResponse struct {
	Target     int                 `json:"target"`
	Candidates []types.Application `json:"candidates"`
}

// decisionResponse reports a select or reject decision. Warning is set when
// the status changed but the email could not be sent.
type decisionResponse struct {
	Application *types.Application `json:"application"`
	Warning     string             `json:"warning,omitempty"`
}

// handleShortlistBulk handles POST /jobs/{id}/shortlist
func (s *Server) handleShortlistBulk(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		s.errorFromErr(w, "shortlist", err)
		return
	}
	a, err := actor(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := s.dispatcher.ShortlistBulk(r.Context(), jobID, a)
	if err != nil {
		s.errorFromErr(w, "shortlist", err)
		return
	}
	log.Printf("[shortlist] job %s: %d/%d succeeded", jobID, result.Succeeded, result.Attempted)
	s.jsonResponse(w, http.StatusOK, result)
}

// handleShortlistPreview handles GET /jobs/{id}/shortlist-preview
func (s *Server) handleShortlistPreview(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		s.errorFromErr(w, "shortlist preview", err)
		return
	}
	a, err := actor(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	candidates, err := s.dispatcher.Preview(r.Context(), jobID, a)
	if err != nil {
		s.errorFromErr(w, "shortlist preview", err)
		return
	}
	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		s.errorFromErr(w, "shortlist preview", err)
		return
	}
	if job == nil {
		s.errorFromErr(w, "shortlist preview", errNotFound)
		return
	}
	if candidates == nil {
		candidates = []types.Application{}
	}
	s.jsonResponse(w, http.StatusOK, previewResponse{Target: job.ShortlistTargetCount(), Candidates: candidates})
}

// handleShortlistOne handles POST /applications/{id}/shortlist. When the
// assessment was created but the invite could not be sent, the outcome is
// still returned with 200 and carries the notifier error.
func (s *Server) handleShortlistOne(w http.ResponseWriter, r *http.Request) {
	appID, err := pathID(r)
	if err != nil {
		s.errorFromErr(w, "shortlist application", err)
		return
	}
	a, err := actor(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	outcome, err := s.dispatcher.ShortlistOne(r.Context(), appID, a)
	if err != nil && (outcome == nil || !dispatch.IsNotificationFailure(err)) {
		s.errorFromErr(w, "shortlist application", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, outcome)
}

// handleReject handles POST /applications/{id}/reject
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, "reject", s.dispatcher.Reject)
}

// handleSelect handles POST /applications/{id}/select
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, "select", s.dispatcher.Select)
}

type decideFunc func(ctx context.Context, id uuid.UUID, a dispatch.Actor) (*types.Application, error)

func (s *Server) decide(w http.ResponseWriter, r *http.Request, op string, fn decideFunc) {
	appID, err := pathID(r)
	if err != nil {
		s.errorFromErr(w, op, err)
		return
	}
	a, err := actor(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	app, err := fn(r.Context(), appID, a)
	switch {
	case err == nil:
		s.jsonResponse(w, http.StatusOK, decisionResponse{Application: app})
	case app != nil && dispatch.IsNotificationFailure(err):
		s.jsonResponse(w, http.StatusOK, decisionResponse{Application: app, Warning: "candidate email was not sent"})
	default:
		s.errorFromErr(w, op, err)
	}
}
