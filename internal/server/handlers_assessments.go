package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/assessment"
	"github.com/jonathan/hirezaa/internal/types"
)

// candidateIDs parses the assessment id and the authenticated candidate.
func (s *Server) candidateIDs(w http.ResponseWriter, r *http.Request, op string) (uuid.UUID, uuid.UUID, bool) {
	id, err := pathID(r)
	if err != nil {
		s.errorFromErr(w, op, err)
		return uuid.Nil, uuid.Nil, false
	}
	a, err := actor(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	return id, a.UserID, true
}

// handleGetAssessment handles GET /assessments/{id}
func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id, candidate, ok := s.candidateIDs(w, r, "get assessment")
	if !ok {
		return
	}
	view, err := s.assessments.CandidateView(r.Context(), id, candidate)
	if err != nil {
		s.errorFromErr(w, "get assessment", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

// handleStartAssessment handles POST /assessments/{id}/start
func (s *Server) handleStartAssessment(w http.ResponseWriter, r *http.Request) {
	id, candidate, ok := s.candidateIDs(w, r, "start assessment")
	if !ok {
		return
	}
	a, err := s.assessments.Start(r.Context(), id, candidate)
	if err != nil {
		s.errorFromErr(w, "start assessment", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, assessment.NewCandidateView(a))
}

// handleRecordResponse handles POST /assessments/{id}/responses
func (s *Server) handleRecordResponse(w http.ResponseWriter, r *http.Request) {
	id, candidate, ok := s.candidateIDs(w, r, "record response")
	if !ok {
		return
	}
	var resp assessment.Response
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	a, err := s.assessments.RecordResponse(r.Context(), id, candidate, resp)
	if err != nil {
		s.errorFromErr(w, "record response", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, assessment.NewCandidateView(a))
}

// handleRecordEvent handles POST /assessments/{id}/events
func (s *Server) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	id, candidate, ok := s.candidateIDs(w, r, "record event")
	if !ok {
		return
	}
	var event types.CheatingEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	a, err := s.assessments.RecordCheatingEvent(r.Context(), id, candidate, event)
	if err != nil {
		s.errorFromErr(w, "record event", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]int{"events": len(a.CheatingEvents)})
}

// handleCompleteAssessment handles POST /assessments/{id}/complete. A score is
// returned even when the application status could not be advanced.
func (s *Server) handleCompleteAssessment(w http.ResponseWriter, r *http.Request) {
	id, candidate, ok := s.candidateIDs(w, r, "complete assessment")
	if !ok {
		return
	}
	summary, err := s.assessments.Complete(r.Context(), id, candidate)
	if err != nil && summary == nil {
		s.errorFromErr(w, "complete assessment", err)
		return
	}
	if err != nil {
		log.Printf("[assessment] %s scored but application not advanced: %v", id, err)
	}
	s.jsonResponse(w, http.StatusOK, summary)
}
