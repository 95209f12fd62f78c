package server

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/db"
	"github.com/jonathan/hirezaa/internal/dispatch"
	"github.com/jonathan/hirezaa/internal/export"
	"github.com/jonathan/hirezaa/internal/ranking"
	"github.com/jonathan/hirezaa/internal/types"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// applicantView is one row of the recruiter's applicant list.
type applicantView struct {
	types.Application
	Assessment *db.AssessmentSummary `json:"assessment,omitempty"`
}

// applicantsResponse is returned by GET /jobs/{id}/applicants. Counts cover
// every application of the job regardless of the status filter.
type applicantsResponse struct {
	JobID      uuid.UUID          `json:"jobId"`
	Total      int                `json:"total"`
	Counts     types.StatusCounts `json:"counts"`
	Applicants []applicantView    `json:"applicants"`
}

// ownedJob loads a job the actor may manage.
func (s *Server) ownedJob(ctx context.Context, jobID uuid.UUID, a dispatch.Actor) (*types.Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return nil, fmt.Errorf("%w: job %s", errNotFound, jobID)
	}
	if a.Role != types.RoleAdmin && job.PostedBy != a.UserID {
		return nil, dispatch.ErrForbidden
	}
	return job, nil
}

// handleListApplicants handles GET /jobs/{id}/applicants?status=&sort=&dir=
func (s *Server) handleListApplicants(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		s.errorFromErr(w, "list applicants", err)
		return
	}
	a, err := actor(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	var status types.ApplicationStatus
	if v := q.Get("status"); v != "" {
		status, err = types.ParseApplicationStatus(v)
		if err != nil {
			s.errorFromErr(w, "list applicants", &ErrValidation{Field: "status", Message: err.Error()})
			return
		}
	}
	asc := strings.EqualFold(q.Get("dir"), "asc")

	if _, err := s.ownedJob(r.Context(), jobID, a); err != nil {
		s.errorFromErr(w, "list applicants", err)
		return
	}
	apps, err := s.store.ListApplications(r.Context(), jobID)
	if err != nil {
		s.errorFromErr(w, "list applicants", err)
		return
	}
	summaries, err := s.store.ListAssessmentSummaries(r.Context(), jobID)
	if err != nil {
		s.errorFromErr(w, "list applicants", err)
		return
	}

	sorted := ranking.SortApplications(ranking.FilterByStatus(apps, status), ranking.ParseSortKey(q.Get("sort")), asc)
	views := make([]applicantView, 0, len(sorted))
	for _, app := range sorted {
		v := applicantView{Application: app}
		if sum, ok := summaries[app.ID]; ok {
			v.Assessment = &sum
		}
		views = append(views, v)
	}

	s.jsonResponse(w, http.StatusOK, applicantsResponse{
		JobID:      jobID,
		Total:      len(apps),
		Counts:     types.CountStatuses(apps),
		Applicants: views,
	})
}

// handleExportApplicants handles GET /jobs/{id}/applicants/export and streams
// the ranked applicant workbook.
func (s *Server) handleExportApplicants(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		s.errorFromErr(w, "export applicants", err)
		return
	}
	a, err := actor(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	job, err := s.ownedJob(r.Context(), jobID, a)
	if err != nil {
		s.errorFromErr(w, "export applicants", err)
		return
	}
	report, err := export.BuildReport(r.Context(), s.store, job)
	if err != nil {
		s.errorFromErr(w, "export applicants", err)
		return
	}

	// Render fully before writing headers so failures still produce JSON errors
	var buf bytes.Buffer
	if err := export.WriteApplicants(&buf, *report); err != nil {
		s.errorFromErr(w, "export applicants", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="applicants_%s.xlsx"`, job.ID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("[export] failed to write workbook for job %s: %v", job.ID, err)
	}
}
