package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/app"
	"github.com/jonathan/hirezaa/internal/assessment"
	"github.com/jonathan/hirezaa/internal/config"
	"github.com/jonathan/hirezaa/internal/db"
	"github.com/jonathan/hirezaa/internal/dispatch"
	"github.com/jonathan/hirezaa/internal/resume"
	"github.com/jonathan/hirezaa/internal/server/middleware"
	"github.com/jonathan/hirezaa/internal/server/ratelimit"
	"github.com/jonathan/hirezaa/internal/types"
)

// Store is the persistence the handlers read directly. *db.DB implements it.
type Store interface {
	UserStore
	GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error)
	ListApplications(ctx context.Context, jobID uuid.UUID) ([]types.Application, error)
	ListAssessmentSummaries(ctx context.Context, jobID uuid.UUID) (map[uuid.UUID]db.AssessmentSummary, error)
	SetApplicationResumeID(ctx context.Context, id uuid.UUID, resumeID string) error
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Server routes requests to. Resumes may be nil.
type Deps struct {
	Store          Store
	Dispatcher     *dispatch.Dispatcher
	Assessments    *assessment.Manager
	Resumes        *resume.Resolver
	JWT            *JWTService
	Passwords      *config.PasswordConfig
	RateLimiter    *ratelimit.Limiter
	AllowedOrigins []string
}

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	store          Store
	dispatcher     *dispatch.Dispatcher
	assessments    *assessment.Manager
	resumes        *resume.Resolver
	rateLimiter    *ratelimit.Limiter
	jwtService     *JWTService
	authHandler    *AuthHandler
	allowedOrigins []string
	onStop         func()
}

// New builds a server from configuration, connecting every backend.
func New(cfg *config.Config) (*Server, error) {
	a, err := app.Build(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	s := NewWithDeps(cfg.Server.Port, Deps{
		Store:          a.DB,
		Dispatcher:     a.Dispatcher,
		Assessments:    a.Assessments,
		Resumes:        a.Resumes,
		JWT:            NewJWTService(jwtConfig),
		Passwords:      passwordConfig,
		RateLimiter:    ratelimit.NewLimiter(ratelimit.LoadConfig()),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	s.onStop = a.Close
	return s, nil
}

// NewWithDeps builds a server around already constructed collaborators.
func NewWithDeps(port int, d Deps) *Server {
	s := &Server{
		store:          d.Store,
		dispatcher:     d.Dispatcher,
		assessments:    d.Assessments,
		resumes:        d.Resumes,
		rateLimiter:    d.RateLimiter,
		jwtService:     d.JWT,
		authHandler:    NewAuthHandler(NewUserService(d.Store, d.Passwords), d.JWT),
		allowedOrigins: d.AllowedOrigins,
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // bulk shortlist runs generate and mail per candidate
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)

	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	recruiter := func(h http.HandlerFunc) http.Handler {
		return auth(middleware.RequireRole(types.RoleRecruiter, types.RoleAdmin)(h))
	}
	candidate := func(h http.HandlerFunc) http.Handler {
		return auth(middleware.RequireRole(types.RoleJobSeeker)(h))
	}

	// Shortlisting and decisions
	mux.Handle("POST /jobs/{id}/shortlist", recruiter(s.handleShortlistBulk))
	mux.Handle("GET /jobs/{id}/shortlist-preview", recruiter(s.handleShortlistPreview))
	mux.Handle("POST /applications/{id}/shortlist", recruiter(s.handleShortlistOne))
	mux.Handle("POST /applications/{id}/reject", recruiter(s.handleReject))
	mux.Handle("POST /applications/{id}/select", recruiter(s.handleSelect))

	// Applicant views
	mux.Handle("GET /jobs/{id}/applicants", recruiter(s.handleListApplicants))
	mux.Handle("GET /jobs/{id}/applicants/export", recruiter(s.handleExportApplicants))

	// Resume files
	mux.Handle("POST /resumes/sign", recruiter(s.handleSignResume))
	mux.Handle("GET /applications/{id}/resume", recruiter(s.handleApplicationResume))

	// Assessment runner
	mux.Handle("GET /assessments/{id}", candidate(s.handleGetAssessment))
	mux.Handle("POST /assessments/{id}/start", candidate(s.handleStartAssessment))
	mux.Handle("POST /assessments/{id}/responses", candidate(s.handleRecordResponse))
	mux.Handle("POST /assessments/{id}/events", candidate(s.handleRecordEvent))
	mux.Handle("POST /assessments/{id}/complete", candidate(s.handleCompleteAssessment))

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		s.release()
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.release()
	log.Println("Server stopped")
	return nil
}

func (s *Server) release() {
	s.rateLimiter.Stop()
	if s.onStop != nil {
		s.onStop()
	}
}

// withCORS adds CORS headers. With no configured origins any origin is allowed.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(s.allowedOrigins) == 0:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case slices.Contains(s.allowedOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth reports whether the database is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		log.Printf("[health] database ping failed: %v", err)
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	writeError(w, status, message)
}

// errorFromErr maps err to a status and writes it. Internal errors are logged
// and reported without detail.
func (s *Server) errorFromErr(w http.ResponseWriter, op string, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[server] %s failed: %v", op, err)
		s.errorResponse(w, status, "Internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// extractClientID returns the client IP from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d", info.Limit, info.Remaining)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// actor returns the authenticated caller.
func actor(r *http.Request) (dispatch.Actor, error) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		return dispatch.Actor{}, err
	}
	role, err := middleware.GetRole(r)
	if err != nil {
		return dispatch.Actor{}, err
	}
	return dispatch.Actor{UserID: userID, Role: role}, nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "must be a UUID"}
	}
	return id, nil
}
