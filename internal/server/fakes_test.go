package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hirezaa/internal/assessment"
	"github.com/jonathan/hirezaa/internal/config"
	"github.com/jonathan/hirezaa/internal/db"
	"github.com/jonathan/hirezaa/internal/dispatch"
	"github.com/jonathan/hirezaa/internal/generation"
	"github.com/jonathan/hirezaa/internal/resume"
	"github.com/jonathan/hirezaa/internal/types"
)

// memStore is an in-memory Store that also backs the dispatcher and the
// assessment manager.
type memStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]db.User
	jobs        map[uuid.UUID]types.Job
	apps        map[uuid.UUID]types.Application
	order       []uuid.UUID
	assessments map[uuid.UUID]types.Assessment
	pingErr     error
	failWith    error
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[uuid.UUID]db.User{},
		jobs:        map[uuid.UUID]types.Job{},
		apps:        map[uuid.UUID]types.Application{},
		assessments: map[uuid.UUID]types.Assessment{},
	}
}

func (s *memStore) CheckEmailExists(_ context.Context, email string) (bool, error) {
	u, err := s.GetUserByEmail(context.Background(), email)
	return u != nil, err
}

func (s *memStore) CreateUser(_ context.Context, in db.NewUser) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return uuid.Nil, s.failWith
	}
	now := time.Now().UTC()
	u := db.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        strings.ToLower(in.Email),
		Phone:        in.Phone,
		Role:         in.Role,
		Company:      in.Company,
		CGPA:         in.CGPA,
		PasswordHash: in.PasswordHash,
		PasswordSet:  in.PasswordHash != "",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *memStore) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetJob(_ context.Context, id uuid.UUID) (*types.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func (s *memStore) GetApplication(_ context.Context, id uuid.UUID) (*types.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, nil
	}
	return &app, nil
}

func (s *memStore) ListApplications(_ context.Context, jobID uuid.UUID) ([]types.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Application
	for _, id := range s.order {
		if app := s.apps[id]; app.JobID == jobID {
			out = append(out, app)
		}
	}
	return out, nil
}

func (s *memStore) ListApplicationsByStatus(ctx context.Context, jobID uuid.UUID, status types.ApplicationStatus) ([]types.Application, error) {
	apps, err := s.ListApplications(ctx, jobID)
	if err != nil {
		return nil, err
	}
	var out []types.Application
	for _, app := range apps {
		if app.Status == status {
			out = append(out, app)
		}
	}
	return out, nil
}

func (s *memStore) UpdateApplicationStatus(_ context.Context, id uuid.UUID, status types.ApplicationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app := s.apps[id]
	app.Status = status
	s.apps[id] = app
	return nil
}

func (s *memStore) SetApplicationResumeID(_ context.Context, id uuid.UUID, resumeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app := s.apps[id]
	app.ResumeID = &resumeID
	s.apps[id] = app
	return nil
}

func (s *memStore) ListAssessmentSummaries(_ context.Context, jobID uuid.UUID) (map[uuid.UUID]db.AssessmentSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[uuid.UUID]db.AssessmentSummary{}
	for _, a := range s.assessments {
		if a.JobID != jobID {
			continue
		}
		out[a.ApplicationID] = db.AssessmentSummary{
			ID:            a.ID,
			ApplicationID: a.ApplicationID,
			Status:        a.Status,
			Score:         a.Score,
			ExpiresAt:     a.ExpiresAt,
			CompletedAt:   a.CompletedAt,
		}
	}
	return out, nil
}

func (s *memStore) CreateAssessment(_ context.Context, a *types.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[a.ID] = *a
	return nil
}

func (s *memStore) GetAssessment(_ context.Context, id uuid.UUID) (*types.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assessments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *memStore) GetAssessmentByApplication(_ context.Context, applicationID uuid.UUID) (*types.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assessments {
		if a.ApplicationID == applicationID {
			return &a, nil
		}
	}
	return nil, nil
}

func (s *memStore) UpdateAssessment(ctx context.Context, a *types.Assessment) error {
	return s.CreateAssessment(ctx, a)
}

func (s *memStore) ListOverdueAssessments(context.Context, time.Time) ([]types.Assessment, error) {
	return nil, nil
}

func (s *memStore) Ping(context.Context) error {
	return s.pingErr
}

func (s *memStore) addJob(job types.Job) types.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	s.jobs[job.ID] = job
	return job
}

func (s *memStore) addApp(app types.Application) types.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	if app.UserID == uuid.Nil {
		app.UserID = uuid.New()
	}
	if app.Status == "" {
		app.Status = types.ApplicationApplied
	}
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now().UTC().Add(time.Duration(len(s.order)) * time.Second)
	}
	s.apps[app.ID] = app
	s.order = append(s.order, app.ID)
	return app
}

func (s *memStore) app(id uuid.UUID) types.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apps[id]
}

func (s *memStore) assessmentFor(appID uuid.UUID) *types.Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assessments {
		if a.ApplicationID == appID {
			return &a
		}
	}
	return nil
}

// stubNotifier records sends and fails when err is set.
type stubNotifier struct {
	mu   sync.Mutex
	sent int
	err  error
}

func (n *stubNotifier) record() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent++
	return nil
}

func (n *stubNotifier) SendAssessmentInvite(context.Context, *types.Application, *types.Job, *types.Assessment) error {
	return n.record()
}

func (n *stubNotifier) SendSelection(context.Context, *types.Application, *types.Job) error {
	return n.record()
}

func (n *stubNotifier) SendRejection(context.Context, *types.Application, *types.Job) error {
	return n.record()
}

// objects is an in-memory resume.ObjectStore.
type objects struct {
	names []string
}

func (o *objects) Exists(_ context.Context, name string) (bool, error) {
	for _, n := range o.names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

func (o *objects) List(_ context.Context, prefix string, limit int) ([]string, error) {
	var out []string
	for _, n := range o.names {
		if strings.HasPrefix(n, prefix) && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (o *objects) SignedURL(_ context.Context, name string, _ time.Time) (string, error) {
	return "https://signed.example/" + name, nil
}

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

// testServer wires a Server over in-memory collaborators.
type testServer struct {
	*Server
	store    *memStore
	notifier *stubNotifier
	objects  *objects
	jwt      *JWTService
	handler  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := newMemStore()
	notifier := &stubNotifier{}
	objs := &objects{}

	bank, err := generation.NewTemplateBank()
	require.NoError(t, err)
	manager := assessment.NewManager(store)
	dispatcher := dispatch.NewDispatcher(store, generation.NewGenerator(bank, time.Second), manager, notifier, dispatch.WithDelay(0))
	jwtService := NewJWTService(&config.JWTConfig{Secret: testSecret, ExpirationHours: 1})

	s := NewWithDeps(0, Deps{
		Store:       store,
		Dispatcher:  dispatcher,
		Assessments: manager,
		Resumes:     resume.NewResolver(objs, resume.Options{}),
		JWT:         jwtService,
		Passwords:   &config.PasswordConfig{BcryptCost: 4},
	})
	t.Cleanup(s.rateLimiter.Stop)

	return &testServer{Server: s, store: store, notifier: notifier, objects: objs, jwt: jwtService, handler: s.Handler()}
}

func (ts *testServer) token(t *testing.T, id uuid.UUID, role types.Role) string {
	t.Helper()
	token, err := ts.jwt.GenerateToken(id, role)
	require.NoError(t, err)
	return token
}

var errBoom = errors.New("boom")
