package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hirezaa/internal/types"
)

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/auth/register", "", types.CreateUserRequest{
		Name:     "Rae",
		Email:    "rae@example.com",
		Password: "password1",
		Role:     types.RoleRecruiter,
		Company:  "Acme",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decode[types.LoginResponse](t, w)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, types.RoleRecruiter, reg.User.Role)
	assert.NotContains(t, w.Body.String(), "password_hash")

	claims, err := ts.jwt.ValidateToken(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	w = ts.do(t, http.MethodPost, "/auth/login", "", types.LoginRequest{Email: "rae@example.com", Password: "password1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, reg.User.ID, decode[types.LoginResponse](t, w).User.ID)

	w = ts.do(t, http.MethodPost, "/auth/register", "", types.CreateUserRequest{
		Name: "Rae", Email: "rae@example.com", Password: "password1", Role: types.RoleJobSeeker,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"register invalid json", "/auth/register", "not an object", http.StatusBadRequest},
		{"register missing email", "/auth/register", types.CreateUserRequest{Name: "A", Password: "password1", Role: types.RoleJobSeeker}, http.StatusBadRequest},
		{"register short password", "/auth/register", types.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "short", Role: types.RoleJobSeeker}, http.StatusBadRequest},
		{"register admin", "/auth/register", types.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "password1", Role: types.RoleAdmin}, http.StatusBadRequest},
		{"register recruiter without company", "/auth/register", types.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "password1", Role: types.RoleRecruiter}, http.StatusBadRequest},
		{"login invalid json", "/auth/login", "nope", http.StatusBadRequest},
		{"login unknown user", "/auth/login", types.LoginRequest{Email: "ghost@example.com", Password: "password1"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
		})
	}
}

func TestAuthHandler_InternalErrorIsGeneric(t *testing.T) {
	ts := newTestServer(t)
	ts.store.failWith = errBoom

	w := ts.do(t, http.MethodPost, "/auth/login", "", types.LoginRequest{Email: "a@example.com", Password: "password1"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode[map[string]string](t, w)["error"])
}
