package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hirezaa/internal/types"
)

type testPrincipal struct {
	userID uuid.UUID
	role   types.Role
}

func (p testPrincipal) GetUserID() uuid.UUID { return p.userID }
func (p testPrincipal) GetRole() types.Role  { return p.role }

// testTokenValidator accepts a fixed set of tokens.
type testTokenValidator map[string]testPrincipal

func (v testTokenValidator) ValidateToken(tokenString string) (Principal, error) {
	p, ok := v[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return p, nil
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	validator := testTokenValidator{"token-123": {userID, types.RoleRecruiter}}

	var gotID uuid.UUID
	var gotRole types.Role
	handler := AuthMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotID, err = GetUserID(r)
		require.NoError(t, err)
		gotRole, err = GetRole(r)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))

	for _, header := range []string{"Bearer token-123", "bearer token-123", "BEARER   token-123"} {
		req := httptest.NewRequest(http.MethodGet, "/jobs/1/applicants", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, header)
		assert.Equal(t, userID, gotID)
		assert.Equal(t, types.RoleRecruiter, gotRole)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	validator := testTokenValidator{"token-123": {uuid.New(), types.RoleRecruiter}}
	called := false
	handler := AuthMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	tests := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic token-123",
		"no token":       "Bearer",
		"extra parts":    "Bearer token-123 extra",
		"unknown token":  "Bearer nope",
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
		})
	}
	assert.False(t, called)
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := RequireRole(types.RoleRecruiter, types.RoleAdmin)(ok)

	tests := []struct {
		name string
		role types.Role
		want int
	}{
		{"recruiter", types.RoleRecruiter, http.StatusNoContent},
		{"admin", types.RoleAdmin, http.StatusNoContent},
		{"job seeker", types.RoleJobSeeker, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/jobs/1/shortlist", nil)
			req = req.WithContext(WithPrincipal(req.Context(), uuid.New(), tt.role))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/jobs/1/shortlist", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "no principal in context")
}

func TestGetUserID_Missing(t *testing.T) {
	_, err := GetUserID(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Error(t, err)
	_, err = GetRole(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Error(t, err)
}
