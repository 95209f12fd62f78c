package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hirezaa/internal/config"
	"github.com/jonathan/hirezaa/internal/types"
)

func newTestUserService() (*UserService, *memStore) {
	store := newMemStore()
	return NewUserService(store, &config.PasswordConfig{BcryptCost: 4}), store
}

func TestUserService_Register(t *testing.T) {
	svc, store := newTestUserService()
	ctx := context.Background()

	user, err := svc.Register(ctx, &types.CreateUserRequest{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "correct horse",
		Role:     types.RoleJobSeeker,
	})
	require.NoError(t, err)
	assert.Equal(t, types.RoleJobSeeker, user.Role)
	assert.True(t, user.PasswordSet)

	stored, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", stored.PasswordHash)

	_, err = svc.Register(ctx, &types.CreateUserRequest{Name: "Dup", Email: "asha@example.com", Password: "password1", Role: types.RoleJobSeeker})
	var exists *ErrEmailAlreadyExists
	assert.ErrorAs(t, err, &exists)
}

func TestUserService_Register_Validation(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	tests := []struct {
		name  string
		req   types.CreateUserRequest
		field string
	}{
		{"admin", types.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "password1", Role: types.RoleAdmin}, "role"},
		{"recruiter without company", types.CreateUserRequest{Name: "R", Email: "r@example.com", Password: "password1", Role: types.RoleRecruiter}, "company"},
		{"password too long", types.CreateUserRequest{Name: "L", Email: "l@example.com", Password: string(make([]byte, 73)), Role: types.RoleJobSeeker}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, &tt.req)
			var verr *ErrValidation
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUserService_Register_StoreFailure(t *testing.T) {
	svc, store := newTestUserService()
	store.failWith = errBoom

	_, err := svc.Register(context.Background(), &types.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "password1", Role: types.RoleJobSeeker})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 500, HTTPStatus(err))
}

func TestUserService_Login(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &types.CreateUserRequest{Name: "Rae", Email: "rae@example.com", Password: "password1", Role: types.RoleRecruiter, Company: "Acme"})
	require.NoError(t, err)

	user, err := svc.Login(ctx, &types.LoginRequest{Email: "RAE@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", user.Company)

	var creds *ErrInvalidCredentials
	_, err = svc.Login(ctx, &types.LoginRequest{Email: "rae@example.com", Password: "wrong-password"})
	assert.ErrorAs(t, err, &creds)

	_, err = svc.Login(ctx, &types.LoginRequest{Email: "nobody@example.com", Password: "password1"})
	assert.ErrorAs(t, err, &creds)
}
