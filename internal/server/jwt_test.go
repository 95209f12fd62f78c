package server

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hirezaa/internal/config"
	"github.com/jonathan/hirezaa/internal/types"
)

func newTestJWTService() *JWTService {
	return NewJWTService(&config.JWTConfig{Secret: testSecret, ExpirationHours: 24})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, types.RoleRecruiter)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.GetUserID())
	assert.Equal(t, types.RoleRecruiter, claims.GetRole())
	assert.Equal(t, config.DefaultJWTIssuer, claims.Issuer)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	t.Run("empty", func(t *testing.T) {
		_, err := svc.ValidateToken("")
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorContains(t, err, "malformed")
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(&config.JWTConfig{Secret: "another-secret-that-is-long-enough", ExpirationHours: 24})
		token, err := other.GenerateToken(userID, types.RoleJobSeeker)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorContains(t, err, "signature")
	})

	t.Run("expired", func(t *testing.T) {
		past := newTestJWTService()
		past.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
		token, err := past.GenerateToken(userID, types.RoleJobSeeker)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorContains(t, err, "expired")
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(&config.JWTConfig{Secret: testSecret, ExpirationHours: 24, Issuer: "someone-else"})
		token, err := other.GenerateToken(userID, types.RoleJobSeeker)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &Claims{UserID: userID, Role: types.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.DefaultJWTIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("missing role", func(t *testing.T) {
		token, err := svc.GenerateToken(userID, "")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorContains(t, err, "identity")
	})
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()
	token, err := svc.GenerateToken(userID, types.RoleJobSeeker)
	require.NoError(t, err)

	principal, err := svc.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, principal.GetUserID())
	assert.Equal(t, types.RoleJobSeeker, principal.GetRole())

	_, err = svc.AsTokenValidator().ValidateToken("garbage")
	assert.Error(t, err)
}
