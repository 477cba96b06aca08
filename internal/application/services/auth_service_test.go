package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthServiceLoginAndValidate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	t.Setenv("ADMIN_PASSWORD_HASH", string(hash))
	t.Setenv("JWT_SECRET", "test-jwt-secret")

	svc := NewAuthService(newTestLogger(t))
	require.True(t, svc.Enabled())

	token, err := svc.AuthenticateAdmin("s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	role, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, AdminRole, role)

	_, err = svc.ValidateToken(token + "tampered")
	assert.Error(t, err)
}

func TestAuthServiceRejectsWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	t.Setenv("ADMIN_PASSWORD_HASH", string(hash))
	t.Setenv("JWT_SECRET", "test-jwt-secret")

	svc := NewAuthService(newTestLogger(t))
	_, err = svc.AuthenticateAdmin("wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceDisabledWithoutPasswordHash(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	t.Setenv("JWT_SECRET", "test-jwt-secret")

	svc := NewAuthService(newTestLogger(t))
	assert.False(t, svc.Enabled())

	_, err := svc.AuthenticateAdmin("anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
