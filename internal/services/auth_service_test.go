package services

import (
	"context"
	"testing"
	"time"

	"github.com/Wikid82/warden/backend/internal/config"
	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(setupServiceTestDB(t), config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})
}

func TestAuthService_Register(t *testing.T) {
	service := newTestAuthService(t)
	ctx := context.Background()

	// First user is promoted regardless of the requested role
	admin, err := service.Register(ctx, "Admin@Example.com", "password123", "Admin User", models.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "admin@example.com", admin.Email)
	assert.NotEmpty(t, admin.PasswordHash)
	assert.NotEqual(t, "password123", admin.PasswordHash)

	user, err := service.Register(ctx, "user@example.com", "password123", "Regular User", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, user.Role)

	_, err = service.Register(ctx, "user@example.com", "password123", "Again", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.Register(ctx, "short@example.com", "short", "Short", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.Register(ctx, "role@example.com", "password123", "Role", models.Role("ROOT"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAuthService_Login(t *testing.T) {
	service := newTestAuthService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, "test@example.com", "password123", "Test User", "")
	require.NoError(t, err)

	token, user, err := service.Login(ctx, "test@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotNil(t, user.LastLogin)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	token, _, err = service.Login(ctx, "test@example.com", "wrongpassword")
	assert.Empty(t, token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "invalid credentials", err.Error())

	_, _, err = service.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LoginDisabled(t *testing.T) {
	service := newTestAuthService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, "test@example.com", "password123", "Test User", "")
	require.NoError(t, err)
	require.NoError(t, service.db.Model(user).Update("enabled", false).Error)

	_, _, err = service.Login(ctx, "test@example.com", "password123")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestAuthService_ValidateToken(t *testing.T) {
	service := newTestAuthService(t)
	user := &models.User{ID: 7, UUID: "u-7", Role: models.RoleAnalyst}

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	_, err = service.ValidateToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthService(service.db, config.AuthConfig{JWTSecret: "other"})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	service.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Passwords(t *testing.T) {
	service := newTestAuthService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, "test@example.com", "password123", "Test User", "")
	require.NoError(t, err)

	assert.ErrorIs(t, service.ChangePassword(ctx, user.ID, "wrong", "newpassword1"), ErrInvalidCredentials)
	assert.ErrorIs(t, service.ChangePassword(ctx, user.ID, "password123", "short"), ErrInvalidInput)
	require.NoError(t, service.ChangePassword(ctx, user.ID, "password123", "newpassword1"))

	_, _, err = service.Login(ctx, "test@example.com", "newpassword1")
	require.NoError(t, err)

	require.NoError(t, service.ResetPassword(ctx, "TEST@example.com", "resetpassword"))
	_, _, err = service.Login(ctx, "test@example.com", "resetpassword")
	require.NoError(t, err)

	assert.ErrorIs(t, service.ResetPassword(ctx, "nobody@example.com", "resetpassword"), ErrUserNotFound)

	_, err = service.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
