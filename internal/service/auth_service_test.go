package service

import (
	"testing"
	"time"

	"chatlink_backend/internal/config"
	"chatlink_backend/internal/repository"
	"chatlink_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-string-used-only-in-tests"
	cfg.JWT.ExpireTime = time.Hour
	svc := NewAuthService(repository.NewUserRepository(db), cfg)

	user, err := svc.Register("alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	// 密码只存哈希
	assert.NotEqual(t, "secret123", user.Password)

	_, err = svc.Register("alice2", "alice@example.com", "secret123")
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
	_, err = svc.Register("alice", "other@example.com", "secret123")
	assert.ErrorIs(t, err, util.ErrUsernameTaken)

	token, logged, err := svc.Login("alice@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, logged.ID)

	claims, err := util.ParseJWT(token, cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, _, err = svc.Login("alice@example.com", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	_, _, err = svc.Login("nobody@example.com", "secret123")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}
