package service

import (
	"testing"
	"time"

	"stagepass/config"
	"stagepass/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(d *deps) *AuthService {
	cfg := &config.Config{}
	cfg.JWT.AccessSecret = "test-access-secret"
	cfg.JWT.RefreshSecret = "test-refresh-secret"
	cfg.JWT.AccessExpiry = 15 * time.Minute
	cfg.JWT.RefreshExpiry = time.Hour
	cfg.JWT.Issuer = "stagepass-test"
	return NewAuthService(cfg, d.users)
}

func TestRegisterAndLogin(t *testing.T) {
	d := newDeps(t)
	svc := newAuth(d)

	u, access, refresh, err := svc.Register("fan@test.local", "superfan", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFan, u.Role, "self-registration only mints fans")
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.NotEqual(t, "s3cretpass", u.PasswordHash, "password must be hashed")

	u2, _, _, err := svc.Login("fan@test.local", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, u2.ID)

	_, _, _, err = svc.Login("fan@test.local", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCreds)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	d := newDeps(t)
	svc := newAuth(d)

	_, _, _, err := svc.Register("fan@test.local", "superfan", "s3cretpass")
	require.NoError(t, err)
	_, _, _, err = svc.Register("fan@test.local", "otherfan", "s3cretpass")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRefreshRotatesTokens(t *testing.T) {
	d := newDeps(t)
	svc := newAuth(d)

	u, _, refresh, err := svc.Register("fan@test.local", "superfan", "s3cretpass")
	require.NoError(t, err)

	u2, access2, refresh2, err := svc.Refresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, u.ID, u2.ID)
	assert.NotEmpty(t, access2)
	assert.NotEmpty(t, refresh2)

	_, _, _, err = svc.Refresh("garbage-token")
	assert.Error(t, err)
}
