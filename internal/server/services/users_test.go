package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nchiang/moodiary/internal/common"
	"github.com/nchiang/moodiary/internal/server/auth"
	"github.com/nchiang/moodiary/internal/server/config"
	"github.com/nchiang/moodiary/internal/server/models"
)

func newTestUserService(t *testing.T, rm *fakeRepoManager) (*UserService, interface{ ExpectationsWereMet() error }) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	cfg := &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	return NewUserService(db, rm, cfg), mock
}

func TestUserService_Register(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{
		createOut: &models.User{ID: "u1", Email: "a@b.c"},
	}}
	s, _ := newTestUserService(t, rm)

	u, err := s.Register(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestUserService_Register_EmailTaken(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{createErr: common.ErrConflict}}
	s, _ := newTestUserService(t, rm)

	_, err := s.Register(context.Background(), "a@b.c", "secret")
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestUserService_Login(t *testing.T) {
	hash, err := auth.HashPassword("secret")
	require.NoError(t, err)

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{getOut: &models.User{ID: "u1", Email: "a@b.c", PasswordHash: hash}},
		r: &fakeRefreshRepo{},
	}
	s, _ := newTestUserService(t, rm)

	pair, err := s.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", pair.UserID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, []string{pair.RefreshToken}, rm.r.created)

	uid, err := auth.GetUserIDFromToken(pair.AccessToken, []byte("test-secret"))
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("secret")
	require.NoError(t, err)

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{getOut: &models.User{ID: "u1", PasswordHash: hash}},
		r: &fakeRefreshRepo{},
	}
	s, _ := newTestUserService(t, rm)

	_, err = s.Login(context.Background(), "a@b.c", "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidLoginPassword)
}

func TestUserService_Login_UnknownEmail(t *testing.T) {
	rm := &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrNotFound}}
	s, _ := newTestUserService(t, rm)

	_, err := s.Login(context.Background(), "nobody@b.c", "secret")
	assert.ErrorIs(t, err, common.ErrInvalidLoginPassword)
}

func TestUserService_RefreshToken_RotatesInsideTx(t *testing.T) {
	rm := &fakeRepoManager{r: &fakeRefreshRepo{
		findOut: &models.RefreshToken{UserID: "u1", Token: "old", Expires: time.Now().Add(10 * time.Minute)},
	}}
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	cfg := &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	s := NewUserService(db, rm, cfg)

	pair, err := s.RefreshToken(context.Background(), "old")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, "old", pair.RefreshToken)
	assert.Equal(t, []string{"old"}, rm.r.deleted)
	assert.Equal(t, []string{pair.RefreshToken}, rm.r.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_RefreshToken_Expired(t *testing.T) {
	rm := &fakeRepoManager{r: &fakeRefreshRepo{
		findOut: &models.RefreshToken{UserID: "u1", Token: "old", Expires: time.Now().Add(-time.Minute)},
	}}
	s, _ := newTestUserService(t, rm)

	_, err := s.RefreshToken(context.Background(), "old")
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestUserService_RefreshToken_Unknown(t *testing.T) {
	rm := &fakeRepoManager{r: &fakeRefreshRepo{findErr: common.ErrNotFound}}
	s, _ := newTestUserService(t, rm)

	_, err := s.RefreshToken(context.Background(), "never-issued")
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestUserService_RefreshToken_RollbackOnCreateError(t *testing.T) {
	rm := &fakeRepoManager{r: &fakeRefreshRepo{
		findOut:   &models.RefreshToken{UserID: "u1", Token: "old", Expires: time.Now().Add(10 * time.Minute)},
		createErr: errors.New("insert failed"),
	}}
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	cfg := &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	s := NewUserService(db, rm, cfg)

	_, err := s.RefreshToken(context.Background(), "old")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
