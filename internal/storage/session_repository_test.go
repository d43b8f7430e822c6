package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/tasky/internal/models"
)

func newTestRepository(t *testing.T) *SessionRepository {
	t.Helper()

	db, err := OpenDevice(zerolog.Nop(), filepath.Join(t.TempDir(), "nested", "device.db"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return NewSessionRepository(db)
}

func TestSessionRepositoryLoadEmpty(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionRepositorySaveReplaces(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	require.NoError(t, repo.Save(ctx, models.Session{
		ID:           "s1",
		UserID:       "u1",
		Email:        "a@b.com",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}))
	require.NoError(t, repo.Save(ctx, models.Session{
		ID:                    "s2",
		UserID:                "u2",
		Email:                 "c@d.com",
		AccessToken:           "access-2",
		RefreshToken:          "refresh-2",
		RefreshTokenExpiresAt: expires,
	}))

	session, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s2", session.ID)
	assert.Equal(t, "u2", session.UserID)
	assert.Equal(t, "refresh-2", session.RefreshToken)
	assert.True(t, expires.Equal(session.RefreshTokenExpiresAt))

	var count int64
	require.NoError(t, repo.db.Model(&storedSession{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSessionRepositoryClear(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.Save(ctx, models.Session{ID: "s1", UserID: "u1"}))
	require.NoError(t, repo.Clear(ctx))

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoError(t, repo.Clear(ctx), "clearing twice is fine")
}
