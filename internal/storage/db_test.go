package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/tasky/internal/models"
)

func TestOpenDeviceRejectsEmptyPath(t *testing.T) {
	_, err := OpenDevice(zerolog.Nop(), "")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestOpenDeviceCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "device.db")

	db, err := OpenDevice(zerolog.Nop(), path)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpenDeviceInMemory(t *testing.T) {
	db, err := OpenDevice(zerolog.Nop(), InMemoryPath)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewSessionRepository(db)
	require.NoError(t, repo.Save(context.Background(), models.Session{ID: "s1", UserID: "u1"}))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", loaded.UserID)
}

func TestDeviceDSN(t *testing.T) {
	assert.Equal(t,
		"file:data/tasky.db?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL",
		deviceDSN("data/tasky.db"))
	assert.Equal(t,
		"file::memory:?_busy_timeout=5000&_foreign_keys=on",
		deviceDSN(InMemoryPath))
}
