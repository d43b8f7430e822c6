package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("ENV", EnvLocal)
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_USERNAME", "tasky")
	t.Setenv("POSTGRES_PASSWORD", "tasky")
	t.Setenv("POSTGRES_DATABASE", "tasky")
	t.Setenv("JWT_SIGNING_KEY", "secret")
}

func TestEnvReaderDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := NewEnvReader().Read()
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.False(t, cfg.Auth.ConfirmEmail)
	assert.Equal(t, 5*time.Minute, cfg.Sync.ResyncInterval)
	assert.Equal(t, 30*time.Second, cfg.Sync.ResyncTimeout)
	assert.Equal(t, uint64(5), cfg.Sync.SignUpRetryAttempts)
}

func TestEnvReaderOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_CONFIRM_EMAIL", "true")
	t.Setenv("SYNC_RESYNC_INTERVAL", "30s")

	cfg, err := NewEnvReader().Read()
	require.NoError(t, err)

	assert.True(t, cfg.Auth.ConfirmEmail)
	assert.Equal(t, 30*time.Second, cfg.Sync.ResyncInterval)
}

func TestFileReader(t *testing.T) {
	// The dotenv parser exports what it reads; register the keys so
	// they are restored afterwards.
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "8080")

	path := filepath.Join(t.TempDir(), "tasky.env")
	content := "ENV=dev\n" +
		"POSTGRES_HOST=db\n" +
		"POSTGRES_USERNAME=u\n" +
		"POSTGRES_PASSWORD=p\n" +
		"POSTGRES_DATABASE=d\n" +
		"JWT_SIGNING_KEY=k\n" +
		"HTTP_PORT=9090\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewFileReader(path).Read()
	require.NoError(t, err)

	assert.Equal(t, EnvDev, cfg.Env)
	assert.Equal(t, "db", cfg.Postgres.Host)
	assert.Equal(t, "9090", cfg.HTTP.Port)
}
