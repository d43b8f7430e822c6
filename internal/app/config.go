package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/tasky/internal/config"
)

// MustReadEnv loads the config from the environment and any .env file
// in the working directory.
func MustReadEnv() {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}

	globalLogger.Info().
		Str("env", cfg.Env).
		Str("device_store", cfg.Device.SQLitePath).
		Bool("confirm_email", cfg.Auth.ConfirmEmail).
		Dict("sync", zerolog.Dict().
			Dur("resync_interval", cfg.Sync.ResyncInterval).
			Uint64("sign_up_retry_attempts", cfg.Sync.SignUpRetryAttempts)).
		Msg("read env")

	config.SetGlobal(cfg)
}
