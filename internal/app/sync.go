package app

import (
	"context"
	"time"

	"github.com/adanyl0v/tasky/internal/config"
	"github.com/adanyl0v/tasky/internal/scheduler"
	"github.com/adanyl0v/tasky/internal/services"
	"github.com/adanyl0v/tasky/internal/session"
	"github.com/adanyl0v/tasky/internal/state"
	"github.com/adanyl0v/tasky/internal/storage"
)

const restoreTimeout = 30 * time.Second

var (
	globalHolder       *session.Holder
	globalProfileSlice *state.ProfileSlice
	globalTaskSlice    *state.TaskSlice
	globalScheduler    *scheduler.Scheduler
)

// MustInitSync builds the backend services and state containers,
// restores the device session and starts the background resync.
func MustInitSync() {
	cfg := config.Global()

	sessionService := services.NewSessionService(globalLogger, globalPostgresPool)
	authService := services.NewAuthService(
		globalLogger,
		globalPostgresPool,
		sessionService,
		cfg.JWT.Issuer,
		[]byte(cfg.JWT.SigningKey),
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.Auth.ConfirmEmail,
	)
	profileService := services.NewProfileService(globalLogger, globalPostgresPool)
	taskService := services.NewTaskService(globalLogger, globalPostgresPool)

	globalProfileSlice = state.NewProfileSlice(globalLogger, profileService)
	globalTaskSlice = state.NewTaskSlice(globalLogger, taskService)
	globalHolder = session.NewHolder(
		globalLogger,
		authService,
		profileService,
		storage.NewSessionRepository(globalDeviceDB),
		globalProfileSlice,
		globalTaskSlice,
		session.RetryConfig{
			Attempts: cfg.Sync.SignUpRetryAttempts,
			Interval: cfg.Sync.SignUpRetryInterval,
			Timeout:  cfg.Sync.SignUpTimeout,
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()

	err := globalHolder.Restore(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to restore session, starting anonymous")
	}
	globalLogger.Info().
		Stringer("state", globalHolder.State()).
		Msg("restored device state")

	globalScheduler = scheduler.New(globalLogger)
	_, err = globalScheduler.ScheduleTaskResync(
		cfg.Sync.ResyncInterval,
		cfg.Sync.ResyncTimeout,
		globalHolder,
		globalTaskSlice,
	)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to schedule task resync")
		panic(err)
	}
	globalScheduler.Start()
	globalLogger.Info().
		Dur("interval", cfg.Sync.ResyncInterval).
		Msg("started task resync")
}

func StopSync() {
	globalScheduler.Stop()
	globalLogger.Info().Msg("stopped task resync")
}
