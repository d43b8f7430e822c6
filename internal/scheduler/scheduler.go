package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/tasky/internal/models"
)

var ErrNonPositiveInterval = errors.New("interval must be positive")

type IdentitySource interface {
	// Identity returns nil while nobody is authenticated.
	Identity() *models.Identity
}

type TaskFetcher interface {
	FetchAll(ctx context.Context, ownerID string) error
}

// Scheduler runs periodic background jobs.
type Scheduler struct {
	logger zerolog.Logger
	cron   *cron.Cron
}

func New(logger zerolog.Logger) *Scheduler {
	cronLogger := zerologAdapter{logger: logger}
	return &Scheduler{
		logger: logger,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(
				cron.Recover(cronLogger),
				cron.SkipIfStillRunning(cronLogger),
			),
		),
	}
}

func (s *Scheduler) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, ErrNonPositiveInterval
	}
	return s.cron.Schedule(cron.Every(interval), cron.FuncJob(job)), nil
}

// ScheduleTaskResync refetches the tasks of the current identity every
// interval. Runs are skipped while nobody is authenticated.
func (s *Scheduler) ScheduleTaskResync(
	interval time.Duration,
	timeout time.Duration,
	identities IdentitySource,
	tasks TaskFetcher,
) (cron.EntryID, error) {
	return s.ScheduleInterval(interval, s.resyncJob(timeout, identities, tasks))
}

func (s *Scheduler) resyncJob(timeout time.Duration, identities IdentitySource, tasks TaskFetcher) func() {
	return func() {
		identity := identities.Identity()
		if identity == nil {
			s.logger.Debug().Msg("skipping task resync, not authenticated")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := tasks.FetchAll(ctx, identity.ID); err != nil {
			s.logger.Warn().
				Err(err).
				Str("user_id", identity.ID).
				Msg("task resync failed")
			return
		}
		s.logger.Debug().
			Str("user_id", identity.ID).
			Msg("resynced tasks")
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

type zerologAdapter struct {
	logger zerolog.Logger
}

func (a zerologAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (a zerologAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
