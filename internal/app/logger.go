package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/tasky/internal/config"
)

const serviceName = "tasky"

var globalLogger zerolog.Logger

var envLogLevels = map[string]zerolog.Level{
	config.EnvLocal: zerolog.TraceLevel,
	config.EnvDev:   zerolog.DebugLevel,
	config.EnvProd:  zerolog.InfoLevel,
}

// InitDefaultLogger installs the logger used until the env is read.
func InitDefaultLogger() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimestampFieldName = "timestamp"
	zerolog.DurationFieldUnit = time.Millisecond

	globalLogger = zerolog.New(os.Stderr).
		With().
		Timestamp().
		Str("service", serviceName).
		Int("pid", os.Getpid()).
		Logger()

	globalLogger.Debug().Msg("initialized default logger")
}

// MustInitApplicationLogger applies the level of the configured env.
// Local runs get human readable output.
func MustInitApplicationLogger() {
	cfg := config.Global()

	level, ok := envLogLevels[cfg.Env]
	if !ok {
		globalLogger.Error().
			Str("env", cfg.Env).
			Msg("unknown env")
		panic(fmt.Errorf("unknown env: %s", cfg.Env))
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = os.Stderr
	if cfg.Env == config.EnvLocal {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	}

	globalLogger = globalLogger.Output(w).
		With().
		Str("env", cfg.Env).
		Caller().
		Logger()
	globalLogger.Info().
		Stringer("level", level).
		Msg("initialized application logger")
}
