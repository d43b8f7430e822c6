package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InMemoryPath keeps the device store in memory for the process lifetime.
const InMemoryPath = ":memory:"

const busyTimeout = 5 * time.Second

var ErrEmptyPath = errors.New("device store path is empty")

// OpenDevice opens the SQLite file holding this device's persisted
// session, creating its directory when missing, and migrates it.
func OpenDevice(log zerolog.Logger, path string) (*gorm.DB, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	if path != InMemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create device store dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(deviceDSN(path)), &gorm.Config{
		Logger: logger.New(&log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}

	// A single connection serializes writers and keeps an in-memory
	// database alive.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err = db.AutoMigrate(&storedSession{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate device store: %w", err)
	}

	log.Debug().
		Str("path", path).
		Msg("device store ready")
	return db, nil
}

func deviceDSN(path string) string {
	params := url.Values{}
	params.Set("_busy_timeout", fmt.Sprint(busyTimeout.Milliseconds()))
	params.Set("_foreign_keys", "on")
	if path != InMemoryPath {
		params.Set("_journal_mode", "WAL")
	}
	return "file:" + path + "?" + params.Encode()
}
