package app

import (
	"gorm.io/gorm"

	"github.com/adanyl0v/tasky/internal/config"
	"github.com/adanyl0v/tasky/internal/storage"
)

var globalDeviceDB *gorm.DB

func MustOpenDeviceStore() {
	path := config.Global().Device.SQLitePath

	db, err := storage.OpenDevice(globalLogger, path)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to open device store")
		panic(err)
	}
	globalDeviceDB = db

	globalLogger.Info().
		Str("path", path).
		Msg("opened device store")
}

func CloseDeviceStore() {
	sqlDB, err := globalDeviceDB.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to close device store")
		return
	}
	globalLogger.Info().Msg("closed device store")
}
