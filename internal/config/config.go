package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string `env:"ENV" env-required:"true"`
	Postgres PostgresConfig
	HTTP     HTTPConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Device   DeviceConfig
	Sync     SyncConfig
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-required:"true"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME" env-required:"true"`
	Password       string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Database       string        `env:"POSTGRES_DATABASE" env-required:"true"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
	Migrate        bool          `env:"POSTGRES_MIGRATE" env-default:"true"`
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"127.0.0.1"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type JWTConfig struct {
	Issuer          string        `env:"JWT_ISSUER" env-default:"tasky"`
	SigningKey      string        `env:"JWT_SIGNING_KEY" env-required:"true"`
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_TOKEN_TTL" env-default:"720h"`
}

type AuthConfig struct {
	// ConfirmEmail withholds the session at sign-up until the
	// address is verified.
	ConfirmEmail bool `env:"AUTH_CONFIRM_EMAIL" env-default:"false"`
}

type DeviceConfig struct {
	SQLitePath string `env:"DEVICE_SQLITE_PATH" env-default:"data/tasky.db"`
}

type SyncConfig struct {
	ResyncInterval      time.Duration `env:"SYNC_RESYNC_INTERVAL" env-default:"5m"`
	ResyncTimeout       time.Duration `env:"SYNC_RESYNC_TIMEOUT" env-default:"30s"`
	SignUpRetryAttempts uint64        `env:"SYNC_SIGN_UP_RETRY_ATTEMPTS" env-default:"5"`
	SignUpRetryInterval time.Duration `env:"SYNC_SIGN_UP_RETRY_INTERVAL" env-default:"250ms"`
	SignUpTimeout       time.Duration `env:"SYNC_SIGN_UP_TIMEOUT" env-default:"30s"`
}
