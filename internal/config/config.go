package config

import (
	"log/slog"
	"time"
)

// Config is the full service configuration, loaded from the environment
// via pkg/envconf.
type Config struct {
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	Port            uint16        `env:"APP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Postgres PostgresConfig
	Redis    RedisConfig
	Notify   NotifyConfig
}

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// RedisConfig configures the optional balance read cache. An empty Addr
// disables caching entirely.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:""`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// NotifyConfig configures the donation log webhook. An empty URL disables
// outbound notifications.
type NotifyConfig struct {
	DonationWebhookURL string `env:"DONATION_LOG_WEBHOOK_URL" envDefault:""`
}
