package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Permission policies for the notification prompt.
const (
	PermissionAuto    = "auto"
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"`
	DefaultTZ string `envconfig:"DEFAULT_TZ" default:"UTC"` // wall clock the reminders fire in

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"sqlite"` // sqlite|redis|memory
	DBPath        string `envconfig:"DB_PATH" default:"./data/reminders.db"`
	RedisURL      string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	TelegramToken string `envconfig:"TELEGRAM_BOT_TOKEN"` // empty disables the bot

	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDSubscriber string `envconfig:"VAPID_SUBSCRIBER" default:"reminders@warrior-journal.app"`

	NotifyPermission string        `envconfig:"NOTIFY_PERMISSION" default:"auto"` // auto|granted|denied
	DispatchTimeout  time.Duration `envconfig:"DISPATCH_TIMEOUT" default:"15s"`

	SeedDefaults bool     `envconfig:"SEED_DEFAULTS" default:"true"`
	CORSOrigins  []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
}

// Load reads env files and then environment variables into Config. Without
// arguments an optional ./.env is read; named files must exist. Variables
// already set in the environment win over file values.
func Load(envFiles ...string) (Config, error) {
	var cfg Config
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load env file: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// WebPushEnabled reports whether both VAPID keys are configured.
func (c Config) WebPushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// Location resolves DefaultTZ.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.DefaultTZ)
}

// Validate checks cross-field rules envconfig cannot express.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (supported: %s, %s, %s)",
			c.StorageDriver, DriverSQLite, DriverRedis, DriverMemory)
	}

	switch c.NotifyPermission {
	case PermissionAuto, PermissionGranted, PermissionDenied:
	default:
		return fmt.Errorf("unknown NOTIFY_PERMISSION %q", c.NotifyPermission)
	}

	if (c.VAPIDPublicKey == "") != (c.VAPIDPrivateKey == "") {
		return errors.New("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY must be set together")
	}
	if c.DispatchTimeout <= 0 {
		return errors.New("DISPATCH_TIMEOUT must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("DEFAULT_TZ: %w", err)
	}
	return nil
}
