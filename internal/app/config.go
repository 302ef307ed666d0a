package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"90s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"75s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	FeedBaseURL string        `envconfig:"FEED_BASE_URL" required:"true"`
	FeedToken   string        `envconfig:"FEED_TOKEN" required:"true"`
	FeedTimeout time.Duration `envconfig:"FEED_TIMEOUT" default:"30s"`

	WarmupCron string `envconfig:"WARMUP_CRON" default:"0 * * * *"`
	WarmupDays int    `envconfig:"WARMUP_DAYS" default:"30"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.FeedBaseURL == "" {
		return nil, errors.New("feed base URL must be provided")
	}
	if cfg.FeedToken == "" {
		return nil, errors.New("feed token must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
