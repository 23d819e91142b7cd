package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT" env-default:"5432"`
		Host    string `env:"POSTGRES_HOST" env-default:"localhost"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
	Telegram struct {
		User  int64  `env:"TELEGRAM_USER"`
		Token string `env:"TELEGRAM_TOKEN"`
	}
	Player struct {
		ImageDuration         time.Duration `env:"PLAYER_IMAGE_DURATION" env-default:"6s"`
		VideoFallbackDuration time.Duration `env:"PLAYER_VIDEO_FALLBACK_DURATION" env-default:"15s"`
		MaxVideoDuration      time.Duration `env:"PLAYER_MAX_VIDEO_DURATION" env-default:"60s"`
		ReadyTimeout          time.Duration `env:"PLAYER_READY_TIMEOUT" env-default:"15s"`
		StallPolicy           string        `env:"PLAYER_STALL_POLICY" env-default:"skip"`
		RefreshInterval       time.Duration `env:"PLAYER_REFRESH_INTERVAL" env-default:"2s"`
	}
	Cleanup struct {
		StoryTTL      time.Duration `env:"CLEANUP_STORY_TTL" env-default:"24h"`
		ViewRetention time.Duration `env:"CLEANUP_VIEW_RETENTION" env-default:"720h"`
		Location      string        `env:"CLEANUP_LOCATION" env-default:"Asia/Ho_Chi_Minh"`
	}
}

var (
	once    sync.Once
	cfg     *Config
	loadErr error
)

func New() (*Config, error) {
	once.Do(func() {
		c := &Config{}
		if err := cleanenv.ReadEnv(c); err != nil {
			help, _ := cleanenv.GetDescription(c, nil)
			loadErr = fmt.Errorf("failed to read configuration: %w\n%s", err, help)
			return
		}
		if err := c.validate(); err != nil {
			loadErr = err
			return
		}
		cfg = c
	})
	return cfg, loadErr
}

func (c *Config) validate() error {
	switch c.Player.StallPolicy {
	case "skip", "abort":
	default:
		return fmt.Errorf("PLAYER_STALL_POLICY must be skip or abort, got %q", c.Player.StallPolicy)
	}
	if c.Player.ImageDuration <= 0 || c.Player.VideoFallbackDuration <= 0 {
		return fmt.Errorf("story durations must be positive")
	}
	if c.Player.RefreshInterval <= 0 {
		return fmt.Errorf("PLAYER_REFRESH_INTERVAL must be positive, got %s", c.Player.RefreshInterval)
	}
	return nil
}

// GetDSN returns the postgres connection URL used by pgx and goose.
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Pass,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.Name,
		c.Postgres.SslMode,
	)
}
