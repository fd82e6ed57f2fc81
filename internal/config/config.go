package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime settings loaded from environment variables.
type Config struct {
	BotToken        string        `envconfig:"BOT_TOKEN" required:"true"`
	Admin           string        `envconfig:"ADMIN" required:"true"` // "id:name"
	DatabaseURL     string        `envconfig:"DATABASE_URL" default:"museumbot.db"`
	ProviderBaseURL string        `envconfig:"PROVIDER_BASE_URL" default:"https://kpb-museum.gomus.de/api/v4"`
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" default:"60s"`
	DaysMin         int           `envconfig:"DAYS_MIN" default:"2"`
	DaysMax         int           `envconfig:"DAYS_MAX" default:"8"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.PollInterval <= 0 {
		return cfg, fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if cfg.DaysMin < 0 || cfg.DaysMax < cfg.DaysMin {
		return cfg, fmt.Errorf("invalid lead-time window: min=%d max=%d", cfg.DaysMin, cfg.DaysMax)
	}
	if _, _, err := cfg.AdminUser(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// AdminUser splits the "id:name" admin setting into its parts.
func (c Config) AdminUser() (int64, string, error) {
	id, name, ok := strings.Cut(c.Admin, ":")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("ADMIN must be \"id:name\", got %q", c.Admin)
	}
	adminID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("ADMIN id %q: %w", id, err)
	}
	return adminID, name, nil
}
