package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	PortalAPIURL     string        `mapstructure:"PORTAL_API_URL"`
	PortalAPITimeout time.Duration `mapstructure:"PORTAL_API_TIMEOUT"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	MigrationsPath   string        `mapstructure:"MIGRATIONS_PATH"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	ServiceToken     string        `mapstructure:"PORTAL_SERVICE_TOKEN"`
}

// Load reads configuration from the environment, with an optional .env file
// for local development. PORTAL_API_URL is the only required key; the audit
// database is optional and its absence downgrades auditing to a no-op.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("PORTAL_API_TIMEOUT", "30s")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("LOG_LEVEL", "info")

	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("PORTAL_API_URL")
	v.BindEnv("PORTAL_API_TIMEOUT")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("MIGRATIONS_PATH")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("PORTAL_SERVICE_TOKEN")

	// The .env file is a convenience, not a requirement.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.PortalAPIURL == "" {
		return nil, fmt.Errorf("PORTAL_API_URL is required")
	}
	if cfg.PortalAPITimeout <= 0 {
		cfg.PortalAPITimeout = 30 * time.Second
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}
