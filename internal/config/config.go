package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Addr       string    `mapstructure:"addr"`
	DBPath     string    `mapstructure:"db_path"`
	LogLevel   string    `mapstructure:"log_level"`
	ChatMaxLen int       `mapstructure:"chat_max_len"`
	RateLimit  RateLimit `mapstructure:"rate_limit"`
}

// RateLimit configures the fixed-window counter on the HTTP path.
type RateLimit struct {
	Window      time.Duration `mapstructure:"window"`
	MaxRequests int           `mapstructure:"max_requests"`
}

// Load reads configuration from an optional file plus environment
// variables (prefixed ARCADE_, nested keys joined with underscores).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", "arcade.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("chat_max_len", 100)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("rate_limit.max_requests", 120)

	v.SetEnvPrefix("ARCADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
