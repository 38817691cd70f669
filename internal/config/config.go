package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         App    `mapstructure:"app"`
	DatabaseURL string `mapstructure:"database_url"`
	Retry       Retry  `mapstructure:"retry"`
	Redis       Redis  `mapstructure:"redis"`
}

type App struct {
	Port               string        `mapstructure:"port"`
	LogLevel           string        `mapstructure:"log_level"`
	MigrationDir       string        `mapstructure:"migration_dir"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
}

type Retry struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     string        `mapstructure:"backoff"`
	Base        time.Duration `mapstructure:"base"`
	Factor      float64       `mapstructure:"factor"`
	Max         time.Duration `mapstructure:"max"`
	Jitter      bool          `mapstructure:"jitter"`
}

// Redis is optional: an empty Addr runs the service without the category cache.
type Redis struct {
	Addr        string        `mapstructure:"addr"`
	CategoryTTL time.Duration `mapstructure:"category_ttl"`
}

// Load reads the YAML file at path and overlays CASE_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("CASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.port", "8080")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.migration_dir", "migrations")
	v.SetDefault("app.shutdown_timeout", 10*time.Second)
	v.SetDefault("app.rate_limit_per_minute", 600)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.backoff", "exponential")
	v.SetDefault("retry.base", 50*time.Millisecond)
	v.SetDefault("retry.factor", 2.0)
	v.SetDefault("retry.max", time.Second)
	v.SetDefault("retry.jitter", true)
	v.SetDefault("redis.category_ttl", 5*time.Minute)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Port == "" {
		return errors.New("app.port is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	if c.App.RateLimitPerMinute <= 0 {
		return errors.New("app.rate_limit_per_minute must be greater than 0")
	}
	if c.Retry.MaxAttempts <= 0 {
		return errors.New("retry.max_attempts must be greater than 0")
	}
	if c.Retry.Backoff != "" && c.Retry.Backoff != "exponential" && c.Retry.Backoff != "none" {
		return fmt.Errorf("retry.backoff %q is not supported", c.Retry.Backoff)
	}
	return nil
}
