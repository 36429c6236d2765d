// Package config loads runtime settings for the KYC workers and CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. MEGACOOP_API_BASE_URL.
const EnvPrefix = "MEGACOOP"

// Config aggregates application configuration values.
type Config struct {
	API      APIConfig      `mapstructure:"api" validate:"required"`
	Temporal TemporalConfig `mapstructure:"temporal" validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Session  SessionConfig  `mapstructure:"session"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// APIConfig points at the Megacoop backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// TemporalConfig describes the Temporal frontend to dial.
type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port" validate:"required,hostname_port"`
	Namespace string `mapstructure:"namespace" validate:"required"`
}

// StorageConfig locates the persisted wizard state. An empty path keeps it
// in memory.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// SessionConfig tunes the KYC session workflow.
type SessionConfig struct {
	IdleTimeout          time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
	ApprovalPollInterval time.Duration `mapstructure:"approval_poll_interval" validate:"gt=0"`
}

// MetricsConfig controls the Prometheus endpoint. An empty address disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000/api/v1")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("storage.path", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("session.idle_timeout", 30*time.Minute)
	v.SetDefault("session.approval_poll_interval", 5*time.Minute)
	v.SetDefault("metrics.addr", "")
}

// Load reads configuration from an optional .env file, an optional
// config.yaml in the working directory (or the file at path, when set), and
// MEGACOOP_* environment variables, in increasing order of precedence.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
