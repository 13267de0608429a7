// Package config reads process configuration from ENROLL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/enroll/internal/logging"
	"github.com/aretw0/enroll/internal/runtime"
	"github.com/caarlos0/env/v11"
)

// Config is the process configuration. Command-line flags override it.
type Config struct {
	CatalogPath      string        `env:"ENROLL_CATALOG" envDefault:"products"`
	ProvidersPath    string        `env:"ENROLL_PROVIDERS" envDefault:"providers.yaml"`
	RetryDelay       time.Duration `env:"ENROLL_RETRY_DELAY" envDefault:"500ms"`
	ResumePolicy     string        `env:"ENROLL_RESUME_POLICY" envDefault:"failed_step"`
	LogLevel         string        `env:"ENROLL_LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"ENROLL_LOG_FORMAT" envDefault:"text"`
	HTTPPort         int           `env:"ENROLL_HTTP_PORT" envDefault:"8080"`
	MaxInputSize     int64         `env:"ENROLL_MAX_INPUT_SIZE" envDefault:"1048576"`
	RedisAddr        string        `env:"ENROLL_REDIS_ADDR"`
	MetricsNamespace string        `env:"ENROLL_METRICS_NAMESPACE" envDefault:"enroll"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := runtime.ParseResumePolicy(c.ResumePolicy); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		errs = append(errs, err)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("http port %d out of range", c.HTTPPort))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("retry delay must not be negative, got %s", c.RetryDelay))
	}
	if c.MaxInputSize <= 0 {
		errs = append(errs, fmt.Errorf("max input size must be positive, got %d", c.MaxInputSize))
	}
	return errors.Join(errs...)
}

// Logger builds the stderr logger described by LogLevel and LogFormat.
func (c Config) Logger() (*slog.Logger, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.LogFormat)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format), nil
}
