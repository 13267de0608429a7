package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/aretw0/enroll/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ProviderConfig is one entry of providers.yaml.
type ProviderConfig struct {
	ID        string         `mapstructure:"id" json:"id"`
	Type      string         `mapstructure:"type" json:"type"`
	BaseURL   string         `mapstructure:"base_url" json:"base_url,omitempty"`
	APIKey    string         `mapstructure:"api_key" json:"-"`
	APIKeyEnv string         `mapstructure:"api_key_env" json:"api_key_env,omitempty"`
	Timeout   time.Duration  `mapstructure:"timeout" json:"timeout,omitempty"`
	Options   map[string]any `mapstructure:"options" json:"options,omitempty"`
}

// Key returns the API key, reading APIKeyEnv when no literal key is configured.
func (c ProviderConfig) Key() string {
	if c.APIKey == "" && c.APIKeyEnv != "" {
		return os.Getenv(c.APIKeyEnv)
	}
	return c.APIKey
}

// Factory builds a provider from its configuration.
type Factory func(cfg ProviderConfig) (ports.Provider, error)

// LoadConfig reads a YAML or JSON provider file (chosen by extension, YAML by default).
// The file holds a "providers" list or a bare list. A missing file yields no providers.
func LoadConfig(path string) ([]ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &domain.ConfigurationError{Subject: "providers", ID: path, Reason: "cannot read file", Cause: err}
	}

	var raw any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, &domain.ConfigurationError{Subject: "providers", ID: path, Reason: "cannot parse file", Cause: err}
	}

	if m, ok := raw.(map[string]any); ok {
		raw = m["providers"]
	}
	entries, ok := raw.([]any)
	if raw != nil && !ok {
		return nil, &domain.ConfigurationError{Subject: "providers", ID: path, Reason: fmt.Sprintf("expected a list, got %T", raw)}
	}

	var cfgs []ProviderConfig
	var errs []error
	for i, entry := range entries {
		cfg, err := decodeConfig(entry)
		if err != nil {
			errs = append(errs, &domain.ConfigurationError{Subject: "provider", ID: fmt.Sprintf("%s[%d]", path, i), Reason: "cannot decode", Cause: err})
			continue
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, domain.Aggregate(errs)
}

func decodeConfig(entry any) (ProviderConfig, error) {
	var cfg ProviderConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg,
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return cfg, err
	}
	err = dec.Decode(entry)
	return cfg, err
}

// Build creates and registers a provider per config entry using the factory named by its type.
// A failing entry is reported and skipped; the others are still registered.
func Build(r *Registry, cfgs []ProviderConfig, factories map[string]Factory) error {
	var errs []error
	for _, cfg := range cfgs {
		if cfg.ID == "" {
			errs = append(errs, &domain.ConfigurationError{Subject: "provider", Reason: "id is required"})
			continue
		}
		factory, ok := factories[cfg.Type]
		if !ok {
			errs = append(errs, &domain.ConfigurationError{Subject: "provider", ID: cfg.ID, Reason: fmt.Sprintf("unknown type %q", cfg.Type)})
			continue
		}
		p, err := factory(cfg)
		if err != nil {
			errs = append(errs, &domain.ConfigurationError{Subject: "provider", ID: cfg.ID, Reason: "cannot build", Cause: err})
			continue
		}
		if err := r.Register(p); err != nil {
			errs = append(errs, err)
		}
	}
	return domain.Aggregate(errs)
}
